package daemon

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flingware/flingrecv/internal/protocol"
)

const testTimeout = 2 * time.Second

// fakeDaemon is a websocket endpoint playing the fling daemon's role.
type fakeDaemon struct {
	t     *testing.T
	srv   *httptest.Server
	recv  chan protocol.DaemonMessage
	dials atomic.Int32

	mu   sync.Mutex
	conn *websocket.Conn
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	fd := &fakeDaemon{t: t, recv: make(chan protocol.DaemonMessage, 16)}
	upgrader := websocket.Upgrader{}

	fd.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fd.dials.Add(1)
		fd.mu.Lock()
		fd.conn = conn
		fd.mu.Unlock()

		for {
			var msg protocol.DaemonMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			fd.recv <- msg
		}
	}))
	t.Cleanup(fd.srv.Close)
	return fd
}

func (fd *fakeDaemon) url() string {
	return "ws" + strings.TrimPrefix(fd.srv.URL, "http") + "/receiver"
}

// send pushes a daemon-side message once the link has connected.
func (fd *fakeDaemon) send(msg protocol.DaemonMessage) {
	fd.t.Helper()
	deadline := time.Now().Add(testTimeout)
	for {
		fd.mu.Lock()
		conn := fd.conn
		fd.mu.Unlock()
		if conn != nil {
			require.NoError(fd.t, conn.WriteJSON(msg))
			return
		}
		if time.Now().After(deadline) {
			fd.t.Fatal("no link connection established")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// expect waits for the next receiver-side message of the given type.
func (fd *fakeDaemon) expect(msgType string) protocol.DaemonMessage {
	fd.t.Helper()
	select {
	case msg := <-fd.recv:
		require.Equal(fd.t, msgType, msg.Type)
		return msg
	case <-time.After(testTimeout):
		fd.t.Fatalf("timed out waiting for %q", msgType)
		return protocol.DaemonMessage{}
	}
}

func testServiceInfo() *protocol.ServiceInfo {
	return &protocol.ServiceInfo{
		IP:         []string{"10.0.0.5"},
		UUID:       "abc",
		DeviceName: "Foo",
	}
}

func TestLink_RegisterHandshake(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url(), WithAppID("app-1"))

	opened := make(chan protocol.ServiceInfo, 2)
	link.OnOpened(func(info protocol.ServiceInfo) { opened <- info })

	require.NoError(t, link.Open())
	defer link.Close()

	reg := fd.expect(protocol.DaemonRegister)
	assert.Equal(t, "app-1", reg.AppID)

	fd.send(protocol.DaemonMessage{
		Type:        protocol.DaemonRegisterOK,
		ServiceInfo: testServiceInfo(),
	})

	select {
	case info := <-opened:
		assert.Equal(t, "10.0.0.5", info.LocalIP())
		assert.Equal(t, "abc", info.UUID)
		assert.Equal(t, "Foo", info.DeviceName)
	case <-time.After(testTimeout):
		t.Fatal("opened event never fired")
	}
	assert.Equal(t, StateRegistered, link.State())

	// A duplicate acknowledgement must not re-fire opened.
	fd.send(protocol.DaemonMessage{
		Type:        protocol.DaemonRegisterOK,
		ServiceInfo: testServiceInfo(),
	})
	select {
	case <-opened:
		t.Fatal("opened fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLink_OpenIdempotent(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url())

	require.NoError(t, link.Open())
	defer link.Close()
	fd.expect(protocol.DaemonRegister)

	require.NoError(t, link.Open())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fd.dials.Load())
}

func TestLink_HeartbeatReplies(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url(), WithAppID("hb-app"))
	require.NoError(t, link.Open())
	defer link.Close()

	fd.expect(protocol.DaemonRegister)
	fd.send(protocol.DaemonMessage{Type: protocol.DaemonRegisterOK, ServiceInfo: testServiceInfo()})

	fd.send(protocol.DaemonMessage{Type: protocol.DaemonHeartbeat, Heartbeat: protocol.HeartbeatPing})
	reply := fd.expect(protocol.DaemonHeartbeat)
	assert.Equal(t, protocol.HeartbeatPong, reply.Heartbeat)
	assert.Equal(t, "hb-app", reply.AppID)

	// An unsolicited pong is answered with a ping.
	fd.send(protocol.DaemonMessage{Type: protocol.DaemonHeartbeat, Heartbeat: protocol.HeartbeatPong})
	reply = fd.expect(protocol.DaemonHeartbeat)
	assert.Equal(t, protocol.HeartbeatPing, reply.Heartbeat)
}

func TestLink_SenderPresence(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url())

	connected := make(chan Snapshot, 1)
	disconnected := make(chan Snapshot, 1)
	link.OnSenderConnected(func(s Snapshot) { connected <- s })
	link.OnSenderDisconnected(func(s Snapshot) { disconnected <- s })

	require.NoError(t, link.Open())
	defer link.Close()
	fd.expect(protocol.DaemonRegister)
	fd.send(protocol.DaemonMessage{Type: protocol.DaemonRegisterOK, ServiceInfo: testServiceInfo()})

	fd.send(protocol.DaemonMessage{Type: protocol.DaemonSenderConnected, Token: "sender-1"})
	select {
	case snap := <-connected:
		assert.Equal(t, 1, snap.Count)
		assert.Equal(t, []string{"sender-1"}, snap.Senders)
	case <-time.After(testTimeout):
		t.Fatal("senderconnected never fired")
	}
	assert.True(t, link.Registry().Has("sender-1"))

	fd.send(protocol.DaemonMessage{Type: protocol.DaemonSenderDisconnected, Token: "sender-1"})
	select {
	case snap := <-disconnected:
		assert.Equal(t, 0, snap.Count)
	case <-time.After(testTimeout):
		t.Fatal("senderdisconnected never fired")
	}
	assert.False(t, link.Registry().Has("sender-1"))
}

func TestLink_GenericMessageEvent(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url())

	messages := make(chan protocol.DaemonMessage, 1)
	link.OnMessage(func(msg protocol.DaemonMessage) { messages <- msg })

	require.NoError(t, link.Open())
	defer link.Close()
	fd.expect(protocol.DaemonRegister)

	fd.send(protocol.DaemonMessage{Type: protocol.DaemonAdditionalData})
	select {
	case msg := <-messages:
		assert.Equal(t, protocol.DaemonAdditionalData, msg.Type)
	case <-time.After(testTimeout):
		t.Fatal("message event never fired")
	}
}

func TestLink_StartHeartbeatIgnored(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url())

	messages := make(chan protocol.DaemonMessage, 1)
	link.OnMessage(func(msg protocol.DaemonMessage) { messages <- msg })

	require.NoError(t, link.Open())
	defer link.Close()
	fd.expect(protocol.DaemonRegister)

	fd.send(protocol.DaemonMessage{Type: protocol.DaemonStartHeartbeat})
	select {
	case <-messages:
		t.Fatal("startheartbeat should not reach the message handler")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLink_CloseSendsUnregister(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url(), WithAppID("bye-app"))

	closed := make(chan struct{}, 1)
	link.OnClosed(func() { closed <- struct{}{} })

	require.NoError(t, link.Open())
	fd.expect(protocol.DaemonRegister)
	fd.send(protocol.DaemonMessage{Type: protocol.DaemonRegisterOK, ServiceInfo: testServiceInfo()})

	require.NoError(t, link.Close())

	unreg := fd.expect(protocol.DaemonUnregister)
	assert.Equal(t, "bye-app", unreg.AppID)

	select {
	case <-closed:
	case <-time.After(testTimeout):
		t.Fatal("closed event never fired")
	}
	assert.Equal(t, StateDisconnected, link.State())
}

func TestLink_SendWithoutSocket(t *testing.T) {
	link := NewLink("ws://127.0.0.1:9/receiver")

	var got *LinkError
	link.OnError(func(err *LinkError) { got = err })

	link.Send(protocol.DaemonMessage{Type: protocol.DaemonAdditionalData})

	// The error fires synchronously; no waiting involved.
	require.NotNil(t, got)
	assert.Equal(t, StateDisconnected, got.SocketState)
	assert.Contains(t, got.Message, "not open")
}

func TestLink_SendWhileConnecting(t *testing.T) {
	fd := newFakeDaemon(t)

	dialing := make(chan struct{})
	release := make(chan struct{})
	dialer := &websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			close(dialing)
			<-release
			return net.Dial(network, addr)
		},
	}
	link := NewLink(fd.url(),
		WithDialer(dialer),
		WithRetryDelay(10*time.Millisecond))

	errs := make(chan *LinkError, 1)
	link.OnError(func(err *LinkError) { errs <- err })

	opened := make(chan error, 1)
	go func() { opened <- link.Open() }()
	t.Cleanup(func() { link.Close() })

	// The dial is in flight; a send issued now must be retried, not lost
	// and not reported as an error.
	select {
	case <-dialing:
	case <-time.After(testTimeout):
		t.Fatal("dial never started")
	}
	link.Send(protocol.DaemonMessage{Type: protocol.DaemonAdditionalData})
	close(release)

	select {
	case err := <-opened:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("open never returned")
	}

	// Register and the queued message both arrive; the retry timer may
	// interleave them either way.
	got := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case msg := <-fd.recv:
			got[msg.Type] = true
		case <-time.After(testTimeout):
			t.Fatalf("timed out, received %v", got)
		}
	}
	assert.True(t, got[protocol.DaemonRegister])
	assert.True(t, got[protocol.DaemonAdditionalData])

	select {
	case err := <-errs:
		t.Fatalf("unexpected error event: %v", err)
	default:
	}
}

func TestLink_DialFailure(t *testing.T) {
	link := NewLink("ws://127.0.0.1:9/receiver")

	errs := make(chan *LinkError, 1)
	link.OnError(func(err *LinkError) { errs <- err })

	err := link.Open()
	require.Error(t, err)
	select {
	case le := <-errs:
		assert.Equal(t, StateDisconnected, le.SocketState)
	case <-time.After(testTimeout):
		t.Fatal("error event never fired")
	}
	assert.Equal(t, StateDisconnected, link.State())
}

func TestLink_MalformedFrameSurvives(t *testing.T) {
	fd := newFakeDaemon(t)
	link := NewLink(fd.url())

	messages := make(chan protocol.DaemonMessage, 1)
	link.OnMessage(func(msg protocol.DaemonMessage) { messages <- msg })

	require.NoError(t, link.Open())
	defer link.Close()
	fd.expect(protocol.DaemonRegister)

	fd.mu.Lock()
	conn := fd.conn
	fd.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// The link keeps reading after the bad frame.
	fd.send(protocol.DaemonMessage{Type: protocol.DaemonAdditionalData})
	select {
	case msg := <-messages:
		assert.Equal(t, protocol.DaemonAdditionalData, msg.Type)
	case <-time.After(testTimeout):
		t.Fatal("link stopped reading after malformed frame")
	}
}
