// Package daemon maintains the receiver's persistent connection to the
// local fling daemon: registration, bidirectional heartbeat and sender
// presence tracking.
package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flingware/flingrecv/internal/protocol"
)

// ConnState is the daemon connection lifecycle state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateRegistering
	StateRegistered
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	default:
		return "disconnected"
	}
}

// DefaultAppID identifies unbranded receivers to the daemon.
const DefaultAppID = "~browser"

// defaultRetryDelay is the pause before re-attempting a send issued while
// the registration handshake is still in flight.
const defaultRetryDelay = 50 * time.Millisecond

// LinkError describes a transport failure. It is delivered through the
// error handler rather than returned from Send.
type LinkError struct {
	Message     string
	SocketState ConnState
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s (socket %s)", e.Message, e.SocketState)
}

// Link is the connection to the local fling daemon. It owns exactly one
// socket and does not reconnect on its own; the supervising session calls
// Open again after a closure.
type Link struct {
	url        string
	appID      string
	dialer     *websocket.Dialer
	retryDelay time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	state   ConnState
	closing bool
	info    protocol.ServiceInfo

	writeMu sync.Mutex

	registry *SenderRegistry

	handlerMu          sync.RWMutex
	onOpened           func(protocol.ServiceInfo)
	onClosed           func()
	onMessage          func(protocol.DaemonMessage)
	onError            func(*LinkError)
	onSenderConnected  func(Snapshot)
	onSenderDisconnect func(Snapshot)
}

// Option configures a Link.
type Option func(*Link)

// WithAppID sets the application id stamped on every outbound message.
func WithAppID(appID string) Option {
	return func(l *Link) {
		if appID != "" {
			l.appID = appID
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Link) { l.dialer = d }
}

// WithLogger sets the link logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Link) { l.logger = logger }
}

// WithRetryDelay sets the delay between send retries during the handshake.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Link) { l.retryDelay = d }
}

// NewLink creates a link to the daemon endpoint, e.g.
// ws://127.0.0.1:9431/receiver.
func NewLink(url string, opts ...Option) *Link {
	l := &Link{
		url:        url,
		appID:      DefaultAppID,
		dialer:     websocket.DefaultDialer,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
		registry:   NewSenderRegistry(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnOpened registers the handler fired once registration completes.
func (l *Link) OnOpened(fn func(protocol.ServiceInfo)) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onOpened = fn
}

// OnClosed registers the handler fired when the socket closes.
func (l *Link) OnClosed(fn func()) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onClosed = fn
}

// OnMessage registers the handler for daemon messages with no dedicated
// handling, such as additionaldata acknowledgements.
func (l *Link) OnMessage(fn func(protocol.DaemonMessage)) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onMessage = fn
}

// OnError registers the transport error handler.
func (l *Link) OnError(fn func(*LinkError)) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onError = fn
}

// OnSenderConnected registers the handler fired with a registry snapshot
// when a sender connects.
func (l *Link) OnSenderConnected(fn func(Snapshot)) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onSenderConnected = fn
}

// OnSenderDisconnected registers the handler fired with a registry
// snapshot when a sender disconnects.
func (l *Link) OnSenderDisconnected(fn func(Snapshot)) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.onSenderDisconnect = fn
}

// State returns the current connection state.
func (l *Link) State() ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ServiceInfo returns the identity captured from the daemon's registerok
// acknowledgement. Zero until the link has registered.
func (l *Link) ServiceInfo() protocol.ServiceInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.info
}

// Registry returns the sender presence registry.
func (l *Link) Registry() *SenderRegistry {
	return l.registry
}

// Open establishes the daemon connection and starts the registration
// handshake. It is a no-op while a connection is being established or is
// already up. Dial failures are reported through the error handler as
// well as returned.
func (l *Link) Open() error {
	l.mu.Lock()
	if l.state != StateDisconnected {
		l.mu.Unlock()
		return nil
	}
	l.state = StateConnecting
	l.closing = false
	l.mu.Unlock()

	conn, _, err := l.dialer.Dial(l.url, nil)
	if err != nil {
		l.mu.Lock()
		l.state = StateDisconnected
		l.mu.Unlock()
		l.emitError(&LinkError{
			Message:     fmt.Sprintf("daemon dial %s: %v", l.url, err),
			SocketState: StateDisconnected,
		})
		return fmt.Errorf("daemon dial %s: %w", l.url, err)
	}

	l.mu.Lock()
	l.conn = conn
	l.state = StateRegistering
	l.mu.Unlock()

	go l.readLoop(conn)

	if err := l.write(protocol.DaemonMessage{Type: protocol.DaemonRegister}); err != nil {
		return fmt.Errorf("send register: %w", err)
	}
	l.logger.Debug("daemon register sent", "url", l.url, "appid", l.appID)
	return nil
}

// Send transmits a message to the daemon, stamping the application id.
// While the registration handshake is in flight the send is retried on a
// short timer; with no usable socket the error handler fires synchronously.
func (l *Link) Send(msg protocol.DaemonMessage) {
	l.mu.Lock()
	state := l.state
	l.mu.Unlock()

	switch state {
	case StateRegistered, StateRegistering:
		if err := l.write(msg); err != nil {
			l.emitError(&LinkError{Message: err.Error(), SocketState: state})
		}
	case StateConnecting:
		time.AfterFunc(l.retryDelay, func() { l.Send(msg) })
	default:
		l.emitError(&LinkError{
			Message:     "underlying websocket is not open",
			SocketState: state,
		})
	}
}

// Close sends a best-effort unregister notification and tears the
// connection down. The closed handler fires once the read loop exits.
func (l *Link) Close() error {
	l.mu.Lock()
	conn := l.conn
	if conn == nil {
		l.mu.Unlock()
		return nil
	}
	l.closing = true
	l.mu.Unlock()

	_ = l.write(protocol.DaemonMessage{Type: protocol.DaemonUnregister})
	return conn.Close()
}

func (l *Link) write(msg protocol.DaemonMessage) error {
	msg.AppID = l.appID

	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("underlying websocket is not open")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode daemon message: %w", err)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (l *Link) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			l.mu.Lock()
			closing := l.closing
			if l.conn == conn {
				l.conn = nil
				l.state = StateDisconnected
			}
			l.mu.Unlock()

			if !closing {
				l.emitError(&LinkError{
					Message:     fmt.Sprintf("daemon socket closed: %v", err),
					SocketState: StateDisconnected,
				})
			}
			l.emitClosed()
			return
		}

		var msg protocol.DaemonMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// A single malformed frame must not take the link down.
			l.logger.Warn("malformed daemon message", "error", err)
			continue
		}
		l.dispatch(msg)
	}
}

func (l *Link) dispatch(msg protocol.DaemonMessage) {
	switch msg.Type {
	case protocol.DaemonRegisterOK:
		l.mu.Lock()
		registering := l.state == StateRegistering
		if registering {
			l.state = StateRegistered
			if msg.ServiceInfo != nil {
				l.info = *msg.ServiceInfo
			}
		}
		info := l.info
		l.mu.Unlock()
		if registering {
			l.logger.Info("daemon registered",
				"ip", info.LocalIP(), "device", info.DeviceName)
			l.emitOpened(info)
		}

	case protocol.DaemonStartHeartbeat:
		// The daemon drives heartbeat cadence; nothing to start here.

	case protocol.DaemonHeartbeat:
		reply := protocol.HeartbeatPing
		if msg.Heartbeat == protocol.HeartbeatPing {
			reply = protocol.HeartbeatPong
		}
		l.Send(protocol.DaemonMessage{
			Type:      protocol.DaemonHeartbeat,
			Heartbeat: reply,
		})

	case protocol.DaemonSenderConnected:
		l.registry.Add(msg.Token, time.Now())
		l.emitSenderConnected(l.registry.Snapshot())

	case protocol.DaemonSenderDisconnected:
		l.registry.Remove(msg.Token)
		l.emitSenderDisconnected(l.registry.Snapshot())

	default:
		l.emitMessage(msg)
	}
}

func (l *Link) emitOpened(info protocol.ServiceInfo) {
	l.handlerMu.RLock()
	fn := l.onOpened
	l.handlerMu.RUnlock()
	if fn != nil {
		fn(info)
	}
}

func (l *Link) emitClosed() {
	l.handlerMu.RLock()
	fn := l.onClosed
	l.handlerMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (l *Link) emitMessage(msg protocol.DaemonMessage) {
	l.handlerMu.RLock()
	fn := l.onMessage
	l.handlerMu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}

func (l *Link) emitError(err *LinkError) {
	l.handlerMu.RLock()
	fn := l.onError
	l.handlerMu.RUnlock()
	if fn != nil {
		fn(err)
		return
	}
	l.logger.Error("daemon link error", "error", err.Message, "socket", err.SocketState)
}

func (l *Link) emitSenderConnected(snap Snapshot) {
	l.handlerMu.RLock()
	fn := l.onSenderConnected
	l.handlerMu.RUnlock()
	if fn != nil {
		fn(snap)
	}
}

func (l *Link) emitSenderDisconnected(snap Snapshot) {
	l.handlerMu.RLock()
	fn := l.onSenderDisconnect
	l.handlerMu.RUnlock()
	if fn != nil {
		fn(snap)
	}
}
