// Package channel implements the per-session duplex message channel a
// receiver shares with its senders. The channel carries opaque payloads in
// transport envelopes; decoding them is the router's job, which lets the
// same channel move media status, heartbeat replies and anything else a
// session needs.
package channel

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flingware/flingrecv/internal/protocol"
)

// defaultRetryDelay is the pause before re-attempting a send issued while
// the channel socket is still connecting.
const defaultRetryDelay = 50 * time.Millisecond

// ChannelError describes a transport failure on the session channel.
type ChannelError struct {
	Message string
}

func (e *ChannelError) Error() string { return e.Message }

// Channel is the session message channel, addressed by the session token
// its URL carries, e.g. ws://127.0.0.1:9439/channels/<token>.
type Channel struct {
	url        string
	dialer     *websocket.Dialer
	retryDelay time.Duration
	logger     *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closing    bool
	senderID   string

	writeMu sync.Mutex

	handlerMu sync.RWMutex
	onMessage func(protocol.TransportEnvelope)
	onError   func(*ChannelError)
	onClosed  func()
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger sets the channel logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

// WithRetryDelay sets the delay between send retries while connecting.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) { c.retryDelay = d }
}

// New creates a channel for the given websocket URL. URLFor builds the
// conventional channel URL from a host and session token.
func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:        url,
		dialer:     websocket.DefaultDialer,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URLFor returns the channel endpoint for a session token on the given
// daemon host and channel port.
func URLFor(host string, port int, token string) string {
	return fmt.Sprintf("ws://%s:%d/channels/%s", host, port, token)
}

// OnMessage registers the handler invoked with each parsed inbound
// transport envelope.
func (c *Channel) OnMessage(fn func(protocol.TransportEnvelope)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onMessage = fn
}

// OnError registers the transport error handler.
func (c *Channel) OnError(fn func(*ChannelError)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onError = fn
}

// OnClosed registers the handler fired when the socket closes.
func (c *Channel) OnClosed(fn func()) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onClosed = fn
}

// SenderID returns the most recently seen originating sender, or the empty
// string before any sender has spoken.
func (c *Channel) SenderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senderID
}

// Open dials the channel endpoint. It is a no-op if the channel is already
// connecting or connected.
func (c *Channel) Open() error {
	c.mu.Lock()
	if c.conn != nil || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.closing = false
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	c.connecting = false
	if err != nil {
		c.mu.Unlock()
		c.emitError(&ChannelError{Message: fmt.Sprintf("channel dial %s: %v", c.url, err)})
		return fmt.Errorf("channel dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Send wraps payload in a transport envelope and transmits it. The
// envelope is addressed to the last-known sender, or to every sender when
// broadcast is set. Sends issued while the socket is connecting are
// retried on a short timer; with no usable socket the error handler fires
// synchronously.
func (c *Channel) Send(payload string, broadcast bool) {
	c.mu.Lock()
	conn := c.conn
	connecting := c.connecting
	senderID := c.senderID
	c.mu.Unlock()

	if conn == nil {
		if connecting {
			time.AfterFunc(c.retryDelay, func() { c.Send(payload, broadcast) })
			return
		}
		c.emitError(&ChannelError{Message: "underlying websocket is not open"})
		return
	}

	env := protocol.TransportEnvelope{SenderID: senderID, Data: payload}
	if broadcast {
		env.SenderID = protocol.BroadcastAddress
	}

	raw, err := json.Marshal(env)
	if err != nil {
		c.emitError(&ChannelError{Message: fmt.Sprintf("encode envelope: %v", err)})
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, raw)
	c.writeMu.Unlock()
	if err != nil {
		c.emitError(&ChannelError{Message: fmt.Sprintf("channel write: %v", err)})
	}
}

// Close tears down the channel socket.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.mu.Unlock()
	return conn.Close()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if !closing {
				c.emitError(&ChannelError{Message: fmt.Sprintf("channel socket closed: %v", err)})
			}
			c.emitClosed()
			return
		}

		var env protocol.TransportEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// Drop the frame, keep the channel.
			c.logger.Warn("malformed channel message", "error", err)
			continue
		}

		if env.SenderID != "" {
			c.mu.Lock()
			c.senderID = env.SenderID
			c.mu.Unlock()
		}

		c.emitMessage(env)
	}
}

func (c *Channel) emitMessage(env protocol.TransportEnvelope) {
	c.handlerMu.RLock()
	fn := c.onMessage
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(env)
	}
}

func (c *Channel) emitError(err *ChannelError) {
	c.handlerMu.RLock()
	fn := c.onError
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(err)
		return
	}
	c.logger.Error("session channel error", "error", err.Message)
}

func (c *Channel) emitClosed() {
	c.handlerMu.RLock()
	fn := c.onClosed
	c.handlerMu.RUnlock()
	if fn != nil {
		fn()
	}
}
