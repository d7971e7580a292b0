// Package receiver wires a playback session together: one daemon link,
// one session channel keyed by a generated token, and one playback
// controller. A receiver hosts a single session for its lifetime; the
// token is never reused after teardown.
package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flingware/flingrecv/internal/channel"
	"github.com/flingware/flingrecv/internal/daemon"
	"github.com/flingware/flingrecv/internal/player"
	"github.com/flingware/flingrecv/internal/protocol"
)

// Config locates the local daemon and names the receiver application.
type Config struct {
	// DaemonHost is the daemon address, default 127.0.0.1.
	DaemonHost string
	// DaemonPort is the registration endpoint port, default 9431.
	DaemonPort int
	// ChannelPort is the session channel port, default 9439.
	ChannelPort int
	// AppID identifies the receiver application to the daemon.
	AppID string
}

func (c Config) withDefaults() Config {
	if c.DaemonHost == "" {
		c.DaemonHost = "127.0.0.1"
	}
	if c.DaemonPort == 0 {
		c.DaemonPort = 9431
	}
	if c.ChannelPort == 0 {
		c.ChannelPort = 9439
	}
	return c
}

// Session identifies one playback session.
type Session struct {
	Token     string
	CreatedAt time.Time
}

// Receiver owns the session lifetime: it registers with the daemon,
// publishes the session channel address once registration completes, and
// pumps media-surface events through the controller.
type Receiver struct {
	cfg     Config
	session Session
	logger  *slog.Logger

	link       *daemon.Link
	channel    *channel.Channel
	status     *player.PlayerStatus
	reporter   *player.Reporter
	controller *player.Controller
	router     *player.Router
}

// Option configures a Receiver.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger shared by the session's components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New assembles a receiver around the given media surface.
func New(cfg Config, surface player.Surface, opts ...Option) (*Receiver, error) {
	cfg = cfg.withDefaults()

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	session := Session{Token: uuid.NewString(), CreatedAt: time.Now()}

	link := daemon.NewLink(
		fmt.Sprintf("ws://%s:%d/receiver", cfg.DaemonHost, cfg.DaemonPort),
		daemon.WithAppID(cfg.AppID),
		daemon.WithLogger(o.logger),
	)
	ch := channel.New(
		channel.URLFor(cfg.DaemonHost, cfg.ChannelPort, session.Token),
		channel.WithLogger(o.logger),
	)

	status := player.NewPlayerStatus()
	reporter := player.NewReporter(surface, status, ch.Send, o.logger)
	controller, err := player.NewController(surface, status, reporter, o.logger)
	if err != nil {
		return nil, err
	}
	router := player.NewRouter(controller, reporter, status, o.logger)

	r := &Receiver{
		cfg:        cfg,
		session:    session,
		logger:     o.logger,
		link:       link,
		channel:    ch,
		status:     status,
		reporter:   reporter,
		controller: controller,
		router:     router,
	}

	// Once registration completes, advertise the session channel address
	// so senders can find this receiver.
	link.OnOpened(func(info protocol.ServiceInfo) {
		addr := channel.URLFor(info.LocalIP(), cfg.ChannelPort, session.Token)
		r.logger.Info("session channel published", "address", addr)
		link.Send(protocol.DaemonMessage{
			Type:           protocol.DaemonAdditionalData,
			AdditionalData: map[string]string{"serverId": addr},
		})
	})
	ch.OnMessage(router.HandleEnvelope)

	return r, nil
}

// Session returns the session identity.
func (r *Receiver) Session() Session {
	return r.session
}

// Link exposes the daemon link so an embedding application can observe
// presence and lifecycle events.
func (r *Receiver) Link() *daemon.Link {
	return r.link
}

// Run opens the daemon link and the session channel, then pumps surface
// events until the context is cancelled. Neither socket reconnects by
// itself; callers wanting resilience re-run the receiver.
func (r *Receiver) Run(ctx context.Context) error {
	if err := r.link.Open(); err != nil {
		return err
	}
	if err := r.channel.Open(); err != nil {
		_ = r.link.Close()
		return err
	}

	r.controller.Run(ctx)
	return nil
}

// Close tears the session down: channel first, then a best-effort
// unregister on the daemon link.
func (r *Receiver) Close() error {
	chErr := r.channel.Close()
	linkErr := r.link.Close()
	if chErr != nil {
		return chErr
	}
	return linkErr
}
