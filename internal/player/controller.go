package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/flingware/flingrecv/internal/protocol"
)

// ErrNoSurface is returned when a controller is constructed without a
// media surface. This is the one misconfiguration that fails fast; every
// later failure is recovered into state transitions and reports.
var ErrNoSurface = errors.New("player: no media surface")

// Controller owns the media surface and the playback state machine.
// Control commands arriving while a load is in flight are deferred in
// arrival order and drained when the surface reports metadata, so no
// command issued during a load is lost.
type Controller struct {
	surface  Surface
	status   *PlayerStatus
	reporter *Reporter
	logger   *slog.Logger

	mu      sync.Mutex
	pending []func()
}

// NewController creates the playback controller. The surface is required.
func NewController(surface Surface, status *PlayerStatus, reporter *Reporter, logger *slog.Logger) (*Controller, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		surface:  surface,
		status:   status,
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Load replaces the current media. A load supersedes any in-flight load:
// commands deferred for the previous one are discarded.
func (c *Controller) Load(media *protocol.MediaInfo) {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	c.status.SetMedia(media)
	c.status.SetStatus(StatusLoading)
	c.surface.Load(media.ContentID, media.ContentType, true)
	c.logger.Info("load", "contentId", media.ContentID, "contentType", media.ContentType)
}

// Play resumes playback once the surface is ready.
func (c *Controller) Play() {
	c.gate(func() { c.surface.Play() })
}

// Pause pauses playback once the surface is ready.
func (c *Controller) Pause() {
	c.gate(func() { c.surface.Pause() })
}

// Seek moves the playhead. Targets outside [0, duration] are ignored, so
// an out-of-range seek changes nothing and triggers no report.
func (c *Controller) Seek(seconds float64) {
	c.gate(func() {
		if seconds < 0 || seconds > c.surface.Duration() {
			c.logger.Debug("seek out of range", "seconds", seconds, "duration", c.surface.Duration())
			return
		}
		c.surface.Seek(seconds)
	})
}

// SetVolume sets the surface volume to a normalized level.
func (c *Controller) SetVolume(level float64) {
	c.gate(func() { c.surface.SetVolume(level) })
}

// gate applies the synchronized-execute policy: ready surfaces execute
// immediately, idle surfaces have nothing to control, and loading
// surfaces defer the operation until readiness.
func (c *Controller) gate(op func()) {
	c.mu.Lock()
	switch c.status.Status() {
	case StatusReady:
		c.mu.Unlock()
		op()
	case StatusLoading:
		c.pending = append(c.pending, op)
		c.mu.Unlock()
	default:
		c.mu.Unlock()
	}
}

// HandleEvent maps a media-surface event onto state transitions and
// status reports.
func (c *Controller) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventEmptied:
		c.reporter.Idle(protocol.IdleReasonNone)

	case EventMetadataReady:
		c.mu.Lock()
		c.status.SetStatus(StatusReady)
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, op := range pending {
			op()
		}
		c.reporter.LoadMetadata()

	case EventPlay, EventPlaying:
		c.status.SetPlayerState(protocol.PlayerStatePlaying)
		c.reporter.Playing()

	case EventWaiting:
		c.reporter.Buffering()

	case EventPause:
		c.status.SetPlayerState(protocol.PlayerStatePaused)
		c.reporter.Paused()

	case EventEnded:
		c.reporter.Idle(protocol.IdleReasonFinished)

	case EventVolumeChange:
		c.reporter.Sync(TagVolumeChange)

	case EventSeeked:
		c.reporter.Sync(TagSeeked)

	case EventCanPlay:
		c.reporter.Sync("")

	case EventError:
		c.reporter.Idle(protocol.IdleReasonError)

	case EventAbort:
		c.reporter.Idle(protocol.IdleReasonInterrupted)

	default:
		c.logger.Debug("unhandled surface event", "kind", ev.Kind)
	}
}

// Run consumes the surface event stream until the context is cancelled or
// the stream closes.
func (c *Controller) Run(ctx context.Context) {
	events := c.surface.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}
