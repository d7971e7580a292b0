package player

import (
	"log/slog"

	"github.com/flingware/flingrecv/internal/protocol"
)

// Router decodes inbound transport envelopes into typed commands, keeps
// the request identifier bookkeeping, and dispatches to the controller.
// Structurally malformed messages are dropped with a log line; the
// channel itself is never torn down over a bad frame.
type Router struct {
	controller *Controller
	reporter   *Reporter
	status     *PlayerStatus
	logger     *slog.Logger
}

// NewRouter wires a router to the controller and reporter sharing the
// given player status.
func NewRouter(controller *Controller, reporter *Reporter, status *PlayerStatus, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		controller: controller,
		reporter:   reporter,
		status:     status,
		logger:     logger,
	}
}

// HandleEnvelope processes one inbound transport envelope from the
// session channel. Only message-typed envelopes carry commands; sender
// presence notifications on the channel are observed elsewhere.
func (r *Router) HandleEnvelope(env protocol.TransportEnvelope) {
	if env.Type != protocol.EnvelopeMessage {
		return
	}

	inner, err := protocol.ParseMessage(env.Data)
	if err != nil {
		r.logger.Warn("drop malformed envelope", "error", err)
		return
	}
	r.status.SetCurrentRequestID(inner.RequestID)

	cmd, err := protocol.DecodeCommand(inner.Data)
	if err != nil {
		r.logger.Warn("drop malformed command", "error", err)
		return
	}

	switch cmd.Type {
	case protocol.CommandLoad:
		r.status.StoreRequestID(ReqLoad, inner.RequestID)
		if cmd.Media == nil {
			r.logger.Warn("drop LOAD without media")
			return
		}
		r.controller.Load(cmd.Media)

	case protocol.CommandPause:
		r.status.StoreRequestID(ReqPause, inner.RequestID)
		r.controller.Pause()

	case protocol.CommandPlay:
		r.status.StoreRequestID(ReqPlay, inner.RequestID)
		r.controller.Play()

	case protocol.CommandSetVolume:
		r.status.StoreRequestID(ReqSetVolume, inner.RequestID)
		if cmd.Volume == nil {
			r.logger.Warn("drop SET_VOLUME without volume")
			return
		}
		r.controller.SetVolume(cmd.Volume.Level)

	case protocol.CommandSeek:
		r.status.StoreRequestID(ReqSeek, inner.RequestID)
		r.controller.Seek(cmd.CurrentTime)

	case protocol.CommandPing:
		r.status.StoreRequestID(ReqPing, inner.RequestID)
		r.reporter.Pong()

	case protocol.CommandGetStatus:
		r.status.StoreRequestID(ReqGetStatus, inner.RequestID)
		r.reporter.Sync("")

	default:
		// Unknown command types are skipped for forward compatibility.
		r.logger.Debug("skip unrecognized command", "type", string(cmd.Type))
	}
}
