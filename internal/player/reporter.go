package player

import (
	"log/slog"

	"github.com/flingware/flingrecv/internal/protocol"
)

// SendFunc transmits a wrapped application envelope on the session
// channel. broadcast addresses every sender instead of the last-known one.
type SendFunc func(payload string, broadcast bool)

// Report kind tags selecting which stored request identifier stamps a
// state-sync report.
const (
	TagSeeked       = "seeked"
	TagVolumeChange = "volumechange"
)

// Reporter builds outbound status and heartbeat envelopes from the
// current player status and hands them to the session channel. Reports
// are fire-and-forget; transmission failures surface on the channel's
// error handler, not here.
type Reporter struct {
	surface Surface
	status  *PlayerStatus
	send    SendFunc
	logger  *slog.Logger
}

// NewReporter creates a reporter over the given surface and status,
// transmitting through send.
func NewReporter(surface Surface, status *PlayerStatus, send SendFunc, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{surface: surface, status: status, send: send, logger: logger}
}

// snapshot captures the surface timing and volume common to every report.
func (r *Reporter) snapshot() protocol.MediaStatus {
	level, muted := r.surface.Volume()
	return protocol.MediaStatus{
		MediaSessionID:         protocol.MediaSessionID,
		PlaybackRate:           r.surface.PlaybackRate(),
		CurrentTime:            r.surface.CurrentTime(),
		Duration:               r.surface.Duration(),
		SupportedMediaCommands: protocol.SupportedMediaCommands,
		Volume:                 protocol.Volume{Level: level, Muted: muted},
	}
}

// mediaBlock returns the last-loaded media with its duration refreshed
// from the surface, or nil before any load.
func (r *Reporter) mediaBlock() *protocol.MediaInfo {
	media := r.status.Media()
	if media == nil {
		return nil
	}
	block := *media
	block.Duration = r.surface.Duration()
	return &block
}

func (r *Reporter) emit(msg protocol.StatusMessage) {
	payload, err := protocol.Wrap(protocol.NamespaceMedia, msg)
	if err != nil {
		r.logger.Error("build status report", "error", err)
		return
	}
	r.send(payload, false)
}

// Idle reports an IDLE player state with the given reason.
func (r *Reporter) Idle(reason string) {
	st := r.snapshot()
	st.PlayerState = protocol.PlayerStateIdle
	st.IdleReason = reason
	st.Media = r.mediaBlock()
	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: r.status.CurrentRequestID(),
	})
}

// LoadMetadata reports that the surface has metadata and playback is
// starting; autoplay follows a load, so the state is reported PLAYING.
// The report is stamped with the LOAD request identifier.
func (r *Reporter) LoadMetadata() {
	st := r.snapshot()
	st.PlayerState = protocol.PlayerStatePlaying
	st.Media = r.mediaBlock()
	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: r.status.RequestID(ReqLoad),
	})
}

// Playing reports a PLAYING state, stamped with the PLAY request
// identifier.
func (r *Reporter) Playing() {
	st := r.snapshot()
	st.PlayerState = protocol.PlayerStatePlaying
	st.Media = r.mediaBlock()
	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: r.status.RequestID(ReqPlay),
	})
}

// Paused reports a PAUSED state, stamped with the PAUSE request
// identifier.
func (r *Reporter) Paused() {
	st := r.snapshot()
	st.PlayerState = protocol.PlayerStatePaused
	st.Media = r.mediaBlock()
	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: r.status.RequestID(ReqPause),
	})
}

// Buffering reports a BUFFERING state. The stored player state is left
// untouched; buffering is a surface condition, not a commanded state.
func (r *Reporter) Buffering() {
	st := r.snapshot()
	st.PlayerState = protocol.PlayerStateBuffering
	st.Media = r.mediaBlock()
	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: r.status.CurrentRequestID(),
	})
}

// Sync reports the current player state as-is. The tag selects the
// request identifier slot: TagSeeked uses the SEEK slot, TagVolumeChange
// the SET_VOLUME slot, anything else the current identifier. The report
// may fire from a surface event unrelated to the tagged command; that
// loose coupling is part of the protocol.
func (r *Reporter) Sync(tag string) {
	st := r.snapshot()
	st.PlayerState = r.status.PlayerState()
	st.Media = r.mediaBlock()

	requestID := r.status.CurrentRequestID()
	switch tag {
	case TagSeeked:
		requestID = r.status.RequestID(ReqSeek)
	case TagVolumeChange:
		requestID = r.status.RequestID(ReqSetVolume)
	}

	r.emit(protocol.StatusMessage{
		Type:      protocol.TypeMediaStatus,
		Status:    []protocol.MediaStatus{st},
		RequestID: requestID,
	})
}

// Pong replies to a PING command on the heartbeat namespace. No request
// identifier is carried; heartbeats are uncorrelated.
func (r *Reporter) Pong() {
	payload, err := protocol.Wrap(protocol.NamespaceHeartbeat, protocol.PongMessage{Type: protocol.TypePong})
	if err != nil {
		r.logger.Error("build pong", "error", err)
		return
	}
	r.send(payload, false)
}
