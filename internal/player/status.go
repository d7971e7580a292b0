package player

import (
	"sync"

	"github.com/flingware/flingrecv/internal/protocol"
)

// Status is the readiness of the media surface to accept control
// commands. It is independent of the reported player state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	default:
		return "idle"
	}
}

// RequestKind names the command slots request identifiers are tracked
// under.
type RequestKind int

const (
	ReqLoad RequestKind = iota
	ReqPause
	ReqPlay
	ReqSetVolume
	ReqSeek
	ReqPing
	ReqGetStatus
)

// PlayerStatus is the central mutable playback state: readiness, reported
// player state, loaded media metadata and the per-command request
// identifier bookkeeping used to correlate status reports with the
// commands that triggered them. There is exactly one per session.
type PlayerStatus struct {
	mu          sync.Mutex
	status      Status
	playerState string
	media       *protocol.MediaInfo
	requests    map[RequestKind]int
	current     int
}

// NewPlayerStatus returns the initial state: idle and nothing loaded.
func NewPlayerStatus() *PlayerStatus {
	return &PlayerStatus{
		status:      StatusIdle,
		playerState: protocol.PlayerStateIdle,
		requests:    make(map[RequestKind]int),
	}
}

// Status returns the current readiness.
func (ps *PlayerStatus) Status() Status {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.status
}

// SetStatus updates the readiness.
func (ps *PlayerStatus) SetStatus(s Status) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.status = s
}

// PlayerState returns the reported playback state.
func (ps *PlayerStatus) PlayerState() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.playerState
}

// SetPlayerState updates the reported playback state.
func (ps *PlayerStatus) SetPlayerState(state string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.playerState = state
}

// Media returns the metadata of the last LOAD, or nil before any load.
func (ps *PlayerStatus) Media() *protocol.MediaInfo {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.media
}

// SetMedia records the metadata carried by a LOAD command.
func (ps *PlayerStatus) SetMedia(media *protocol.MediaInfo) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.media = media
}

// StoreRequestID persists a request identifier for a command kind. A zero
// identifier means the sender requested no correlation and must not
// overwrite a previously stored one.
func (ps *PlayerStatus) StoreRequestID(kind RequestKind, id int) {
	if id == 0 {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.requests[kind] = id
}

// RequestID returns the last stored identifier for a command kind, or 0.
func (ps *PlayerStatus) RequestID(kind RequestKind) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.requests[kind]
}

// SetCurrentRequestID records the identifier of the envelope currently
// being processed. It is transient and overwritten per inbound message.
func (ps *PlayerStatus) SetCurrentRequestID(id int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.current = id
}

// CurrentRequestID returns the identifier of the envelope most recently
// processed.
func (ps *PlayerStatus) CurrentRequestID() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.current
}
