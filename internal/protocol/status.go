package protocol

// Player states reported to senders.
const (
	PlayerStateIdle      = "IDLE"
	PlayerStatePlaying   = "PLAYING"
	PlayerStatePaused    = "PAUSED"
	PlayerStateBuffering = "BUFFERING"
)

// Idle reasons attached to IDLE reports.
const (
	IdleReasonNone        = "NONE"
	IdleReasonFinished    = "FINISHED"
	IdleReasonError       = "ERROR"
	IdleReasonInterrupted = "INTERRUPTED"
)

// TypeMediaStatus is the payload type of outbound status reports.
const TypeMediaStatus = "MEDIA_STATUS"

// TypePong is the payload type of heartbeat replies to PING commands.
const TypePong = "PONG"

// SupportedMediaCommands is the fixed capability bitmask advertised in
// every status report: pause, seek, stream volume and stream mute.
const SupportedMediaCommands = 15

// MediaSessionID is fixed at 1; the receiver handles a single session.
const MediaSessionID = 1

// StatusMessage is the body of an outbound MEDIA_STATUS report.
type StatusMessage struct {
	Type      string        `json:"type"`
	Status    []MediaStatus `json:"status"`
	RequestID int           `json:"requestId"`
}

// MediaStatus is a single playback status entry.
type MediaStatus struct {
	MediaSessionID         int        `json:"mediaSessionId"`
	PlaybackRate           float64    `json:"playbackRate"`
	CurrentTime            float64    `json:"currentTime"`
	Duration               float64    `json:"duration"`
	SupportedMediaCommands int        `json:"supportedMediaCommands"`
	Volume                 Volume     `json:"volume"`
	PlayerState            string     `json:"playerState"`
	IdleReason             string     `json:"idleReason,omitempty"`
	Media                  *MediaInfo `json:"media,omitempty"`
}

// PongMessage is the heartbeat reply sent in response to a PING command.
// It travels on the heartbeat namespace, not the media namespace.
type PongMessage struct {
	Type string `json:"type"`
}
