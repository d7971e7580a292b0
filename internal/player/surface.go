// Package player contains the playback state machine: it decodes sender
// commands, drives the media surface, and turns surface events into
// outbound status reports.
package player

// EventKind identifies a media-surface event.
type EventKind int

const (
	EventEmptied EventKind = iota
	EventMetadataReady
	EventPlay
	EventPlaying
	EventWaiting
	EventPause
	EventEnded
	EventVolumeChange
	EventSeeked
	EventCanPlay
	EventError
	EventAbort
)

func (k EventKind) String() string {
	switch k {
	case EventEmptied:
		return "emptied"
	case EventMetadataReady:
		return "metadataready"
	case EventPlay:
		return "play"
	case EventPlaying:
		return "playing"
	case EventWaiting:
		return "waiting"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventVolumeChange:
		return "volumechange"
	case EventSeeked:
		return "seeked"
	case EventCanPlay:
		return "canplay"
	case EventError:
		return "error"
	case EventAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Event is a media-surface notification.
type Event struct {
	Kind EventKind
}

// Surface is the external video/audio rendering collaborator. The
// controller is its only writer; implementations surface their state
// transitions on the Events stream.
type Surface interface {
	// Load replaces the current source. With autoplay set, playback
	// starts as soon as the surface is able.
	Load(url, contentType string, autoplay bool)
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(level float64)

	CurrentTime() float64
	Duration() float64
	PlaybackRate() float64
	Volume() (level float64, muted bool)

	// Events delivers surface transitions in the order they occur.
	Events() <-chan Event
}
