package player

import (
	"sync"
	"time"
)

// SimulatedSurface is a headless media surface for running the receiver
// without a renderer. Loads report metadata after a short delay and
// control operations echo the events a real surface would produce, which
// is enough to exercise the full protocol path end to end.
type SimulatedSurface struct {
	loadDelay time.Duration
	events    chan Event

	mu           sync.Mutex
	url          string
	currentTime  float64
	duration     float64
	playbackRate float64
	volume       float64
	muted        bool
	playing      bool
}

// NewSimulatedSurface returns a simulated surface whose loads become
// ready after loadDelay. Loaded media reports the given duration in
// seconds; zero or negative defaults to two minutes.
func NewSimulatedSurface(loadDelay time.Duration, duration float64) *SimulatedSurface {
	if duration <= 0 {
		duration = 120
	}
	return &SimulatedSurface{
		loadDelay:    loadDelay,
		duration:     duration,
		playbackRate: 1,
		volume:       1,
		events:       make(chan Event, 32),
	}
}

func (s *SimulatedSurface) emit(kind EventKind) {
	s.events <- Event{Kind: kind}
}

// Load resets the playhead and schedules the metadata-ready transition.
func (s *SimulatedSurface) Load(url, contentType string, autoplay bool) {
	s.mu.Lock()
	s.url = url
	s.currentTime = 0
	s.playing = false
	s.mu.Unlock()

	s.emit(EventEmptied)
	time.AfterFunc(s.loadDelay, func() {
		s.emit(EventMetadataReady)
		s.emit(EventCanPlay)
		if autoplay {
			s.Play()
		}
	})
}

func (s *SimulatedSurface) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	s.emit(EventPlay)
	s.emit(EventPlaying)
}

func (s *SimulatedSurface) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	s.emit(EventPause)
}

func (s *SimulatedSurface) Seek(seconds float64) {
	s.mu.Lock()
	s.currentTime = seconds
	s.mu.Unlock()
	s.emit(EventSeeked)
}

func (s *SimulatedSurface) SetVolume(level float64) {
	s.mu.Lock()
	s.volume = level
	s.mu.Unlock()
	s.emit(EventVolumeChange)
}

func (s *SimulatedSurface) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

func (s *SimulatedSurface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *SimulatedSurface) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playbackRate
}

func (s *SimulatedSurface) Volume() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.muted
}

func (s *SimulatedSurface) Events() <-chan Event {
	return s.events
}
