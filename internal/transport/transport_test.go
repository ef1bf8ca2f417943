package transport

import (
	"sync"

	"fleetwatch/internal/domain"
)

// stubIngestor records pushed events and signals arrival for tests that
// race against pump goroutines.
type stubIngestor struct {
	mu     sync.Mutex
	events []domain.Event
	arrive chan struct{}
}

func newStubIngestor() *stubIngestor {
	return &stubIngestor{arrive: make(chan struct{}, 16)}
}

func (s *stubIngestor) IngestEvent(ev domain.Event) bool {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.arrive <- struct{}{}
	return true
}

func (s *stubIngestor) ingested() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

type stubController struct {
	mu      sync.Mutex
	actions []string
	speed   float64
	arrive  chan struct{}
}

func newStubController() *stubController {
	return &stubController{arrive: make(chan struct{}, 16)}
}

func (s *stubController) Play() {
	s.mu.Lock()
	s.actions = append(s.actions, "play")
	s.mu.Unlock()
	s.arrive <- struct{}{}
}

func (s *stubController) Pause() {
	s.mu.Lock()
	s.actions = append(s.actions, "pause")
	s.mu.Unlock()
	s.arrive <- struct{}{}
}

func (s *stubController) SetSpeed(speed float64) {
	s.mu.Lock()
	s.actions = append(s.actions, "speed")
	s.speed = speed
	s.mu.Unlock()
	s.arrive <- struct{}{}
}

func (s *stubController) snapshot() ([]string, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.actions))
	copy(out, s.actions)
	return out, s.speed
}
