package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"

	"fleetwatch/internal/domain"
)

// SSEStream replays the merged event timeline to a client as
// server-sent events, one frame per event, paced by the requested
// speed multiplier. The stream ends when the timeline is exhausted or
// the client disconnects.
type SSEStream struct {
	timeline func() []domain.Event
	verify   func(token string) bool
	clock    clockz.Clock
}

func NewSSEStream(timeline func() []domain.Event, verify func(string) bool) *SSEStream {
	return &SSEStream{timeline: timeline, verify: verify}
}

// WithClock sets the pacing clock. Defaults to the real clock.
func (s *SSEStream) WithClock(clock clockz.Clock) *SSEStream {
	s.clock = clock
	return s
}

func (s *SSEStream) getClock() clockz.Clock {
	if s.clock == nil {
		return clockz.RealClock
	}
	return s.clock
}

func (s *SSEStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if !s.verify(token) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	speed := 1.0
	if raw := r.URL.Query().Get("speed"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			speed = parsed
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	interval := time.Duration(float64(time.Second) / speed)
	clock := s.getClock()
	events := s.timeline()
	slog.Info("SSE replay started", "events", len(events), "speed", speed)

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: fleetEvent\ndata: %s\n\n", payload)
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-clock.After(interval):
		}
	}
}
