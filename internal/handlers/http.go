package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fleetwatch/internal/domain"
	"fleetwatch/internal/engine"
)

// Summarizer is the black-box alert summarizer contract: JSON-encoded
// alert list in, text summary out.
type Summarizer interface {
	Summarize(ctx context.Context, eventsJSON string) (string, error)
}

// HTTPHandler exposes the engine's read snapshots and simulation
// controls to dashboard consumers.
type HTTPHandler struct {
	engine     *engine.Engine
	summarizer Summarizer
	stream     http.Handler
	socket     http.Handler
}

func NewHTTPHandler(eng *engine.Engine, sum Summarizer, stream, socket http.Handler) *HTTPHandler {
	return &HTTPHandler{engine: eng, summarizer: sum, stream: stream, socket: socket}
}

// RegisterRoutes sets up HTTP routes.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/api/fleet/vehicles", h.GetVehicles).Methods("GET")
	router.HandleFunc("/api/fleet/metrics", h.GetMetrics).Methods("GET")
	router.HandleFunc("/api/fleet/alerts", h.GetAlerts).Methods("GET")
	router.HandleFunc("/api/fleet/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/simulation/play", h.Play).Methods("POST")
	router.HandleFunc("/api/simulation/pause", h.Pause).Methods("POST")
	router.HandleFunc("/api/simulation/reset", h.Reset).Methods("POST")
	router.HandleFunc("/api/simulation/speed", h.SetSpeed).Methods("PUT")
	router.HandleFunc("/api/events", h.IngestEvent).Methods("POST")
	if h.stream != nil {
		router.Handle("/api/fleet-stream", h.stream).Methods("GET")
	}
	if h.socket != nil {
		router.Handle("/api/ws", h.socket).Methods("GET")
	}
}

// Health returns service health status.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetVehicles returns a snapshot of all vehicle states.
func (h *HTTPHandler) GetVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.VehicleStates())
}

// GetMetrics returns the current fleet metrics.
func (h *HTTPHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Metrics())
}

// GetAlerts returns the global alert log.
func (h *HTTPHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.engine.Alerts()
	if alerts == nil {
		alerts = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// GetSummary runs the alert summarizer over the current alert log.
// Summarization happens on demand, never on the tick path.
func (h *HTTPHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	alerts := h.engine.Alerts()
	if alerts == nil {
		alerts = []domain.Event{}
	}
	payload, err := json.Marshal(alerts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	summary, err := h.summarizer.Summarize(r.Context(), string(payload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// Play starts or resumes the simulation.
func (h *HTTPHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.engine.Play()
	h.writeSimulationState(w)
}

// Pause suspends the simulation.
func (h *HTTPHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.engine.Pause()
	h.writeSimulationState(w)
}

// Reset returns the simulation to its initial state.
func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	h.writeSimulationState(w)
}

// SetSpeed changes the virtual-time multiplier.
func (h *HTTPHandler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Speed <= 0 {
		http.Error(w, "speed must be positive", http.StatusBadRequest)
		return
	}
	h.engine.SetSpeed(body.Speed)
	h.writeSimulationState(w)
}

// IngestEvent accepts one push-mode event over HTTP. Well-formed
// duplicates are acknowledged but not reapplied.
func (h *HTTPHandler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		slog.Debug("failed to decode pushed event", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if ev.ID == "" || ev.TripID == "" {
		http.Error(w, "event requires id and tripId", http.StatusBadRequest)
		return
	}
	applied := h.engine.IngestEvent(ev)
	writeJSON(w, http.StatusAccepted, map[string]bool{"applied": applied})
}

type simulationState struct {
	IsRunning      bool       `json:"isRunning"`
	Speed          float64    `json:"speed"`
	SimulationTime *time.Time `json:"simulationTime"`
}

func (h *HTTPHandler) writeSimulationState(w http.ResponseWriter) {
	state := simulationState{
		IsRunning: h.engine.IsRunning(),
		Speed:     h.engine.Speed(),
	}
	if t, ok := h.engine.SimulationTime(); ok {
		state.SimulationTime = &t
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
