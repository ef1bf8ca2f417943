package engine

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"fleetwatch/internal/domain"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultSpeed        = 10
)

// Engine owns all mutable simulation state for one fleet run: the
// per-vehicle state map, the alert log, the processed-id set and the
// virtual clock. Every mutation is serialized behind one mutex, whether
// it comes from the scheduler's batch sweep or a push transport, so
// there is exactly one writer and readers always see a consistent
// snapshot. Multiple independent engines can coexist; nothing here is
// process-global.
type Engine struct {
	mu        sync.Mutex
	trips     []domain.Trip
	timeline  []domain.Event
	cursor    int
	states    map[string]*domain.VehicleState
	log       alertLog
	processed map[string]struct{}
	metrics   domain.FleetMetrics

	simTime  time.Time
	started  bool
	running  bool
	speed    float64
	lastTick time.Time

	clock        clockz.Clock
	tickInterval time.Duration

	subs []func(domain.Event)
}

// New builds an engine for a trip roster. The roster may be empty; the
// engine then idles with zero metrics. Timelines are merged and sorted
// once, up front.
func New(trips []domain.Trip) *Engine {
	e := &Engine{
		trips:        trips,
		timeline:     domain.MergeTimelines(trips),
		processed:    make(map[string]struct{}),
		speed:        defaultSpeed,
		tickInterval: defaultTickInterval,
	}
	e.states = initialStates(trips)
	e.recomputeLocked()
	return e
}

// WithClock sets the clock source. Defaults to the real clock.
func (e *Engine) WithClock(clock clockz.Clock) *Engine {
	e.clock = clock
	return e
}

// WithTickInterval overrides the wall-clock scheduler interval.
func (e *Engine) WithTickInterval(d time.Duration) *Engine {
	if d > 0 {
		e.tickInterval = d
	}
	return e
}

func (e *Engine) getClock() clockz.Clock {
	if e.clock == nil {
		return clockz.RealClock
	}
	return e.clock
}

func initialStates(trips []domain.Trip) map[string]*domain.VehicleState {
	states := make(map[string]*domain.VehicleState, len(trips))
	for _, trip := range trips {
		states[trip.ID] = domain.NewVehicleState(trip)
	}
	return states
}

// Subscribe registers a callback invoked for every event the gateway
// applies, after the write lock is released. Register subscribers
// during wiring, before Run.
func (e *Engine) Subscribe(fn func(domain.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Run drives the scheduler until the context is cancelled. Ticks fire
// at a fixed wall-clock interval; a tick while paused is a no-op.
func (e *Engine) Run(ctx context.Context) {
	clock := e.getClock()
	for {
		select {
		case <-ctx.Done():
			return
		case <-clock.After(e.tickInterval):
			e.tick()
		}
	}
}

// Play starts (or resumes) the simulation. On first play the virtual
// clock initializes to the earliest event timestamp across all trips.
// The wall-clock reference is cleared so the first tick after resume
// measures elapsed time from zero instead of fast-forwarding through
// the paused interval.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started && len(e.timeline) > 0 {
		e.simTime = e.timeline[0].Timestamp
		e.started = true
	}
	e.running = true
	e.lastTick = time.Time{}
}

// Pause suspends virtual time. State and the processed-id set are
// retained; in-flight push deliveries are still accepted.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.lastTick = time.Time{}
}

// Reset returns the engine to its freshly initialized state: vehicles
// back to Pending, alert log empty, processed-id set cleared, virtual
// clock unset.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.started = false
	e.simTime = time.Time{}
	e.lastTick = time.Time{}
	e.cursor = 0
	e.states = initialStates(e.trips)
	e.log.reset()
	e.processed = make(map[string]struct{})
	e.recomputeLocked()
}

// SetSpeed changes the virtual-time multiplier. Takes effect on the
// next tick; already-applied events are not reprocessed. Non-positive
// values are ignored.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if speed > 0 {
		e.speed = speed
	}
}

// tick advances the virtual clock by speed x wall-clock elapsed and
// applies every not-yet-applied timeline event with a timestamp at or
// before the new virtual time, in timeline order.
func (e *Engine) tick() {
	e.mu.Lock()
	if !e.running || !e.started {
		e.mu.Unlock()
		return
	}

	now := e.getClock().Now()
	if e.lastTick.IsZero() {
		e.lastTick = now
		e.mu.Unlock()
		return
	}
	elapsed := now.Sub(e.lastTick)
	e.lastTick = now

	next := e.simTime.Add(time.Duration(float64(elapsed) * e.speed))
	var applied []domain.Event
	for e.cursor < len(e.timeline) && !e.timeline[e.cursor].Timestamp.After(next) {
		ev := e.timeline[e.cursor]
		e.cursor++
		if e.applyLocked(ev) {
			applied = append(applied, ev)
		}
	}
	e.simTime = next
	if len(applied) > 0 {
		e.recomputeLocked()
	}
	subs := e.subs
	e.mu.Unlock()

	for _, ev := range applied {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// VehicleStates returns a deep-copied snapshot of all vehicle states.
func (e *Engine) VehicleStates() map[string]domain.VehicleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]domain.VehicleState, len(e.states))
	for id, st := range e.states {
		out[id] = st.Clone()
	}
	return out
}

// Metrics returns the current fleet metrics snapshot.
func (e *Engine) Metrics() domain.FleetMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.metrics
	counts := make(map[domain.Severity]int, len(m.AlertsBySeverity))
	for k, v := range m.AlertsBySeverity {
		counts[k] = v
	}
	m.AlertsBySeverity = counts
	return m
}

// Alerts returns a copy of the global alert log in append order.
func (e *Engine) Alerts() []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.snapshot()
}

// SimulationTime returns the virtual clock reading. ok is false before
// the first Play and after Reset.
func (e *Engine) SimulationTime() (t time.Time, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simTime, e.started
}

// IsRunning reports whether virtual time is advancing.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Speed returns the current virtual-time multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Timeline returns a copy of the merged, sorted event timeline. Replay
// transports iterate this without touching engine state.
func (e *Engine) Timeline() []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Event(nil), e.timeline...)
}
