package engine

import (
	"log/slog"

	"fleetwatch/internal/domain"
)

// The ingestion gateway is the single choke point through which both
// the scheduler's batch sweep and out-of-band push transports mutate
// state. Batch mode calls applyLocked under the tick's lock; push mode
// enters through IngestEvent. Either way, an event id is applied at
// most once per run, no matter how many channels deliver it.

// IngestEvent applies one push-delivered event. Push events may arrive
// in arbitrary order relative to the batch sweep and may be duplicates
// of replayed events; the processed-id set absorbs both. Returns true
// only when the event actually took effect: duplicates, suppressed
// alerts and post-terminal events come back false and never reach
// subscribers.
func (e *Engine) IngestEvent(ev domain.Event) bool {
	e.mu.Lock()
	applied := e.applyLocked(ev)
	if applied {
		e.recomputeLocked()
	}
	subs := e.subs
	e.mu.Unlock()

	if applied {
		for _, fn := range subs {
			fn(ev)
		}
	}
	return applied
}

// applyLocked validates, de-duplicates and applies one event. Malformed
// events (missing id or trip id) and events for unknown trips are
// dropped without error: a single bad telemetry record must never halt
// the dashboard. Caller holds e.mu.
func (e *Engine) applyLocked(ev domain.Event) bool {
	if ev.ID == "" || ev.TripID == "" {
		slog.Debug("dropping malformed event", "event_id", ev.ID, "trip_id", ev.TripID)
		return false
	}
	if _, seen := e.processed[ev.ID]; seen {
		return false
	}
	st, ok := e.states[ev.TripID]
	if !ok {
		slog.Debug("dropping event for unknown trip", "event_id", ev.ID, "trip_id", ev.TripID)
		return false
	}

	// Suppressed alerts and post-terminal events still consume the id,
	// so redelivery through another channel cannot resurrect them, but
	// they do not count as applied.
	e.processed[ev.ID] = struct{}{}
	applied, alertAccepted := reduce(ev, st)
	if alertAccepted {
		e.log.append(ev)
	}
	return applied
}
