package engine

import (
	"math"
	"time"

	"fleetwatch/internal/domain"
)

// alertDedupWindow suppresses repeat alerts of the same type for a
// vehicle when they land within this span of the previous one.
// Telemetry sources emit noisy bursts; only the first is actionable.
const alertDedupWindow = 60 * time.Second

// reduce applies one canonical event to a vehicle state in place.
// applied reports whether the event took effect at all; alertAccepted
// additionally marks it as a new alert for the global log. It is the
// only code that mutates VehicleState fields; the gateway serializes
// calls and owns the global alert log append.
//
// Terminal vehicles (Completed/Cancelled) ignore every further event,
// and burst-suppressed alerts are no-ops; both come back with
// applied=false. The caller still records the event id as processed so
// redelivery stays idempotent.
func reduce(ev domain.Event, st *domain.VehicleState) (applied, alertAccepted bool) {
	if st.Status.IsTerminal() {
		return false, false
	}

	switch ev.Type {
	case domain.TripStart:
		st.Status = domain.StatusOnRoute
		st.Progress = 0
		if ev.Data.Location != nil {
			st.Location = *ev.Data.Location
		}

	case domain.LocationUpdate:
		if ev.Data.Location != nil {
			st.Location = *ev.Data.Location
		}
		if ev.Data.Speed != nil {
			st.Speed = math.Round(*ev.Data.Speed)
		}
		if ev.Data.FuelLevel != nil {
			st.FuelLevel = round1(*ev.Data.FuelLevel)
		}
		if ev.Data.DistanceCovered != nil && ev.Data.TotalDistance != nil && *ev.Data.TotalDistance > 0 {
			st.Progress = clamp(round1(*ev.Data.DistanceCovered / *ev.Data.TotalDistance * 100), 0, 100)
		}

	case domain.Speeding, domain.HardBraking, domain.LowFuel, domain.DeviceOffline:
		if suppressed(ev, st) {
			return false, false
		}
		st.Status = domain.AlertStatus(ev.Type)
		st.Alerts = append(st.Alerts, ev)
		return true, true

	case domain.Refueling:
		st.FuelLevel = 100

	case domain.TripCancelled:
		st.Status = domain.StatusCancelled
		st.Progress = 100

	case domain.TripEnd:
		st.Status = domain.StatusCompleted
		st.Progress = 100
	}
	return true, false
}

// suppressed reports whether an incoming alert is a burst duplicate:
// same type as the vehicle's most recent alert and within the dedup
// window of it. The absolute difference is used because push-mode
// events may arrive out of timestamp order.
func suppressed(ev domain.Event, st *domain.VehicleState) bool {
	last, ok := st.LastAlert()
	if !ok || last.Type != ev.Type {
		return false
	}
	gap := ev.Timestamp.Sub(last.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	return gap <= alertDedupWindow
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
