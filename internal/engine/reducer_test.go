package engine

import (
	"testing"
	"time"

	"fleetwatch/internal/domain"
)

var baseTime = time.Date(2025, 11, 8, 17, 0, 0, 0, time.UTC)

func newEvent(id string, typ domain.EventType, at time.Time, data domain.EventData) domain.Event {
	return domain.Event{
		ID:        id,
		Timestamp: at,
		Type:      typ,
		TripID:    "trip-1",
		Data:      data,
	}
}

func newState() *domain.VehicleState {
	return domain.NewVehicleState(domain.Trip{
		ID:       "trip-1",
		TripName: "Test Trip",
	})
}

func f(v float64) *float64 { return &v }

func TestReduce_TripStart(t *testing.T) {
	st := newState()
	st.Progress = 42

	loc := domain.Location{Latitude: 34.05, Longitude: -118.24}
	reduce(newEvent("e1", domain.TripStart, baseTime, domain.EventData{Location: &loc}), st)

	if st.Status != domain.StatusOnRoute {
		t.Errorf("expected On Route, got %s", st.Status)
	}
	if st.Progress != 0 {
		t.Errorf("expected progress reset to 0, got %v", st.Progress)
	}
	if st.Location != loc {
		t.Errorf("expected location updated, got %+v", st.Location)
	}
}

func TestReduce_LocationUpdate(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	reduce(newEvent("e1", domain.LocationUpdate, baseTime, domain.EventData{
		Location:        &domain.Location{Latitude: 35, Longitude: -115},
		Speed:           f(74.6),
		FuelLevel:       f(88.44),
		DistanceCovered: f(50),
		TotalDistance:   f(100),
	}), st)

	if st.Status != domain.StatusOnRoute {
		t.Errorf("status changed by LocationUpdate: %s", st.Status)
	}
	if st.Speed != 75 {
		t.Errorf("expected speed rounded to 75, got %v", st.Speed)
	}
	if st.FuelLevel != 88.4 {
		t.Errorf("expected fuel 88.4, got %v", st.FuelLevel)
	}
	if st.Progress != 50 {
		t.Errorf("expected progress 50, got %v", st.Progress)
	}
}

func TestReduce_LocationUpdate_PartialPayload(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute
	st.Speed = 60
	st.FuelLevel = 80
	st.Progress = 25

	// Only location present: other fields must be left alone.
	reduce(newEvent("e1", domain.LocationUpdate, baseTime, domain.EventData{
		Location: &domain.Location{Latitude: 1, Longitude: 2},
	}), st)

	if st.Speed != 60 || st.FuelLevel != 80 || st.Progress != 25 {
		t.Errorf("absent payload fields were touched: speed=%v fuel=%v progress=%v",
			st.Speed, st.FuelLevel, st.Progress)
	}
}

func TestReduce_ProgressMonotonicAndBounded(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	prev := 0.0
	distances := []float64{10, 25, 60, 99.96, 130}
	for i, d := range distances {
		reduce(newEvent(string(rune('a'+i)), domain.LocationUpdate, baseTime, domain.EventData{
			DistanceCovered: f(d),
			TotalDistance:   f(100),
		}), st)
		if st.Progress < prev {
			t.Errorf("progress regressed: %v -> %v", prev, st.Progress)
		}
		if st.Progress < 0 || st.Progress > 100 {
			t.Errorf("progress out of bounds: %v", st.Progress)
		}
		prev = st.Progress
	}
	if st.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %v", st.Progress)
	}
}

func TestReduce_AlertTransition(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	applied, accepted := reduce(newEvent("e1", domain.Speeding, baseTime, domain.EventData{
		Severity: domain.SeverityHigh,
	}), st)

	if !applied || !accepted {
		t.Fatalf("expected first alert applied and accepted, got %v/%v", applied, accepted)
	}
	if st.Status != "Alert: Speeding" {
		t.Errorf("expected Alert: Speeding, got %s", st.Status)
	}
	if len(st.Alerts) != 1 {
		t.Errorf("expected 1 alert recorded, got %d", len(st.Alerts))
	}
}

func TestReduce_AlertBurstSuppression(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	first := newEvent("e1", domain.Speeding, baseTime, domain.EventData{Severity: domain.SeverityHigh})
	burst := newEvent("e2", domain.Speeding, baseTime.Add(10*time.Second), domain.EventData{Severity: domain.SeverityHigh})
	later := newEvent("e3", domain.Speeding, baseTime.Add(90*time.Second), domain.EventData{Severity: domain.SeverityHigh})

	if _, accepted := reduce(first, st); !accepted {
		t.Fatal("first alert should be accepted")
	}
	if applied, accepted := reduce(burst, st); applied || accepted {
		t.Error("alert 10s after previous of same type should be suppressed")
	}
	if len(st.Alerts) != 1 {
		t.Fatalf("suppressed alert was recorded, alerts=%d", len(st.Alerts))
	}
	if _, accepted := reduce(later, st); !accepted {
		t.Error("alert 90s after previous should be accepted")
	}
	if len(st.Alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(st.Alerts))
	}
}

func TestReduce_DifferentAlertTypeNotSuppressed(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	reduce(newEvent("e1", domain.Speeding, baseTime, domain.EventData{}), st)
	if _, accepted := reduce(newEvent("e2", domain.HardBraking, baseTime.Add(5*time.Second), domain.EventData{}), st); !accepted {
		t.Error("different alert type within window should not be suppressed")
	}
	if st.Status != "Alert: HardBraking" {
		t.Errorf("expected Alert: HardBraking, got %s", st.Status)
	}
}

func TestReduce_AlertSuppressionOutOfOrderDelivery(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute

	// Push mode can deliver the later alert first.
	reduce(newEvent("e1", domain.LowFuel, baseTime.Add(30*time.Second), domain.EventData{}), st)
	if applied, _ := reduce(newEvent("e2", domain.LowFuel, baseTime, domain.EventData{}), st); applied {
		t.Error("earlier duplicate within window should be suppressed on absolute gap")
	}
}

func TestReduce_Refueling(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute
	st.FuelLevel = 12.5

	reduce(newEvent("e1", domain.Refueling, baseTime, domain.EventData{}), st)
	if st.FuelLevel != 100 {
		t.Errorf("expected fuel 100 after refueling, got %v", st.FuelLevel)
	}
	if st.Status != domain.StatusOnRoute {
		t.Errorf("refueling must not change status, got %s", st.Status)
	}
}

func TestReduce_TerminalTransitions(t *testing.T) {
	for _, tc := range []struct {
		typ  domain.EventType
		want domain.Status
	}{
		{domain.TripEnd, domain.StatusCompleted},
		{domain.TripCancelled, domain.StatusCancelled},
	} {
		st := newState()
		st.Status = domain.StatusOnRoute
		st.Progress = 37

		reduce(newEvent("e1", tc.typ, baseTime, domain.EventData{}), st)
		if st.Status != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.typ, tc.want, st.Status)
		}
		if st.Progress != 100 {
			t.Errorf("%s: expected progress pinned to 100, got %v", tc.typ, st.Progress)
		}
	}
}

func TestReduce_TerminalStateIgnoresFurtherEvents(t *testing.T) {
	st := newState()
	st.Status = domain.StatusOnRoute
	reduce(newEvent("e1", domain.TripEnd, baseTime, domain.EventData{}), st)

	if applied, _ := reduce(newEvent("e2", domain.LocationUpdate, baseTime.Add(time.Minute), domain.EventData{
		DistanceCovered: f(10),
		TotalDistance:   f(100),
		Speed:           f(50),
	}), st); applied {
		t.Error("terminal vehicle reported a location update as applied")
	}
	if st.Progress != 100 {
		t.Errorf("terminal progress regressed to %v", st.Progress)
	}
	if st.Speed != 0 {
		t.Errorf("terminal speed mutated to %v", st.Speed)
	}

	if applied, accepted := reduce(newEvent("e3", domain.Speeding, baseTime.Add(2*time.Minute), domain.EventData{}), st); applied || accepted {
		t.Error("terminal vehicle accepted an alert")
	}
	if st.Status != domain.StatusCompleted {
		t.Errorf("terminal status changed to %s", st.Status)
	}
}
