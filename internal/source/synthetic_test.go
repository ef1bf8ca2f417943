package source

import (
	"context"
	"sort"
	"testing"

	"fleetwatch/internal/domain"
)

func TestSyntheticSource_RosterShape(t *testing.T) {
	src := NewSyntheticSource(1)
	trips, err := src.LoadTrips(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(trips) != 5 {
		t.Fatalf("trips = %d, want 5", len(trips))
	}

	seenCancelled := false
	for _, trip := range trips {
		if trip.ID == "" || trip.TripName == "" || trip.DriverName == "" {
			t.Errorf("trip metadata incomplete: %+v", trip)
		}
		if len(trip.Events) < 2 {
			t.Fatalf("trip %s has only %d events", trip.ID, len(trip.Events))
		}
		if trip.Events[0].Type != domain.TripStart {
			t.Errorf("trip %s does not open with TripStart", trip.ID)
		}
		last := trip.Events[len(trip.Events)-1]
		switch last.Type {
		case domain.TripEnd:
		case domain.TripCancelled:
			seenCancelled = true
		default:
			t.Errorf("trip %s ends with %s", trip.ID, last.Type)
		}

		ids := make(map[string]struct{}, len(trip.Events))
		for _, ev := range trip.Events {
			if ev.ID == "" {
				t.Fatalf("trip %s has an event without id", trip.ID)
			}
			if _, dup := ids[ev.ID]; dup {
				t.Fatalf("trip %s has duplicate event id %s", trip.ID, ev.ID)
			}
			ids[ev.ID] = struct{}{}
			if ev.TripID != trip.ID {
				t.Errorf("event %s carries trip id %s", ev.ID, ev.TripID)
			}
		}

		if !sort.SliceIsSorted(trip.Events, func(i, j int) bool {
			return trip.Events[i].Timestamp.Before(trip.Events[j].Timestamp)
		}) {
			t.Errorf("trip %s timeline is not ordered", trip.ID)
		}
	}
	if !seenCancelled {
		t.Error("roster should include one cancelled trip")
	}
}

func TestSyntheticSource_RefuelCycle(t *testing.T) {
	src := NewSyntheticSource(1)
	trips, _ := src.LoadTrips(context.Background())

	// Every trip burns through the tank about once: each refuel resets
	// fuel to full, so the low-fuel cycle fires once or twice, never
	// every remaining step.
	for _, trip := range trips {
		var lowFuel, refuel int
		for _, ev := range trip.Events {
			switch ev.Type {
			case domain.LowFuel:
				lowFuel++
			case domain.Refueling:
				refuel++
			}
		}
		if lowFuel != refuel {
			t.Errorf("trip %s: low-fuel/refuel pairing broken: lowFuel=%d refuel=%d",
				trip.ID, lowFuel, refuel)
		}
		if lowFuel > 2 {
			t.Errorf("trip %s: refuel cycle ran away: %d pairs", trip.ID, lowFuel)
		}
	}

	// The long haul is guaranteed to cross the threshold at least once.
	for _, trip := range trips {
		if trip.ID != "trip-1" {
			continue
		}
		found := false
		for _, ev := range trip.Events {
			if ev.Type == domain.LowFuel {
				found = true
				break
			}
		}
		if !found {
			t.Error("trip-1 never hit low fuel")
		}
	}
}

func TestInterpolate(t *testing.T) {
	points := []waypoint{{0, 0}, {10, 10}}
	mid := interpolate(points, 0.5)
	if mid.lat != 5 || mid.lng != 5 {
		t.Errorf("midpoint = %+v", mid)
	}
	if end := interpolate(points, 1); end != points[1] {
		t.Errorf("endpoint = %+v", end)
	}
	if single := interpolate(points[:1], 0.7); single != points[0] {
		t.Errorf("single point = %+v", single)
	}
}
