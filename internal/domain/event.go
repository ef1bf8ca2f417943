package domain

import (
	"sort"
	"time"
)

// Location is a WGS84 coordinate pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EventType is the closed set of telemetry event variants. The source
// adapter is the only place raw vocabulary is mapped into this set; the
// engine switches over it exhaustively.
type EventType string

const (
	TripStart      EventType = "TripStart"
	LocationUpdate EventType = "LocationUpdate"
	HardBraking    EventType = "HardBraking"
	Speeding       EventType = "Speeding"
	LowFuel        EventType = "LowFuel"
	TripCancelled  EventType = "TripCancelled"
	DeviceOffline  EventType = "DeviceOffline"
	Refueling      EventType = "Refueling"
	TripEnd        EventType = "TripEnd"
)

// IsAlert reports whether the event type populates the alert log and is
// subject to burst suppression.
func (t EventType) IsAlert() bool {
	switch t {
	case Speeding, HardBraking, LowFuel, DeviceOffline:
		return true
	}
	return false
}

// Severity classifies alert-class events.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// EventData carries the variant-specific payload. Pointer fields
// distinguish "absent" from zero so the reducer only touches fields the
// event actually carries.
type EventData struct {
	Location        *Location `json:"location,omitempty"`
	Speed           *float64  `json:"speed,omitempty"`
	FuelLevel       *float64  `json:"fuelLevel,omitempty"`
	DistanceCovered *float64  `json:"distanceCovered,omitempty"`
	TotalDistance   *float64  `json:"totalDistance,omitempty"`
	Severity        Severity  `json:"severity,omitempty"`
	Message         string    `json:"message,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Event is the canonical, immutable telemetry record. ID is the
// idempotency key; the ingestion gateway guarantees each ID mutates
// state at most once per simulation run.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"eventType"`
	TripID    string    `json:"tripId"`
	Data      EventData `json:"data"`
}

// MergeTimelines flattens all trip timelines into one slice ordered by
// timestamp. The sort is stable, so events sharing a timestamp keep
// roster order: trip load order first, then position within the trip.
// Status transitions and burst suppression are order-sensitive at
// sub-second granularity, so this tie-break is part of the contract.
func MergeTimelines(trips []Trip) []Event {
	var merged []Event
	for _, trip := range trips {
		for _, ev := range trip.Events {
			if ev.TripID == "" {
				ev.TripID = trip.ID
			}
			merged = append(merged, ev)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}
