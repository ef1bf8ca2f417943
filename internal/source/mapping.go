package source

import (
	"time"

	"github.com/google/uuid"

	"fleetwatch/internal/domain"
)

// RawEvent is the wire shape emitted by the telemetry generator. Field
// names follow its snake_case vocabulary; everything is optional except
// the timestamp.
type RawEvent struct {
	EventID            string       `json:"event_id"`
	EventType          string       `json:"event_type"`
	Timestamp          time.Time    `json:"timestamp"`
	TripID             string       `json:"trip_id"`
	VehicleID          string       `json:"vehicle_id"`
	Location           *RawLocation `json:"location"`
	Movement           *RawMovement `json:"movement"`
	FuelLevel          *float64     `json:"fuel_level"`
	DistanceTravelled  *float64     `json:"distance_travelled_km"`
	PlannedDistance    *float64     `json:"planned_distance_km"`
	Severity           string       `json:"severity"`
	EventDescription   string       `json:"event_description"`
	CancellationReason string       `json:"cancellation_reason"`
	Overspeed          bool         `json:"overspeed"`
}

type RawLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RawMovement struct {
	SpeedKmh       float64 `json:"speed_kmh"`
	HeadingDegrees float64 `json:"heading_degrees"`
	Moving         bool    `json:"moving"`
}

// eventTypeFor maps the raw vocabulary onto the canonical closed set.
// Unrecognized types degrade to LocationUpdate so the engine never sees
// an unknown variant.
func eventTypeFor(raw RawEvent) domain.EventType {
	switch raw.EventType {
	case "trip_started":
		return domain.TripStart
	case "trip_ended":
		return domain.TripEnd
	case "trip_cancelled":
		return domain.TripCancelled
	case "location_ping":
		if raw.Overspeed {
			return domain.Speeding
		}
		return domain.LocationUpdate
	case "overspeed_event":
		return domain.Speeding
	case "hard_braking_event":
		return domain.HardBraking
	case "fuel_low":
		return domain.LowFuel
	case "refueling":
		return domain.Refueling
	case "device_offline":
		return domain.DeviceOffline
	default:
		return domain.LocationUpdate
	}
}

// Convert translates one raw telemetry record into a canonical event
// for the given trip. Records without an event id get a fresh one so
// the idempotency key is always present.
func Convert(raw RawEvent, tripID string) domain.Event {
	ev := domain.Event{
		ID:        raw.EventID,
		Timestamp: raw.Timestamp,
		Type:      eventTypeFor(raw),
		TripID:    tripID,
		Data: domain.EventData{
			FuelLevel:       raw.FuelLevel,
			DistanceCovered: raw.DistanceTravelled,
			TotalDistance:   raw.PlannedDistance,
			Severity:        severityFor(raw),
			Message:         raw.EventDescription,
			Reason:          raw.CancellationReason,
		},
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Data.Message == "" {
		ev.Data.Message = raw.EventType
	}
	if raw.Location != nil {
		ev.Data.Location = &domain.Location{
			Latitude:  raw.Location.Lat,
			Longitude: raw.Location.Lng,
		}
	}
	if raw.Movement != nil {
		speed := raw.Movement.SpeedKmh
		ev.Data.Speed = &speed
	}
	return ev
}

func severityFor(raw RawEvent) domain.Severity {
	switch raw.Severity {
	case "low":
		return domain.SeverityLow
	case "medium":
		return domain.SeverityMedium
	case "high":
		return domain.SeverityHigh
	}
	// Defaults mirror what the generator implies when it omits severity.
	switch raw.EventType {
	case "hard_braking_event":
		return domain.SeverityLow
	case "overspeed_event":
		return domain.SeverityMedium
	}
	return ""
}
