package domain

import "strings"

// Status is the lifecycle state of a vehicle. Alert statuses embed the
// triggering event type, e.g. "Alert: Speeding".
type Status string

const (
	StatusPending   Status = "Pending"
	StatusOnRoute   Status = "On Route"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// AlertStatus builds the status for an accepted alert-class event.
func AlertStatus(t EventType) Status {
	return Status("Alert: " + string(t))
}

// IsTerminal reports whether the vehicle has reached an end state.
// Terminal vehicles ignore all further mutating events; their progress
// stays pinned at 100.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether the trip counts toward active fleet metrics:
// on route, or on route with an outstanding alert.
func (s Status) IsActive() bool {
	return s == StatusOnRoute || strings.HasPrefix(string(s), "Alert:")
}

// VehicleState is the live derived state of one trip's vehicle, keyed
// by trip ID. It is mutated only by the event reducer and only under
// the engine's write lock.
type VehicleState struct {
	ID           string   `json:"id"`
	TripName     string   `json:"tripName"`
	DriverName   string   `json:"driverName"`
	VehicleModel string   `json:"vehicleModel"`
	Location     Location `json:"location"`
	Status       Status   `json:"status"`
	Speed        float64  `json:"speed"`
	FuelLevel    float64  `json:"fuelLevel"`
	Progress     float64  `json:"progress"`
	Alerts       []Event  `json:"alerts"`
}

// NewVehicleState builds the initial Pending state for a trip. Location
// defaults to the TripStart location, or {0,0} if the timeline lacks
// one.
func NewVehicleState(trip Trip) *VehicleState {
	return &VehicleState{
		ID:           trip.ID,
		TripName:     trip.TripName,
		DriverName:   trip.DriverName,
		VehicleModel: trip.VehicleModel,
		Location:     trip.StartLocation(),
		Status:       StatusPending,
		Speed:        0,
		FuelLevel:    100,
		Progress:     0,
		Alerts:       nil,
	}
}

// Clone returns a deep copy safe to hand to readers while the engine
// keeps mutating the original.
func (v *VehicleState) Clone() VehicleState {
	out := *v
	out.Alerts = append([]Event(nil), v.Alerts...)
	return out
}

// LastAlert returns the most recent accepted alert, or false when the
// vehicle has none.
func (v *VehicleState) LastAlert() (Event, bool) {
	if len(v.Alerts) == 0 {
		return Event{}, false
	}
	return v.Alerts[len(v.Alerts)-1], true
}
