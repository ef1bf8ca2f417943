package domain

// Trip is a static roster entry with its full precomputed event
// timeline. Trips are created once by the source adapter and never
// change for the duration of a run.
type Trip struct {
	ID                string  `json:"id"`
	TripName          string  `json:"tripName"`
	DriverName        string  `json:"driverName"`
	VehicleModel      string  `json:"vehicleModel"`
	StartLocationName string  `json:"startLocationName"`
	EndLocationName   string  `json:"endLocationName"`
	Events            []Event `json:"events"`
}

// StartLocation returns the location of the trip's TripStart event, or
// the origin if the timeline has none.
func (t Trip) StartLocation() Location {
	for _, ev := range t.Events {
		if ev.Type == TripStart && ev.Data.Location != nil {
			return *ev.Data.Location
		}
	}
	return Location{}
}
