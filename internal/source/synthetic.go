package source

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"fleetwatch/internal/domain"
)

// SyntheticSource generates a small demo roster so the server runs with
// zero external data. Routes are coarse real-world polylines; the event
// mix (location pings, speeding and braking bursts, a low-fuel/refuel
// cycle, one cancellation) matches what live telemetry looks like.
type SyntheticSource struct {
	rng *rand.Rand
}

func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{rng: rand.New(rand.NewSource(seed))}
}

type waypoint struct {
	lat, lng float64
}

var routes = map[string][]waypoint{
	"la-ny": {
		{34.0522, -118.2437}, {35.0857, -114.5654}, {33.3844, -111.9309},
		{31.7683, -106.4270}, {29.4241, -98.4936}, {32.2313, -93.7461},
		{35.7478, -90.6270}, {40.7128, -74.0060},
	},
	"sf-suburbs": {
		{37.7749, -122.4194}, {37.6688, -122.0808}, {37.4852, -122.1430},
		{37.3382, -121.8863},
	},
	"denver-aspen": {
		{39.7392, -104.9903}, {39.9375, -105.5201}, {39.6639, -106.1348},
		{39.1911, -106.8175},
	},
	"dallas-houston": {
		{32.7767, -96.7970}, {30.2669, -97.7428}, {29.7604, -95.3698},
	},
	"atlanta-nashville": {
		{33.7490, -84.3880}, {34.5004, -85.0094}, {35.0078, -86.2042},
	},
}

type syntheticTrip struct {
	cfg           TripConfig
	route         string
	totalDistance float64
	steps         int
	stepMinutes   int
	cancelled     bool
}

var syntheticTrips = []syntheticTrip{
	{
		cfg: TripConfig{
			ID: "trip-1", TripName: "Cross-Country Long Haul",
			DriverName: "John Doe", VehicleModel: "Freightliner Cascadia",
			StartLocationName: "Los Angeles, CA", EndLocationName: "New York, NY",
		},
		route: "la-ny", totalDistance: 4500, steps: 600, stepMinutes: 1,
	},
	{
		cfg: TripConfig{
			ID: "trip-2", TripName: "Urban Dense Delivery",
			DriverName: "Jane Smith", VehicleModel: "Ford Transit",
			StartLocationName: "Downtown, SF", EndLocationName: "Suburbs, SF",
		},
		route: "sf-suburbs", totalDistance: 50, steps: 150, stepMinutes: 2,
	},
	{
		cfg: TripConfig{
			ID: "trip-3", TripName: "Mountain Route Cancelled",
			DriverName: "Alex Johnson", VehicleModel: "Jeep Wrangler",
			StartLocationName: "Denver, CO", EndLocationName: "Aspen, CO",
		},
		route: "denver-aspen", totalDistance: 320, steps: 60, stepMinutes: 3,
		cancelled: true,
	},
	{
		cfg: TripConfig{
			ID: "trip-4", TripName: "Southern Technical Issues",
			DriverName: "Maria Garcia", VehicleModel: "Peterbilt 579",
			StartLocationName: "Dallas, TX", EndLocationName: "Houston, TX",
		},
		route: "dallas-houston", totalDistance: 385, steps: 200, stepMinutes: 2,
	},
	{
		cfg: TripConfig{
			ID: "trip-5", TripName: "Regional Logistics",
			DriverName: "Sam Wilson", VehicleModel: "Volvo VNL",
			StartLocationName: "Atlanta, GA", EndLocationName: "Nashville, TN",
		},
		route: "atlanta-nashville", totalDistance: 400, steps: 250, stepMinutes: 1,
	},
}

func (s *SyntheticSource) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	start := time.Now().UTC().Truncate(time.Second)
	trips := make([]domain.Trip, 0, len(syntheticTrips))
	for i, st := range syntheticTrips {
		trip := s.generate(st, start.Add(time.Duration(i*5)*time.Minute))
		trips = append(trips, trip)
	}
	return trips, nil
}

func (s *SyntheticSource) generate(st syntheticTrip, start time.Time) domain.Trip {
	points := routes[st.route]
	now := start

	// Fuel burns at a fixed per-step rate sized so a full trip crosses
	// the low-fuel threshold about once; refueling resets the tank.
	fuel := 100.0
	burnPerStep := 160.0 / float64(st.steps)

	events := []domain.Event{{
		ID:        uuid.NewString(),
		Timestamp: now,
		Type:      domain.TripStart,
		TripID:    st.cfg.ID,
		Data: domain.EventData{
			Location: ptrLoc(points[0]),
			Message:  fmt.Sprintf("%s started", st.cfg.TripName),
		},
	}}

	cancelAt := -1
	if st.cancelled {
		cancelAt = st.steps / 2
	}

	for i := 1; i <= st.steps; i++ {
		now = now.Add(time.Duration(st.stepMinutes) * time.Minute)
		frac := float64(i) / float64(st.steps)
		distance := frac * st.totalDistance
		fuel -= burnPerStep
		speed := 60 + s.rng.Float64()*30

		if i%3 == 0 {
			total := st.totalDistance
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now,
				Type:      domain.LocationUpdate,
				TripID:    st.cfg.ID,
				Data: domain.EventData{
					Location:        ptrLoc(interpolate(points, frac)),
					Speed:           &speed,
					FuelLevel:       &fuel,
					DistanceCovered: &distance,
					TotalDistance:   &total,
				},
			})
		}

		if i%90 == 0 {
			over := 95 + s.rng.Float64()*20
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now.Add(time.Duration(s.rng.Intn(30)) * time.Second),
				Type:      domain.Speeding,
				TripID:    st.cfg.ID,
				Data: domain.EventData{
					Speed:    &over,
					Severity: domain.SeverityMedium,
					Message:  "Excessive speed detected",
				},
			})
		}

		if i%120 == 0 {
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now.Add(time.Duration(s.rng.Intn(30)) * time.Second),
				Type:      domain.HardBraking,
				TripID:    st.cfg.ID,
				Data: domain.EventData{
					Severity: domain.SeverityLow,
					Message:  "Hard braking event recorded",
				},
			})
		}

		if fuel < 20 {
			low := fuel
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now,
				Type:      domain.LowFuel,
				TripID:    st.cfg.ID,
				Data: domain.EventData{
					FuelLevel: &low,
					Severity:  domain.SeverityHigh,
					Message:   "Fuel level critical",
				},
			})
			now = now.Add(20 * time.Minute)
			fuel = 100
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now,
				Type:      domain.Refueling,
				TripID:    st.cfg.ID,
				Data:      domain.EventData{Message: "Vehicle refueled at station"},
			})
		}

		if i == cancelAt {
			events = append(events, domain.Event{
				ID:        uuid.NewString(),
				Timestamp: now.Add(time.Minute),
				Type:      domain.TripCancelled,
				TripID:    st.cfg.ID,
				Data: domain.EventData{
					Reason:  "Road closed by weather",
					Message: "Trip cancelled en route",
				},
			})
			break
		}
	}

	if !st.cancelled {
		events = append(events, domain.Event{
			ID:        uuid.NewString(),
			Timestamp: now.Add(time.Minute),
			Type:      domain.TripEnd,
			TripID:    st.cfg.ID,
			Data: domain.EventData{
				Location: ptrLoc(points[len(points)-1]),
				Message:  fmt.Sprintf("%s completed", st.cfg.TripName),
			},
		})
	}

	return domain.Trip{
		ID:                st.cfg.ID,
		TripName:          st.cfg.TripName,
		DriverName:        st.cfg.DriverName,
		VehicleModel:      st.cfg.VehicleModel,
		StartLocationName: st.cfg.StartLocationName,
		EndLocationName:   st.cfg.EndLocationName,
		Events:            events,
	}
}

// interpolate walks a fraction of the way along the polyline.
func interpolate(points []waypoint, frac float64) waypoint {
	if len(points) == 1 {
		return points[0]
	}
	pos := frac * float64(len(points)-1)
	idx := int(pos)
	if idx >= len(points)-1 {
		return points[len(points)-1]
	}
	blend := pos - float64(idx)
	a, b := points[idx], points[idx+1]
	return waypoint{
		lat: a.lat + (b.lat-a.lat)*blend,
		lng: a.lng + (b.lng-a.lng)*blend,
	}
}

func ptrLoc(w waypoint) *domain.Location {
	return &domain.Location{Latitude: w.lat, Longitude: w.lng}
}
