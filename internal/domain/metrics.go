package domain

// FleetMetrics is a derived snapshot recomputed in full after every
// state change. Vehicle counts are small, so recomputation is cheaper
// to reason about than incremental patching.
type FleetMetrics struct {
	TotalTrips        int              `json:"totalTrips"`
	ActiveTrips       int              `json:"activeTrips"`
	CompletedTrips    int              `json:"completedTrips"`
	CancelledTrips    int              `json:"cancelledTrips"`
	TotalAlerts       int              `json:"totalAlerts"`
	AverageCompletion float64          `json:"averageCompletion"`
	AlertsBySeverity  map[Severity]int `json:"alertsBySeverity"`
}
