package engine

import "fleetwatch/internal/domain"

// recomputeLocked rebuilds fleet metrics from scratch off the current
// vehicle states and alert log. Caller holds e.mu.
func (e *Engine) recomputeLocked() {
	m := domain.FleetMetrics{
		TotalTrips:       len(e.trips),
		TotalAlerts:      e.log.len(),
		AlertsBySeverity: e.log.bySeverity(),
	}

	var totalProgress float64
	for _, st := range e.states {
		totalProgress += st.Progress
		switch {
		case st.Status == domain.StatusCompleted:
			m.CompletedTrips++
		case st.Status == domain.StatusCancelled:
			m.CancelledTrips++
		case st.Status.IsActive():
			m.ActiveTrips++
		}
	}
	if len(e.states) > 0 {
		m.AverageCompletion = totalProgress / float64(len(e.states))
	}
	e.metrics = m
}
