package engine

import "fleetwatch/internal/domain"

// alertLog is the global append-only record of every alert-class event
// that passed de-duplication, across all vehicles. It feeds the
// summarizer and the severity breakdown in fleet metrics. Not
// goroutine-safe on its own; the engine's lock covers it.
type alertLog struct {
	entries []domain.Event
}

func (l *alertLog) append(ev domain.Event) {
	l.entries = append(l.entries, ev)
}

func (l *alertLog) len() int {
	return len(l.entries)
}

func (l *alertLog) reset() {
	l.entries = nil
}

// snapshot returns a copy safe to hand outside the lock.
func (l *alertLog) snapshot() []domain.Event {
	return append([]domain.Event(nil), l.entries...)
}

// bySeverity counts accepted alerts per severity bucket. Alerts with
// no severity on the payload are not bucketed but still count toward
// the total.
func (l *alertLog) bySeverity() map[domain.Severity]int {
	counts := map[domain.Severity]int{
		domain.SeverityLow:    0,
		domain.SeverityMedium: 0,
		domain.SeverityHigh:   0,
	}
	for _, ev := range l.entries {
		switch ev.Data.Severity {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
			counts[ev.Data.Severity]++
		}
	}
	return counts
}
