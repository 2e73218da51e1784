package worker

import (
	"time"

	"github.com/iabalyuk/gorzdravbot/gorzdrav"
)

// MaxDayWindow is the widest day window honored; larger values are clamped.
const MaxDayWindow = 99

// InWindow reports whether at least one appointment falls within window days
// starting today, today included. A window <= 0 means no constraint.
func InWindow(appointments []gorzdrav.Appointment, window int, today time.Time) bool {
	if window <= 0 {
		return true
	}
	if window > MaxDayWindow {
		window = MaxDayWindow
	}
	start := dayStart(today)
	for _, a := range appointments {
		if a.VisitStart.IsZero() {
			continue
		}
		days := int(dayStart(a.VisitStart.Time).Sub(start) / (24 * time.Hour))
		if days >= 0 && days <= window-1 {
			return true
		}
	}
	return false
}

// NearestVisit returns the earliest appointment starting today or later.
func NearestVisit(appointments []gorzdrav.Appointment, today time.Time) (time.Time, bool) {
	start := dayStart(today)
	var nearest time.Time
	for _, a := range appointments {
		if a.VisitStart.IsZero() || a.VisitStart.Before(start) {
			continue
		}
		if nearest.IsZero() || a.VisitStart.Before(nearest) {
			nearest = a.VisitStart.Time
		}
	}
	return nearest, !nearest.IsZero()
}

// dayStart truncates t to midnight in the upstream zone, which has no DST.
func dayStart(t time.Time) time.Time {
	y, m, d := t.In(gorzdrav.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, gorzdrav.Location)
}
