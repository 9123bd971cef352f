package services

import (
	"time"

	"laganbus/internal/domain"
)

// A journey stays on the active list until the morning after the trip:
// expiration is journey date + 1 day at 05:30. Records whose date cannot be
// parsed are treated as not expired, so bad input never hides a booking.
func Expired(journeyDate string, now time.Time) bool {
	d, ok := ParseJourneyDate(journeyDate)
	if !ok {
		return false
	}
	expiry := time.Date(d.Year(), d.Month(), d.Day()+1, 5, 30, 0, 0, d.Location())
	return now.After(expiry)
}

// Classify applies the expiration rule to a freshly normalized stage list.
// Only the active stage is filtered; pending and archived records are never
// suppressed.
func Classify(stage domain.Stage, list []domain.Booking, now time.Time) []domain.Booking {
	if stage != domain.StageActive {
		return list
	}
	visible := make([]domain.Booking, 0, len(list))
	for _, b := range list {
		if !Expired(b.JourneyDate, now) {
			visible = append(visible, b)
		}
	}
	return visible
}
