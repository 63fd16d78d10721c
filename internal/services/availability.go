package services

import (
	"time"

	"github.com/rosettahomes/rosetta-backend/internal/models"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// A stay ending on the day another begins does not overlap it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the first active booking overlapping the candidate
// range, or nil when the range is free.
func FindConflict(existing []models.Booking, checkIn, checkOut time.Time) *models.Booking {
	for i := range existing {
		b := &existing[i]
		if !b.Status.Active() {
			continue
		}
		if Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			return b
		}
	}
	return nil
}
