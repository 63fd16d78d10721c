package services

import (
	"testing"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		wantOverlap  bool
	}{
		{"identical", "2025-06-01", "2025-06-05", "2025-06-01", "2025-06-05", true},
		{"tail overlap", "2025-06-01", "2025-06-05", "2025-06-04", "2025-06-07", true},
		{"head overlap", "2025-06-04", "2025-06-07", "2025-06-01", "2025-06-05", true},
		{"contains", "2025-06-01", "2025-06-10", "2025-06-03", "2025-06-04", true},
		{"back to back", "2025-06-01", "2025-06-05", "2025-06-05", "2025-06-07", false},
		{"back to back reversed", "2025-06-05", "2025-06-07", "2025-06-01", "2025-06-05", false},
		{"disjoint", "2025-06-01", "2025-06-03", "2025-06-10", "2025-06-12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(day(tt.aStart), day(tt.aEnd), day(tt.bStart), day(tt.bEnd))
			assert.Equal(t, tt.wantOverlap, got)
		})
	}
}

func TestFindConflict(t *testing.T) {
	existing := []models.Booking{
		*existingBooking("2025-06-01", "2025-06-05", models.BookingCancelled),
		*existingBooking("2025-06-10", "2025-06-15", models.BookingConfirmed),
	}

	assert.Nil(t, FindConflict(existing, day("2025-06-02"), day("2025-06-04")))
	assert.Nil(t, FindConflict(existing, day("2025-06-05"), day("2025-06-10")))

	conflict := FindConflict(existing, day("2025-06-09"), day("2025-06-11"))
	if assert.NotNil(t, conflict) {
		assert.Equal(t, models.BookingConfirmed, conflict.Status)
	}
}
