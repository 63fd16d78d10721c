package utils

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidStay = errors.New("check-out must be after check-in")

// StayQuote is the price of a stay at a nightly rate.
type StayQuote struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	TotalPrice    float64 `json:"totalPrice"`
}

// QuoteStay charges every started day as a night: nights is the ceiling of
// the stay length in days, measured on each end's wall clock so a DST
// change inside the stay does not add or remove a night.
func QuoteStay(checkIn, checkOut time.Time, pricePerNight float64) (StayQuote, error) {
	if !checkOut.After(checkIn) {
		return StayQuote{}, ErrInvalidStay
	}

	elapsed := wallClock(checkOut).Sub(wallClock(checkIn))
	nights := int(math.Ceil(elapsed.Hours() / 24))
	if nights < 1 {
		nights = 1
	}
	return StayQuote{
		Nights:        nights,
		PricePerNight: pricePerNight,
		TotalPrice:    RoundCurrency(float64(nights) * pricePerNight),
	}, nil
}

// wallClock re-reads t's local date and time as UTC.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// RoundCurrency rounds to 2 decimal places.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
