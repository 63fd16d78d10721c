package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// ActiveBookingStatuses are the statuses that hold a property's dates.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Active reports whether a booking in this status blocks its dates.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether a host may move a booking from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a guest reservation. Its UUID doubles as the access token for
// guests who booked without an account. Bookings are never deleted.
type Booking struct {
	ID              string        `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID      uint          `gorm:"column:property_id;index;not null" json:"propertyId"`
	Property        *Property     `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	UserID          *uint         `gorm:"column:user_id;index" json:"userId,omitempty"`
	CheckIn         time.Time     `gorm:"column:check_in;not null" json:"checkIn"`
	CheckOut        time.Time     `gorm:"column:check_out;not null" json:"checkOut"`
	GuestCount      int           `gorm:"column:guest_count;not null" json:"guestCount"`
	GuestFirstName  string        `gorm:"column:guest_first_name;not null" json:"guestFirstName"`
	GuestLastName   string        `gorm:"column:guest_last_name;not null" json:"guestLastName"`
	GuestEmail      string        `gorm:"column:guest_email;index;not null" json:"guestEmail"`
	GuestPhone      string        `gorm:"column:guest_phone;not null" json:"guestPhone"`
	SpecialRequests string        `gorm:"column:special_requests;type:text" json:"specialRequests,omitempty"`
	Nights          int           `gorm:"column:nights;not null" json:"nights"`
	TotalPrice      float64       `gorm:"column:total_price;not null" json:"totalPrice"`
	Status          BookingStatus `gorm:"column:status;type:varchar(16);index;not null;default:pending" json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Booking) GuestName() string {
	return b.GuestFirstName + " " + b.GuestLastName
}
