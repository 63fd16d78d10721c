package services

import (
	"context"

	"github.com/rosettahomes/rosetta-backend/internal/models"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventPropertySubmitted    = "property_submitted"
	EventPropertyReviewed     = "property_reviewed"
	EventReviewCreated        = "review_created"
)

// Event is an in-app alert. UserIDs and Roles select the recipients of the
// realtime push; brokers receive every event.
type Event struct {
	Type    string        `json:"type"`
	Data    any           `json:"data"`
	UserIDs []uint        `json:"-"`
	Roles   []models.Role `json:"-"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}

// Publishers fans an event out to every publisher in order.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, ev Event) {
	for _, p := range ps {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

type BookingEvent struct {
	BookingID     string               `json:"bookingId"`
	PropertyID    uint                 `json:"propertyId"`
	PropertyTitle string               `json:"propertyTitle"`
	GuestName     string               `json:"guestName"`
	CheckIn       string               `json:"checkIn"`
	CheckOut      string               `json:"checkOut"`
	TotalPrice    float64              `json:"totalPrice"`
	Status        models.BookingStatus `json:"status"`
}

type PropertyEvent struct {
	PropertyID uint                  `json:"propertyId"`
	Title      string                `json:"title"`
	HostID     uint                  `json:"hostId"`
	Status     models.ApprovalStatus `json:"status"`
	Reason     string                `json:"reason,omitempty"`
}
