package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

type BookingAPI interface {
	Create(ctx context.Context, in services.CreateBookingInput) (*services.BookingResult, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, viewer services.Viewer, f services.BookingFilter) (*services.BookingList, error)
	UpdateStatus(ctx context.Context, viewer services.Viewer, id string, next models.BookingStatus, override bool) (*models.Booking, error)
	PropertyCalendar(ctx context.Context, propertyID uint) ([]services.BookedRange, error)
	CheckAvailability(ctx context.Context, propertyID uint, checkIn, checkOut string) (bool, *utils.StayQuote, error)
}

// CreateBooking accepts anonymous guests. A signed-in caller is recorded
// as the booking's user.
func CreateBooking(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.CreateBookingInput
		if !bindOptional(c, log, &input) {
			return
		}
		if viewer := viewerFrom(c); viewer.Authenticated() {
			input.UserID = &viewer.UserID
		}

		res, err := bookings.Create(c.Request.Context(), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":       "Booking created successfully",
			"booking":       res.Booking,
			"quote":         res.Quote,
			"notifications": res.Notifications,
		})
	}
}

func GetBooking(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		booking, err := bookings.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": booking})
	}
}

type bookingListQuery struct {
	Status     string `form:"status" binding:"omitempty,booking_status"`
	PropertyID uint   `form:"propertyId"`
}

func (q bookingListQuery) filter() services.BookingFilter {
	f := services.BookingFilter{Status: models.BookingStatus(q.Status)}
	if q.PropertyID != 0 {
		id := q.PropertyID
		f.PropertyID = &id
	}
	return f
}

// ListBookings scopes results to the caller's role.
func ListBookings(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q bookingListQuery
		if !bindQuery(c, log, &q) {
			return
		}

		list, err := bookings.List(c.Request.Context(), viewerFrom(c), q.filter())
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

type statusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBookingStatus serves both the host route and the admin route; the
// admin route passes override to bypass the transition table.
func UpdateBookingStatus(bookings BookingAPI, override bool, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input statusInput
		if !bind(c, log, &input) {
			return
		}

		booking, err := bookings.UpdateStatus(c.Request.Context(), viewerFrom(c), c.Param("id"), models.BookingStatus(input.Status), override)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Booking status updated successfully",
			"booking": booking,
		})
	}
}

// PropertyBookings returns the booked ranges of a listing for its calendar.
func PropertyBookings(bookings BookingAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "propertyId", "Property")
		if err != nil {
			fail(c, log, err)
			return
		}

		ranges, err := bookings.PropertyCalendar(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": ranges})
	}
}
