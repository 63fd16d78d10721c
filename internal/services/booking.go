package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

var requiredBookingFields = []string{
	"propertyId",
	"checkIn",
	"checkOut",
	"guestCount",
	"guestFirstName",
	"guestLastName",
	"guestEmail",
	"guestPhone",
}

type CreateBookingInput struct {
	PropertyID      uint   `json:"propertyId"`
	CheckIn         string `json:"checkIn"`
	CheckOut        string `json:"checkOut"`
	GuestCount      int    `json:"guestCount"`
	GuestFirstName  string `json:"guestFirstName"`
	GuestLastName   string `json:"guestLastName"`
	GuestEmail      string `json:"guestEmail"`
	GuestPhone      string `json:"guestPhone"`
	SpecialRequests string `json:"specialRequests"`
	// UserID is set when the guest booked while signed in.
	UserID *uint `json:"-"`
}

func (in *CreateBookingInput) missingFields() []string {
	var missing []string
	check := func(name string, empty bool) {
		if empty {
			missing = append(missing, name)
		}
	}
	check("propertyId", in.PropertyID == 0)
	check("checkIn", strings.TrimSpace(in.CheckIn) == "")
	check("checkOut", strings.TrimSpace(in.CheckOut) == "")
	check("guestCount", in.GuestCount == 0)
	check("guestFirstName", strings.TrimSpace(in.GuestFirstName) == "")
	check("guestLastName", strings.TrimSpace(in.GuestLastName) == "")
	check("guestEmail", strings.TrimSpace(in.GuestEmail) == "")
	check("guestPhone", strings.TrimSpace(in.GuestPhone) == "")
	return missing
}

// BookingResult is a newly created booking with its priced stay. The
// property is included unredacted: booking reveals the host contact.
type BookingResult struct {
	Booking       *models.Booking `json:"booking"`
	Quote         utils.StayQuote `json:"quote"`
	Notifications DispatchResult  `json:"notifications"`
}

type BookingService struct {
	bookings    repository.BookingRepository
	properties  repository.PropertyRepository
	notifier    BookingNotifier
	events      EventPublisher
	log         *slog.Logger
	loc         *time.Location
	phoneRegion string
	now         func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	properties repository.PropertyRepository,
	notifier BookingNotifier,
	events EventPublisher,
	log *slog.Logger,
	loc *time.Location,
	phoneRegion string,
) *BookingService {
	if events == nil {
		events = nopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{
		bookings:    bookings,
		properties:  properties,
		notifier:    notifier,
		events:      events,
		log:         log,
		loc:         loc,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

func errDatesUnavailable() *apperrors.AppError {
	return apperrors.Validation("Property is not available for the selected dates")
}

// Create validates the request, prices the stay and stores it as pending.
// The overlap check and insert run under a lock on the property row.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return nil, apperrors.Validation("Missing required fields").WithDetails(map[string]any{
			"required": requiredBookingFields,
			"missing":  missing,
		})
	}

	property, err := s.properties.FindByID(ctx, in.PropertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Property")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to create booking", err)
	}
	if !property.Bookable() {
		return nil, apperrors.Validation("Property is not available for booking")
	}

	if in.GuestCount < 1 || in.GuestCount > property.MaxGuests {
		return nil, apperrors.Validation(fmt.Sprintf(
			"Guest count must be between 1 and %d for this property", property.MaxGuests,
		))
	}

	checkIn, checkOut, err := s.validateDates(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(in.GuestEmail)
	if !validEmail(email) {
		return nil, apperrors.Validation("Invalid guest email address")
	}
	phone := strings.TrimSpace(in.GuestPhone)
	if normalized, err := utils.NormalizePhone(phone, s.phoneRegion); err == nil {
		phone = normalized
	}

	quote, err := utils.QuoteStay(checkIn, checkOut, property.PricePerNight)
	if err != nil {
		return nil, apperrors.Validation("Check-out date must be after check-in date")
	}

	booking := &models.Booking{
		PropertyID:      property.ID,
		UserID:          in.UserID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestCount:      in.GuestCount,
		GuestFirstName:  strings.TrimSpace(in.GuestFirstName),
		GuestLastName:   strings.TrimSpace(in.GuestLastName),
		GuestEmail:      email,
		GuestPhone:      phone,
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		Nights:          quote.Nights,
		TotalPrice:      quote.TotalPrice,
		Status:          models.BookingPending,
	}

	err = s.bookings.WithPropertyLock(ctx, property.ID, func(tx repository.BookingRepository) error {
		existing, err := tx.ActiveForProperty(ctx, property.ID, "")
		if err != nil {
			return err
		}
		if conflict := FindConflict(existing, checkIn, checkOut); conflict != nil {
			return errDatesUnavailable()
		}
		return tx.Create(ctx, booking)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, errDatesUnavailable()
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Property")
		case apperrors.Is(err, apperrors.CodeValidation):
			return nil, err
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	booking.Property = property
	s.log.Info("booking created",
		"bookingId", booking.ID,
		"propertyId", property.ID,
		"nights", quote.Nights,
		"totalPrice", quote.TotalPrice,
	)

	result := &BookingResult{Booking: booking, Quote: quote}
	if s.notifier != nil {
		result.Notifications = s.notifier.BookingCreated(ctx, booking, property)
	}
	s.events.Publish(ctx, Event{
		Type:    EventBookingCreated,
		Data:    bookingEvent(booking, property),
		UserIDs: []uint{property.HostID},
		Roles:   []models.Role{models.RoleAdmin},
	})

	return result, nil
}

func (s *BookingService) validateDates(rawIn, rawOut string) (time.Time, time.Time, error) {
	checkIn, err := utils.ParseStayDate(rawIn, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("Invalid check-in date")
	}
	checkOut, err := utils.ParseStayDate(rawOut, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("Invalid check-out date")
	}

	today := utils.StartOfDay(s.now(), s.loc)
	if checkIn.Before(today) {
		return time.Time{}, time.Time{}, apperrors.Validation("Check-in date cannot be in the past")
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, apperrors.Validation("Check-out date must be after check-in date")
	}
	return checkIn, checkOut, nil
}

// Get looks a booking up by its reference. Knowing the UUID is the access
// check for anonymous guests.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("Booking")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Booking")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch booking", err)
	}
	return booking, nil
}

type BookingFilter struct {
	Status     models.BookingStatus
	PropertyID *uint
	HostID     *uint
}

type BookingSummary struct {
	TotalBookings    int                          `json:"totalBookings"`
	TotalRevenue     float64                      `json:"totalRevenue"`
	BookingsByStatus map[models.BookingStatus]int `json:"bookingsByStatus"`
}

type BookingList struct {
	Bookings []models.Booking `json:"bookings"`
	Summary  BookingSummary   `json:"summary"`
}

// List returns bookings visible to the viewer: admins see everything,
// hosts the bookings on their properties and guests their own bookings.
func (s *BookingService) List(ctx context.Context, viewer Viewer, f BookingFilter) (*BookingList, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.Validation("Invalid status filter")
	}

	q := repository.BookingQuery{Status: f.Status, PropertyID: f.PropertyID, HostID: f.HostID}
	switch viewer.Role {
	case models.RoleAdmin:
	case models.RoleHost:
		q.HostID = &viewer.UserID
	default:
		// A guest promoted to host keeps a user token until it is reissued.
		if f.HostID != nil && *f.HostID == viewer.UserID {
			break
		}
		q.HostID = nil
		q.UserID = &viewer.UserID
	}

	bookings, err := s.bookings.List(ctx, q)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}
	return &BookingList{Bookings: bookings, Summary: Summarize(bookings)}, nil
}

// Summarize counts bookings per status. Revenue counts confirmed and
// completed stays only.
func Summarize(bookings []models.Booking) BookingSummary {
	sum := BookingSummary{
		TotalBookings:    len(bookings),
		BookingsByStatus: make(map[models.BookingStatus]int),
	}
	for _, b := range bookings {
		sum.BookingsByStatus[b.Status]++
		if b.Status == models.BookingConfirmed || b.Status == models.BookingCompleted {
			sum.TotalRevenue += b.TotalPrice
		}
	}
	sum.TotalRevenue = utils.RoundCurrency(sum.TotalRevenue)
	return sum
}

// UpdateStatus moves a booking through its lifecycle. The property's host
// follows the transition table; admins may force any status with override.
// Reactivating a booking re-checks its dates.
func (s *BookingService) UpdateStatus(ctx context.Context, viewer Viewer, id string, next models.BookingStatus, override bool) (*models.Booking, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !next.Valid() {
		return nil, apperrors.Validation("Invalid status. Must be one of: pending, confirmed, cancelled, completed")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	property := booking.Property
	if property == nil {
		return nil, apperrors.Internal("Failed to update booking status", fmt.Errorf("booking %s has no property", id))
	}
	if !viewer.Owns(property.HostID) {
		return nil, apperrors.Forbidden("Only the property host or an admin can update booking status")
	}

	previous := booking.Status
	if previous == next {
		return booking, nil
	}
	force := override && viewer.IsAdmin()
	if !force && !previous.CanTransition(next) {
		return nil, apperrors.Validation(fmt.Sprintf("Cannot change booking status from %s to %s", previous, next))
	}

	err = s.bookings.WithPropertyLock(ctx, property.ID, func(tx repository.BookingRepository) error {
		if next.Active() && !previous.Active() {
			existing, err := tx.ActiveForProperty(ctx, property.ID, booking.ID)
			if err != nil {
				return err
			}
			if FindConflict(existing, booking.CheckIn, booking.CheckOut) != nil {
				return errDatesUnavailable()
			}
		}
		return tx.UpdateStatus(ctx, booking.ID, next)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, errDatesUnavailable()
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Booking")
		case apperrors.Is(err, apperrors.CodeValidation):
			return nil, err
		}
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	booking.Status = next
	s.log.Info("booking status updated",
		"bookingId", booking.ID,
		"from", previous,
		"to", next,
		"by", viewer.UserID,
	)

	if s.notifier != nil && (next == models.BookingConfirmed || next == models.BookingCancelled) {
		s.notifier.BookingStatusChanged(ctx, booking, property)
	}
	s.events.Publish(ctx, Event{
		Type:    EventBookingStatusChanged,
		Data:    bookingEvent(booking, property),
		UserIDs: []uint{property.HostID},
		Roles:   []models.Role{models.RoleAdmin},
	})
	return booking, nil
}

// BookedRange is the public view of a reservation on a property calendar.
type BookedRange struct {
	CheckIn  time.Time            `json:"checkIn"`
	CheckOut time.Time            `json:"checkOut"`
	Status   models.BookingStatus `json:"status"`
}

// PropertyCalendar lists the booked ranges of a property without guest details.
func (s *BookingService) PropertyCalendar(ctx context.Context, propertyID uint) ([]BookedRange, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Property")
		}
		return nil, apperrors.Internal("Failed to fetch property bookings", err)
	}

	bookings, err := s.bookings.ActiveForProperty(ctx, propertyID, "")
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch property bookings", err)
	}

	ranges := make([]BookedRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, BookedRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut, Status: b.Status})
	}
	return ranges, nil
}

// CheckAvailability answers whether a range is free without booking it.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID uint, rawIn, rawOut string) (bool, *utils.StayQuote, error) {
	property, err := s.properties.FindByID(ctx, propertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil, apperrors.NotFound("Property")
	}
	if err != nil {
		return false, nil, apperrors.Internal("Failed to check availability", err)
	}

	checkIn, checkOut, err := s.validateDates(rawIn, rawOut)
	if err != nil {
		return false, nil, err
	}

	existing, err := s.bookings.ActiveForProperty(ctx, propertyID, "")
	if err != nil {
		return false, nil, apperrors.Internal("Failed to check availability", err)
	}

	quote, _ := utils.QuoteStay(checkIn, checkOut, property.PricePerNight)
	available := property.Bookable() && FindConflict(existing, checkIn, checkOut) == nil
	return available, &quote, nil
}

func bookingEvent(b *models.Booking, p *models.Property) BookingEvent {
	return BookingEvent{
		BookingID:     b.ID,
		PropertyID:    p.ID,
		PropertyTitle: p.Title,
		GuestName:     b.GuestName(),
		CheckIn:       b.CheckIn.Format(utils.DateLayout),
		CheckOut:      b.CheckOut.Format(utils.DateLayout),
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
	}
}
