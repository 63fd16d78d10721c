// Package repository persists the marketplace through GORM. Services depend
// on the interfaces declared here so they can be exercised without a database.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrOverlap is raised by the bookings_no_overlap exclusion constraint.
	ErrOverlap = errors.New("overlapping booking")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgExclusionViolation:
			return ErrOverlap
		}
	}
	return err
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
	ListHosts(ctx context.Context) ([]HostSummary, error)
}

type HostSummary struct {
	models.User
	PropertyCount int64 `json:"propertyCount"`
	BookingCount  int64 `json:"bookingCount"`
}

type PropertyQuery struct {
	City       string
	Country    string
	MinPrice   *float64
	MaxPrice   *float64
	MinGuests  int
	CategoryID *uint
	Category   string
	HostID     *uint
	Approval   models.ApprovalStatus
	ActiveOnly bool
	Search     string
	// Bounds restricts results to a latitude/longitude rectangle.
	Bounds *Bounds
	Limit  int
	Offset int
}

type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id uint) (*models.Property, error)
	Save(ctx context.Context, p *models.Property) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q PropertyQuery) ([]models.Property, int64, error)
	CountByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error)
}

type BookingQuery struct {
	PropertyID *uint
	HostID     *uint
	UserID     *uint
	Status     models.BookingStatus
	Since      *time.Time
}

type BookingAggregate struct {
	Total    int64                          `json:"totalBookings"`
	Revenue  float64                        `json:"totalRevenue"`
	ByStatus map[models.BookingStatus]int64 `json:"bookingsByStatus"`
}

type BookingRepository interface {
	// WithPropertyLock runs fn in a transaction holding a row lock on the
	// property, serialising concurrent bookings for it. It returns
	// ErrNotFound when the property does not exist.
	WithPropertyLock(ctx context.Context, propertyID uint, fn func(tx BookingRepository) error) error
	ActiveForProperty(ctx context.Context, propertyID uint, excludeID string) ([]models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	List(ctx context.Context, q BookingQuery) ([]models.Booking, error)
	Aggregate(ctx context.Context, q BookingQuery) (BookingAggregate, error)
}

type ReviewSort string

const (
	SortNewest  ReviewSort = "newest"
	SortOldest  ReviewSort = "oldest"
	SortHighest ReviewSort = "highest"
	SortLowest  ReviewSort = "lowest"
)

type ReviewQuery struct {
	Sort   ReviewSort
	Limit  int
	Offset int
}

type RatingSummary struct {
	Average float64 `json:"averageRating"`
	Count   int64   `json:"totalReviews"`
}

type ReviewAggregates struct {
	RatingSummary
	Cleanliness   float64       `json:"cleanliness"`
	Accuracy      float64       `json:"accuracy"`
	Communication float64       `json:"communication"`
	Location      float64       `json:"location"`
	CheckIn       float64       `json:"checkIn"`
	Value         float64       `json:"value"`
	Breakdown     map[int]int64 `json:"ratingBreakdown"`
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id uint) (*models.Review, error)
	FindByBooking(ctx context.Context, bookingID string) (*models.Review, error)
	ListForProperty(ctx context.Context, propertyID uint, q ReviewQuery) ([]models.Review, int64, error)
	PropertyAggregates(ctx context.Context, propertyID uint) (ReviewAggregates, error)
	RatingsForProperties(ctx context.Context, ids []uint) (map[uint]RatingSummary, error)
	ListByAuthor(ctx context.Context, userID uint) ([]models.Review, error)
	ListByRecipient(ctx context.Context, userID uint) ([]models.Review, error)
	CreateResponse(ctx context.Context, resp *models.HostResponse) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Upsert(ctx context.Context, categories []models.Category) error
}

type PasswordResetRepository interface {
	Create(ctx context.Context, t *models.PasswordResetToken) error
	FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id uint) error
	InvalidateForUser(ctx context.Context, userID uint) error
}

type PreferenceRepository interface {
	// Get returns the stored preferences, creating the defaults on first use.
	Get(ctx context.Context, userID uint) (*models.NotificationPreference, error)
	Save(ctx context.Context, p *models.NotificationPreference) error
}
