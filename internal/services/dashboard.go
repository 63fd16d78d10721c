package services

import (
	"context"
	"sort"
	"time"

	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

const dashboardListSize = 5

type PropertyCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type HostStats struct {
	Properties       PropertyCounts                 `json:"properties"`
	TotalBookings    int64                          `json:"totalBookings"`
	TotalRevenue     float64                        `json:"totalRevenue"`
	MonthlyRevenue   float64                        `json:"monthlyRevenue"`
	BookingsByStatus map[models.BookingStatus]int64 `json:"bookingsByStatus"`
	AverageRating    float64                        `json:"averageRating"`
	TotalReviews     int                            `json:"totalReviews"`
	UpcomingCheckIns []models.Booking               `json:"upcomingCheckIns"`
	RecentBookings   []models.Booking               `json:"recentBookings"`
}

type AdminStats struct {
	Users            map[models.Role]int64           `json:"users"`
	Properties       map[models.ApprovalStatus]int64 `json:"properties"`
	TotalBookings    int64                           `json:"totalBookings"`
	TotalRevenue     float64                         `json:"totalRevenue"`
	MonthlyRevenue   float64                         `json:"monthlyRevenue"`
	BookingsByStatus map[models.BookingStatus]int64  `json:"bookingsByStatus"`
	RecentBookings   []models.Booking                `json:"recentBookings"`
}

type DashboardService struct {
	users      repository.UserRepository
	properties repository.PropertyRepository
	bookings   repository.BookingRepository
	reviews    repository.ReviewRepository
	now        func() time.Time
}

func NewDashboardService(
	users repository.UserRepository,
	properties repository.PropertyRepository,
	bookings repository.BookingRepository,
	reviews repository.ReviewRepository,
) *DashboardService {
	return &DashboardService{
		users:      users,
		properties: properties,
		bookings:   bookings,
		reviews:    reviews,
		now:        time.Now,
	}
}

func (s *DashboardService) monthStart() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *DashboardService) HostStats(ctx context.Context, viewer Viewer) (*HostStats, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	hostID := viewer.UserID

	properties, _, err := s.properties.List(ctx, repository.PropertyQuery{HostID: &hostID})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch host stats", err)
	}
	var counts PropertyCounts
	for _, p := range properties {
		counts.Total++
		if p.IsActive {
			counts.Active++
		}
		switch p.ApprovalStatus {
		case models.ApprovalPending:
			counts.Pending++
		case models.ApprovalApproved:
			counts.Approved++
		case models.ApprovalRejected:
			counts.Rejected++
		}
	}

	agg, err := s.bookings.Aggregate(ctx, repository.BookingQuery{HostID: &hostID})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch host stats", err)
	}
	since := s.monthStart()
	monthly, err := s.bookings.Aggregate(ctx, repository.BookingQuery{HostID: &hostID, Since: &since})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch host stats", err)
	}

	bookings, err := s.bookings.List(ctx, repository.BookingQuery{HostID: &hostID})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch host stats", err)
	}

	reviews, err := s.reviews.ListByRecipient(ctx, hostID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch host stats", err)
	}

	return &HostStats{
		Properties:       counts,
		TotalBookings:    agg.Total,
		TotalRevenue:     utils.RoundCurrency(agg.Revenue),
		MonthlyRevenue:   utils.RoundCurrency(monthly.Revenue),
		BookingsByStatus: agg.ByStatus,
		AverageRating:    averageRating(reviews),
		TotalReviews:     len(reviews),
		UpcomingCheckIns: upcoming(bookings, s.now()),
		RecentBookings:   head(bookings, dashboardListSize),
	}, nil
}

// upcoming returns the next confirmed arrivals, soonest first.
func upcoming(bookings []models.Booking, now time.Time) []models.Booking {
	out := []models.Booking{}
	for _, b := range bookings {
		if b.Status == models.BookingConfirmed && !b.CheckIn.Before(now) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return head(out, dashboardListSize)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (s *DashboardService) AdminStats(ctx context.Context, viewer Viewer) (*AdminStats, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}

	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch platform stats", err)
	}
	properties, err := s.properties.CountByApproval(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch platform stats", err)
	}
	agg, err := s.bookings.Aggregate(ctx, repository.BookingQuery{})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch platform stats", err)
	}
	since := s.monthStart()
	monthly, err := s.bookings.Aggregate(ctx, repository.BookingQuery{Since: &since})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch platform stats", err)
	}
	recent, err := s.bookings.List(ctx, repository.BookingQuery{Since: &since})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch platform stats", err)
	}

	return &AdminStats{
		Users:            users,
		Properties:       properties,
		TotalBookings:    agg.Total,
		TotalRevenue:     utils.RoundCurrency(agg.Revenue),
		MonthlyRevenue:   utils.RoundCurrency(monthly.Revenue),
		BookingsByStatus: agg.ByStatus,
		RecentBookings:   head(recent, dashboardListSize),
	}, nil
}

func (s *DashboardService) Hosts(ctx context.Context, viewer Viewer) ([]repository.HostSummary, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	hosts, err := s.users.ListHosts(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch hosts", err)
	}
	return hosts, nil
}
