package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

const (
	trendMonths   = 6
	recentReviews = 5
)

type CreateReviewInput struct {
	BookingID           string   `json:"bookingId" binding:"required,uuid"`
	OverallRating       int      `json:"overallRating" binding:"omitempty,rating"`
	CleanlinessRating   *int     `json:"cleanlinessRating" binding:"omitempty,rating"`
	AccuracyRating      *int     `json:"accuracyRating" binding:"omitempty,rating"`
	CommunicationRating *int     `json:"communicationRating" binding:"omitempty,rating"`
	LocationRating      *int     `json:"locationRating" binding:"omitempty,rating"`
	CheckInRating       *int     `json:"checkInRating" binding:"omitempty,rating"`
	ValueRating         *int     `json:"valueRating" binding:"omitempty,rating"`
	Comment             string   `json:"comment" binding:"max=2000"`
	Images              []string `json:"images" binding:"max=5,dive,url"`
}

func (in *CreateReviewInput) subratings() []*int {
	return []*int{
		in.CleanlinessRating,
		in.AccuracyRating,
		in.CommunicationRating,
		in.LocationRating,
		in.CheckInRating,
		in.ValueRating,
	}
}

// overall falls back to the rounded mean of the category ratings.
func (in *CreateReviewInput) overall() int {
	if in.OverallRating != 0 {
		return in.OverallRating
	}
	sum, n := 0, 0
	for _, r := range in.subratings() {
		if r != nil {
			sum += *r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

type PropertyReviews struct {
	Reviews    []models.Review             `json:"reviews"`
	Stats      repository.ReviewAggregates `json:"stats"`
	Pagination Page                        `json:"pagination"`
}

type MonthlyRating struct {
	Month     string  `json:"month"`
	AvgRating float64 `json:"avgRating"`
	Count     int     `json:"count"`
}

type ReviewAnalytics struct {
	TotalReviews  int             `json:"totalReviews"`
	Averages      CategoryAverage `json:"averages"`
	MonthlyTrends []MonthlyRating `json:"monthlyTrends"`
	RecentReviews []models.Review `json:"recentReviews"`
}

type CategoryAverage struct {
	Overall       float64 `json:"overall"`
	Cleanliness   float64 `json:"cleanliness"`
	Accuracy      float64 `json:"accuracy"`
	Communication float64 `json:"communication"`
	Location      float64 `json:"location"`
	CheckIn       float64 `json:"checkIn"`
	Value         float64 `json:"value"`
}

type EligibleProperty struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Host  string `json:"host"`
}

type ReviewEligibility struct {
	IsEligible        bool                 `json:"isEligible"`
	HasExistingReview bool                 `json:"hasExistingReview"`
	BookingStatus     models.BookingStatus `json:"bookingStatus"`
	DaysSinceCheckout int                  `json:"daysSinceCheckout"`
	Property          EligibleProperty     `json:"property"`
}

type ReviewService struct {
	reviews    repository.ReviewRepository
	bookings   repository.BookingRepository
	users      repository.UserRepository
	properties repository.PropertyRepository
	notifier   ReviewNotifier
	events     EventPublisher
	log        *slog.Logger
	now        func() time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	properties repository.PropertyRepository,
	notifier ReviewNotifier,
	events EventPublisher,
	log *slog.Logger,
) *ReviewService {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReviewService{
		reviews:    reviews,
		bookings:   bookings,
		users:      users,
		properties: properties,
		notifier:   notifier,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// guestBooking loads a booking made by the viewer, either while signed in
// or under the viewer's email.
func (s *ReviewService) guestBooking(ctx context.Context, viewer Viewer, bookingID string) (*models.Booking, *models.User, error) {
	if !viewer.Authenticated() {
		return nil, nil, apperrors.Unauthorized("Authentication required")
	}
	user, err := s.users.FindByID(ctx, viewer.UserID)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NotFound("Booking")
	}
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to fetch booking", err)
	}

	own := booking.UserID != nil && *booking.UserID == user.ID
	if !own && booking.GuestEmail != models.NormalizeEmail(user.Email) {
		return nil, nil, apperrors.NotFound("Booking")
	}
	if booking.Property == nil {
		return nil, nil, apperrors.Internal("Failed to fetch booking", errors.New("booking has no property"))
	}
	return booking, user, nil
}

// Create reviews a completed stay. Each booking takes one review, addressed
// to the property's host.
func (s *ReviewService) Create(ctx context.Context, viewer Viewer, in CreateReviewInput) (*models.Review, error) {
	overall := in.overall()
	if overall < 1 || overall > 5 {
		return nil, apperrors.Validation("Overall rating must be between 1 and 5")
	}

	booking, author, err := s.guestBooking(ctx, viewer, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperrors.Validation("Only completed stays can be reviewed")
	}

	if _, err := s.reviews.FindByBooking(ctx, booking.ID); err == nil {
		return nil, apperrors.Conflict("You have already reviewed this booking")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to create review", err)
	}

	property := booking.Property
	review := &models.Review{
		BookingID:           booking.ID,
		PropertyID:          property.ID,
		AuthorID:            author.ID,
		RecipientID:         property.HostID,
		OverallRating:       overall,
		CleanlinessRating:   in.CleanlinessRating,
		AccuracyRating:      in.AccuracyRating,
		CommunicationRating: in.CommunicationRating,
		LocationRating:      in.LocationRating,
		CheckInRating:       in.CheckInRating,
		ValueRating:         in.ValueRating,
		Comment:             strings.TrimSpace(in.Comment),
		Images:              pq.StringArray(cleanList(in.Images)),
		IsVisible:           true,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("You have already reviewed this booking")
		}
		return nil, apperrors.Internal("Failed to create review", err)
	}
	review.Author = author

	s.log.Info("review created", "reviewId", review.ID, "propertyId", property.ID, "rating", overall)
	if s.notifier != nil && property.Host != nil {
		s.notifier.NewReview(ctx, review, property, property.Host, author)
	}
	s.events.Publish(ctx, Event{
		Type: EventReviewCreated,
		Data: map[string]any{
			"reviewId":      review.ID,
			"propertyId":    property.ID,
			"overallRating": overall,
		},
		UserIDs: []uint{property.HostID},
	})
	return review, nil
}

func (s *ReviewService) ForProperty(ctx context.Context, propertyID uint, sortBy string, page, limit int) (*PropertyReviews, error) {
	page, limit = NormalizePage(page, limit)
	order := repository.ReviewSort(sortBy)
	switch order {
	case repository.SortNewest, repository.SortOldest, repository.SortHighest, repository.SortLowest:
	default:
		order = repository.SortNewest
	}

	reviews, total, err := s.reviews.ListForProperty(ctx, propertyID, repository.ReviewQuery{
		Sort:   order,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch reviews", err)
	}
	stats, err := s.reviews.PropertyAggregates(ctx, propertyID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch reviews", err)
	}
	roundAggregates(&stats)

	return &PropertyReviews{Reviews: reviews, Stats: stats, Pagination: newPage(page, limit, total)}, nil
}

func roundAggregates(a *repository.ReviewAggregates) {
	for _, v := range []*float64{
		&a.Average, &a.Cleanliness, &a.Accuracy, &a.Communication, &a.Location, &a.CheckIn, &a.Value,
	} {
		*v = roundRating(*v)
	}
}

func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// ForUser lists reviews the user wrote (given) or received as a host.
func (s *ReviewService) ForUser(ctx context.Context, viewer Viewer, userID uint, kind string) ([]models.Review, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	var (
		reviews []models.Review
		err     error
	)
	if kind == "received" {
		reviews, err = s.reviews.ListByRecipient(ctx, userID)
	} else {
		reviews, err = s.reviews.ListByAuthor(ctx, userID)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch reviews", err)
	}

	if viewer.Owns(userID) {
		return reviews, nil
	}
	visible := reviews[:0]
	for _, r := range reviews {
		if r.IsVisible {
			visible = append(visible, r)
		}
	}
	return visible, nil
}

func (s *ReviewService) find(ctx context.Context, id uint) (*models.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Review")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch review", err)
	}
	return r, nil
}

// Respond attaches the host's single public reply to a review.
func (s *ReviewService) Respond(ctx context.Context, viewer Viewer, id uint, text string) (*models.Review, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("Response is required")
	}

	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.RecipientID != viewer.UserID {
		return nil, apperrors.Forbidden("Only the reviewed host can respond")
	}
	if review.HostResponse != nil {
		return nil, apperrors.Conflict("You have already responded to this review")
	}

	resp := &models.HostResponse{ReviewID: review.ID, HostID: viewer.UserID, Response: text}
	if err := s.reviews.CreateResponse(ctx, resp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("You have already responded to this review")
		}
		return nil, apperrors.Internal("Failed to save response", err)
	}
	review.HostResponse = resp

	if s.notifier != nil && review.Author != nil && review.Property != nil {
		s.notifier.HostResponded(ctx, review, review.Property, review.Author)
	}
	return review, nil
}

// Analytics summarises the reviews a host received.
func (s *ReviewService) Analytics(ctx context.Context, viewer Viewer, hostID uint) (*ReviewAnalytics, error) {
	if !viewer.Owns(hostID) {
		return nil, apperrors.Forbidden("You can only view your own review analytics")
	}
	reviews, err := s.reviews.ListByRecipient(ctx, hostID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch review analytics", err)
	}
	return analyze(reviews, s.now()), nil
}

func analyze(reviews []models.Review, now time.Time) *ReviewAnalytics {
	out := &ReviewAnalytics{TotalReviews: len(reviews), MonthlyTrends: []MonthlyRating{}}

	var overall float64
	cats := make([]struct{ sum, n float64 }, 6)
	for _, r := range reviews {
		overall += float64(r.OverallRating)
		for i, v := range []*int{
			r.CleanlinessRating, r.AccuracyRating, r.CommunicationRating,
			r.LocationRating, r.CheckInRating, r.ValueRating,
		} {
			if v != nil {
				cats[i].sum += float64(*v)
				cats[i].n++
			}
		}
	}
	avg := func(sum, n float64) float64 {
		if n == 0 {
			return 0
		}
		return roundRating(sum / n)
	}
	out.Averages = CategoryAverage{
		Overall:       avg(overall, float64(len(reviews))),
		Cleanliness:   avg(cats[0].sum, cats[0].n),
		Accuracy:      avg(cats[1].sum, cats[1].n),
		Communication: avg(cats[2].sum, cats[2].n),
		Location:      avg(cats[3].sum, cats[3].n),
		CheckIn:       avg(cats[4].sum, cats[4].n),
		Value:         avg(cats[5].sum, cats[5].n),
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	type bucket struct{ sum, n int }
	months := map[string]*bucket{}
	for _, r := range reviews {
		if r.CreatedAt.Before(start) {
			continue
		}
		key := r.CreatedAt.UTC().Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &bucket{}
			months[key] = b
		}
		b.sum += r.OverallRating
		b.n++
	}
	for key, b := range months {
		out.MonthlyTrends = append(out.MonthlyTrends, MonthlyRating{
			Month:     key,
			AvgRating: roundRating(float64(b.sum) / float64(b.n)),
			Count:     b.n,
		})
	}
	sort.Slice(out.MonthlyTrends, func(i, j int) bool { return out.MonthlyTrends[i].Month < out.MonthlyTrends[j].Month })

	recent := append([]models.Review(nil), reviews...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentReviews {
		recent = recent[:recentReviews]
	}
	out.RecentReviews = recent
	return out
}

func (s *ReviewService) Report(ctx context.Context, viewer Viewer, id uint, reason string) error {
	if !viewer.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.Validation("Report reason is required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.reviews.UpdateFields(ctx, id, map[string]any{"is_reported": true, "report_reason": reason}); err != nil {
		return apperrors.Internal("Failed to report review", err)
	}
	s.log.Info("review reported", "reviewId", id, "by", viewer.UserID)
	return nil
}

// Moderate sets a review's visibility and resolves any open report.
func (s *ReviewService) Moderate(ctx context.Context, viewer Viewer, id uint, visible bool) error {
	if !viewer.IsAdmin() {
		return apperrors.Forbidden("Admin access required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.reviews.UpdateFields(ctx, id, map[string]any{"is_visible": visible, "is_reported": false}); err != nil {
		return apperrors.Internal("Failed to moderate review", err)
	}
	s.log.Info("review moderated", "reviewId", id, "visible", visible, "by", viewer.UserID)
	return nil
}

func (s *ReviewService) Eligibility(ctx context.Context, viewer Viewer, bookingID string) (*ReviewEligibility, error) {
	booking, _, err := s.guestBooking(ctx, viewer, bookingID)
	if err != nil {
		return nil, err
	}

	_, err = s.reviews.FindByBooking(ctx, booking.ID)
	hasReview := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check eligibility", err)
	}

	days := 0
	if since := s.now().Sub(booking.CheckOut); since > 0 {
		days = int(since / (24 * time.Hour))
	}

	p := booking.Property
	host := ""
	if p.Host != nil {
		host = p.Host.FullName()
	}
	return &ReviewEligibility{
		IsEligible:        booking.Status == models.BookingCompleted && !hasReview,
		HasExistingReview: hasReview,
		BookingStatus:     booking.Status,
		DaysSinceCheckout: days,
		Property:          EligibleProperty{ID: p.ID, Title: p.Title, Host: host},
	}, nil
}

// averageRating is used by the host dashboard.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.OverallRating
	}
	return utils.RoundCurrency(float64(sum) / float64(len(reviews)))
}
