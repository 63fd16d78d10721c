package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

const (
	maxPropertyImages     = 10
	defaultSearchRadiusKm = 25
)

type ImageStore interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

type PropertyInput struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	Address       string   `json:"address" binding:"required"`
	City          string   `json:"city" binding:"required"`
	Country       string   `json:"country" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" binding:"omitempty,longitude"`
	PricePerNight float64  `json:"pricePerNight" binding:"required,gt=0"`
	MaxGuests     int      `json:"maxGuests" binding:"required,min=1"`
	Bedrooms      int      `json:"bedrooms" binding:"min=0"`
	Bathrooms     int      `json:"bathrooms" binding:"min=0"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images" binding:"max=10,dive,url"`
	HostContact   string   `json:"hostContact"`
	PinLocation   string   `json:"pinLocation"`
	CategoryID    *uint    `json:"categoryId"`
}

// PropertyUpdate carries only the fields a client sent.
type PropertyUpdate struct {
	Title         *string   `json:"title" binding:"omitempty,min=1"`
	Description   *string   `json:"description"`
	Address       *string   `json:"address" binding:"omitempty,min=1"`
	City          *string   `json:"city" binding:"omitempty,min=1"`
	Country       *string   `json:"country" binding:"omitempty,min=1"`
	Latitude      *float64  `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64  `json:"longitude" binding:"omitempty,longitude"`
	PricePerNight *float64  `json:"pricePerNight" binding:"omitempty,gt=0"`
	MaxGuests     *int      `json:"maxGuests" binding:"omitempty,min=1"`
	Bedrooms      *int      `json:"bedrooms" binding:"omitempty,min=0"`
	Bathrooms     *int      `json:"bathrooms" binding:"omitempty,min=0"`
	Amenities     *[]string `json:"amenities"`
	Images        *[]string `json:"images" binding:"omitempty,max=10,dive,url"`
	HostContact   *string   `json:"hostContact"`
	PinLocation   *string   `json:"pinLocation"`
	CategoryID    *uint     `json:"categoryId"`
	IsActive      *bool     `json:"isActive"`
}

// PropertyView is a property with its review summary.
type PropertyView struct {
	models.Property
	AverageRating float64  `json:"averageRating"`
	TotalReviews  int64    `json:"totalReviews"`
	DistanceKm    *float64 `json:"distanceKm,omitempty"`
}

type PropertyList struct {
	Properties []PropertyView `json:"properties"`
	Pagination Page           `json:"pagination"`
}

type PropertySearch struct {
	City       string
	Country    string
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	Guests     int
	Category   string
	CategoryID *uint
	Latitude   *float64
	Longitude  *float64
	RadiusKm   float64
	Page       int
	Limit      int
}

type PropertyService struct {
	properties  repository.PropertyRepository
	users       repository.UserRepository
	bookings    repository.BookingRepository
	reviews     repository.ReviewRepository
	images      ImageStore
	notifier    PropertyNotifier
	events      EventPublisher
	log         *slog.Logger
	autoApprove bool
}

func NewPropertyService(
	properties repository.PropertyRepository,
	users repository.UserRepository,
	bookings repository.BookingRepository,
	reviews repository.ReviewRepository,
	images ImageStore,
	notifier PropertyNotifier,
	events EventPublisher,
	log *slog.Logger,
	autoApprove bool,
) *PropertyService {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &PropertyService{
		properties:  properties,
		users:       users,
		bookings:    bookings,
		reviews:     reviews,
		images:      images,
		notifier:    notifier,
		events:      events,
		log:         log,
		autoApprove: autoApprove,
	}
}

func (s *PropertyService) withRatings(ctx context.Context, properties []models.Property, public bool) ([]PropertyView, error) {
	ids := make([]uint, len(properties))
	for i, p := range properties {
		ids[i] = p.ID
	}

	ratings := map[uint]repository.RatingSummary{}
	if s.reviews != nil {
		r, err := s.reviews.RatingsForProperties(ctx, ids)
		if err != nil {
			return nil, err
		}
		ratings = r
	}

	views := make([]PropertyView, len(properties))
	for i, p := range properties {
		if public {
			p = p.Public()
		}
		r := ratings[p.ID]
		views[i] = PropertyView{
			Property:      p,
			AverageRating: utils.RoundCurrency(r.Average),
			TotalReviews:  r.Count,
		}
	}
	return views, nil
}

// List returns approved, active properties with host contact details hidden.
// With coordinates it searches within a radius and sorts by distance.
func (s *PropertyService) List(ctx context.Context, in PropertySearch) (*PropertyList, error) {
	page, limit := NormalizePage(in.Page, in.Limit)
	q := repository.PropertyQuery{
		City:       in.City,
		Country:    in.Country,
		Search:     in.Search,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		MinGuests:  in.Guests,
		Category:   in.Category,
		CategoryID: in.CategoryID,
		Approval:   models.ApprovalApproved,
		ActiveOnly: true,
	}

	nearby := in.Latitude != nil && in.Longitude != nil
	if !nearby {
		q.Limit = limit
		q.Offset = (page - 1) * limit
	} else {
		radius := in.RadiusKm
		if radius <= 0 {
			radius = defaultSearchRadiusKm
		}
		box := utils.GetBoundingBox(*in.Latitude, *in.Longitude, radius)
		q.Bounds = &repository.Bounds{
			MinLat: box.SouthWest.Lat, MaxLat: box.NorthEast.Lat,
			MinLng: box.SouthWest.Lng, MaxLng: box.NorthEast.Lng,
		}
		in.RadiusKm = radius
	}

	properties, total, err := s.properties.List(ctx, q)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}

	var distances map[uint]float64
	if nearby {
		properties, distances = withinRadius(properties, *in.Latitude, *in.Longitude, in.RadiusKm)
		total = int64(len(properties))
		properties = paginate(properties, page, limit)
	}

	views, err := s.withRatings(ctx, properties, true)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}
	for i := range views {
		if d, ok := distances[views[i].ID]; ok {
			d = utils.RoundCurrency(d)
			views[i].DistanceKm = &d
		}
	}

	return &PropertyList{Properties: views, Pagination: newPage(page, limit, total)}, nil
}

func withinRadius(properties []models.Property, lat, lng, radiusKm float64) ([]models.Property, map[uint]float64) {
	distances := make(map[uint]float64, len(properties))
	var out []models.Property
	for _, p := range properties {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		d := utils.HaversineDistance(lat, lng, *p.Latitude, *p.Longitude)
		if d > radiusKm {
			continue
		}
		distances[p.ID] = d
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return distances[out[i].ID] < distances[out[j].ID] })
	return out, distances
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *PropertyService) find(ctx context.Context, id uint) (*models.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Property")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch property", err)
	}
	return p, nil
}

// findOwned loads a property the viewer may manage.
func (s *PropertyService) findOwned(ctx context.Context, viewer Viewer, id uint) (*models.Property, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.Owns(p.HostID) {
		return nil, apperrors.Forbidden("You can only manage your own properties")
	}
	return p, nil
}

// Get shows a listing. Unapproved or inactive listings are only visible to
// their host and admins, who also see the contact details.
func (s *PropertyService) Get(ctx context.Context, viewer Viewer, id uint) (*PropertyView, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := viewer.Owns(p.HostID)
	if !p.Bookable() && !owner {
		return nil, apperrors.NotFound("Property")
	}

	views, err := s.withRatings(ctx, []models.Property{*p}, !owner)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch property", err)
	}
	return &views[0], nil
}

func (s *PropertyService) Create(ctx context.Context, viewer Viewer, in PropertyInput) (*models.Property, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperrors.Validation("Latitude and longitude must be provided together")
	}

	p := &models.Property{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Address:        strings.TrimSpace(in.Address),
		City:           strings.TrimSpace(in.City),
		Country:        strings.TrimSpace(in.Country),
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		PricePerNight:  in.PricePerNight,
		MaxGuests:      in.MaxGuests,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		Amenities:      pq.StringArray(cleanList(in.Amenities)),
		Images:         pq.StringArray(cleanList(in.Images)),
		HostContact:    strings.TrimSpace(in.HostContact),
		PinLocation:    strings.TrimSpace(in.PinLocation),
		CategoryID:     in.CategoryID,
		HostID:         viewer.UserID,
		IsActive:       true,
		ApprovalStatus: models.ApprovalPending,
	}
	if s.autoApprove {
		p.ApprovalStatus = models.ApprovalApproved
	}

	if err := s.properties.Create(ctx, p); err != nil {
		return nil, apperrors.Internal("Failed to create property", err)
	}

	if viewer.Role == models.RoleUser || viewer.Role == "" {
		if err := s.users.UpdateFields(ctx, viewer.UserID, map[string]any{"role": models.RoleHost}); err != nil {
			s.log.Error("promote user to host failed", "userId", viewer.UserID, "error", err)
		}
	}

	s.log.Info("property created", "propertyId", p.ID, "hostId", p.HostID, "status", p.ApprovalStatus)
	if p.ApprovalStatus == models.ApprovalPending {
		s.events.Publish(ctx, Event{
			Type:  EventPropertySubmitted,
			Data:  PropertyEvent{PropertyID: p.ID, Title: p.Title, HostID: p.HostID, Status: p.ApprovalStatus},
			Roles: []models.Role{models.RoleAdmin},
		})
	}
	return p, nil
}

// Update applies a partial update. A host editing a rejected listing sends
// it back to review.
func (s *PropertyService) Update(ctx context.Context, viewer Viewer, id uint, in PropertyUpdate) (*models.Property, error) {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&p.Title, in.Title)
	setString(&p.Description, in.Description)
	setString(&p.Address, in.Address)
	setString(&p.City, in.City)
	setString(&p.Country, in.Country)
	setString(&p.HostContact, in.HostContact)
	setString(&p.PinLocation, in.PinLocation)

	if in.Latitude != nil {
		p.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = in.Longitude
	}
	if in.PricePerNight != nil {
		p.PricePerNight = *in.PricePerNight
	}
	if in.MaxGuests != nil {
		p.MaxGuests = *in.MaxGuests
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.Amenities != nil {
		p.Amenities = pq.StringArray(cleanList(*in.Amenities))
	}
	if in.Images != nil {
		p.Images = pq.StringArray(cleanList(*in.Images))
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if p.ApprovalStatus == models.ApprovalRejected && !viewer.IsAdmin() {
		p.ApprovalStatus = models.ApprovalPending
		p.RejectionReason = ""
	}

	if err := s.properties.Save(ctx, p); err != nil {
		return nil, apperrors.Internal("Failed to update property", err)
	}
	return p, nil
}

// Deactivate hides a listing without touching its bookings.
func (s *PropertyService) Deactivate(ctx context.Context, viewer Viewer, id uint) error {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err := s.properties.UpdateFields(ctx, p.ID, map[string]any{"is_active": false}); err != nil {
		return apperrors.Internal("Failed to delete property", err)
	}
	return nil
}

func (s *PropertyService) Toggle(ctx context.Context, viewer Viewer, id uint) (*models.Property, error) {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	if err := s.properties.UpdateFields(ctx, p.ID, map[string]any{"is_active": p.IsActive}); err != nil {
		return nil, apperrors.Internal("Failed to update property", err)
	}
	return p, nil
}

type RemovalResult struct {
	// Deleted is true when the row was removed; false when the listing had
	// booking history and was deactivated instead.
	Deleted bool `json:"deleted"`
}

// Remove deletes a listing with no active bookings. Listings with booking
// history are deactivated instead, since bookings are never deleted.
func (s *PropertyService) Remove(ctx context.Context, viewer Viewer, id uint) (*RemovalResult, error) {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	active, err := s.bookings.ActiveForProperty(ctx, p.ID, "")
	if err != nil {
		return nil, apperrors.Internal("Failed to delete property", err)
	}
	if len(active) > 0 {
		return nil, apperrors.Conflict("Cannot delete a property with active bookings").WithDetails(map[string]any{
			"activeBookings": len(active),
		})
	}

	history, err := s.bookings.Aggregate(ctx, repository.BookingQuery{PropertyID: &p.ID})
	if err != nil {
		return nil, apperrors.Internal("Failed to delete property", err)
	}
	if history.Total > 0 {
		if err := s.properties.UpdateFields(ctx, p.ID, map[string]any{"is_active": false}); err != nil {
			return nil, apperrors.Internal("Failed to delete property", err)
		}
		return &RemovalResult{Deleted: false}, nil
	}

	if err := s.properties.Delete(ctx, p.ID); err != nil {
		return nil, apperrors.Internal("Failed to delete property", err)
	}
	if s.images != nil {
		for _, url := range p.Images {
			if err := s.images.DeleteImage(ctx, url); err != nil {
				s.log.Warn("delete property image failed", "propertyId", p.ID, "url", url, "error", err)
			}
		}
	}
	s.log.Info("property deleted", "propertyId", p.ID, "by", viewer.UserID)
	return &RemovalResult{Deleted: true}, nil
}

// ForHost lists every property of a host regardless of approval.
func (s *PropertyService) ForHost(ctx context.Context, viewer Viewer) ([]PropertyView, error) {
	if !viewer.Authenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	properties, _, err := s.properties.List(ctx, repository.PropertyQuery{HostID: &viewer.UserID})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}
	views, err := s.withRatings(ctx, properties, false)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}
	return views, nil
}

// AddImages uploads files and appends their URLs to the listing.
func (s *PropertyService) AddImages(ctx context.Context, viewer Viewer, id uint, files []*multipart.FileHeader) (*models.Property, error) {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.Validation("No images provided")
	}
	if len(p.Images)+len(files) > maxPropertyImages {
		return nil, apperrors.Validation(fmt.Sprintf("A property can have at most %d images", maxPropertyImages))
	}
	if s.images == nil {
		return nil, apperrors.Unavailable("Image storage")
	}

	for _, f := range files {
		url, err := s.images.UploadImage(ctx, f, fmt.Sprintf("properties/%d", p.ID))
		if errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrUnsupportedType) {
			return nil, apperrors.Validation(fmt.Sprintf("%s: %v", f.Filename, err))
		}
		if err != nil {
			return nil, apperrors.Internal("Failed to upload image", err)
		}
		p.Images = append(p.Images, url)
	}

	if err := s.properties.UpdateFields(ctx, p.ID, map[string]any{"images": p.Images}); err != nil {
		return nil, apperrors.Internal("Failed to update property", err)
	}
	return p, nil
}

func (s *PropertyService) RemoveImage(ctx context.Context, viewer Viewer, id uint, url string) (*models.Property, error) {
	p, err := s.findOwned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	kept := make(pq.StringArray, 0, len(p.Images))
	found := false
	for _, img := range p.Images {
		if img == url {
			found = true
			continue
		}
		kept = append(kept, img)
	}
	if !found {
		return nil, apperrors.NotFound("Image")
	}

	if err := s.properties.UpdateFields(ctx, p.ID, map[string]any{"images": kept}); err != nil {
		return nil, apperrors.Internal("Failed to update property", err)
	}
	p.Images = kept
	if s.images != nil {
		if err := s.images.DeleteImage(ctx, url); err != nil {
			s.log.Warn("delete property image failed", "propertyId", p.ID, "url", url, "error", err)
		}
	}
	return p, nil
}

// Approve and Reject are the admin review of a submitted listing.
func (s *PropertyService) Approve(ctx context.Context, viewer Viewer, id uint) (*models.Property, error) {
	return s.review(ctx, viewer, id, models.ApprovalApproved, "")
}

func (s *PropertyService) Reject(ctx context.Context, viewer Viewer, id uint, reason string) (*models.Property, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("Rejection reason is required")
	}
	return s.review(ctx, viewer, id, models.ApprovalRejected, reason)
}

func (s *PropertyService) review(ctx context.Context, viewer Viewer, id uint, status models.ApprovalStatus, reason string) (*models.Property, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	p.ApprovalStatus = status
	p.RejectionReason = reason
	err = s.properties.UpdateFields(ctx, p.ID, map[string]any{
		"approval_status":  status,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to update property", err)
	}

	s.log.Info("property reviewed", "propertyId", p.ID, "status", status, "by", viewer.UserID)
	if s.notifier != nil {
		s.notifier.PropertyReviewed(ctx, p)
	}
	s.events.Publish(ctx, Event{
		Type:    EventPropertyReviewed,
		Data:    PropertyEvent{PropertyID: p.ID, Title: p.Title, HostID: p.HostID, Status: status, Reason: reason},
		UserIDs: []uint{p.HostID},
	})
	return p, nil
}

type AdminPropertyFilter struct {
	Status models.ApprovalStatus
	Search string
	Page   int
	Limit  int
}

// AdminList shows every listing, unredacted, for moderation.
func (s *PropertyService) AdminList(ctx context.Context, viewer Viewer, f AdminPropertyFilter) (*PropertyList, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.Validation("Invalid approval status")
	}

	page, limit := NormalizePage(f.Page, f.Limit)
	properties, total, err := s.properties.List(ctx, repository.PropertyQuery{
		Approval: f.Status,
		Search:   f.Search,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}

	views, err := s.withRatings(ctx, properties, false)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch properties", err)
	}
	return &PropertyList{Properties: views, Pagination: newPage(page, limit, total)}, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
