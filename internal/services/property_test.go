package services

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	uploaded []string
	deleted  []string
}

func (f *fakeImages) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	url := "https://cdn.example.com/" + folder + "/" + file.Filename
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) DeleteImage(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type propertyFixture struct {
	svc        *PropertyService
	users      *fakeUsers
	properties *fakeProperties
	bookings   *fakeBookings
	reviews    *fakeReviews
	images     *fakeImages
	rec        *recorder
}

func newPropertyFixture(autoApprove bool, properties ...*models.Property) *propertyFixture {
	users := testUsers()
	props := newFakeProperties(users, properties...)
	bookings := newFakeBookings(props)
	reviews := newFakeReviews()
	images := &fakeImages{}
	rec := &recorder{}
	return &propertyFixture{
		svc:        NewPropertyService(props, users, bookings, reviews, images, rec, rec, nil, autoApprove),
		users:      users,
		properties: props,
		bookings:   bookings,
		reviews:    reviews,
		images:     images,
		rec:        rec,
	}
}

func float(v float64) *float64 { return &v }

func listingInput() PropertyInput {
	return PropertyInput{
		Title:         " Lamu Stone House ",
		Description:   "Swahili house in the old town",
		Address:       "Harambee Ave",
		City:          "Lamu",
		Country:       "Kenya",
		PricePerNight: 120,
		MaxGuests:     6,
		Bedrooms:      3,
		Bathrooms:     2,
		Amenities:     []string{"wifi", " pool ", "wifi", ""},
		HostContact:   "+254711000003",
	}
}

func TestCreateProperty_PendingAndPromotesGuest(t *testing.T) {
	f := newPropertyFixture(false)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, guestViewer, listingInput())
	require.NoError(t, err)
	assert.Equal(t, "Lamu Stone House", p.Title)
	assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	assert.True(t, p.IsActive)
	assert.Equal(t, guestID, p.HostID)
	assert.Equal(t, []string{"wifi", "pool"}, []string(p.Amenities))

	u, err := f.users.FindByID(ctx, guestID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleHost, u.Role)

	require.Len(t, f.rec.events, 1)
	assert.Equal(t, EventPropertySubmitted, f.rec.events[0].Type)
	assert.Equal(t, []models.Role{models.RoleAdmin}, f.rec.events[0].Roles)
}

func TestCreateProperty_AutoApprove(t *testing.T) {
	f := newPropertyFixture(true)

	p, err := f.svc.Create(context.Background(), hostViewer, listingInput())
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, p.ApprovalStatus)
	assert.Empty(t, f.rec.events)
}

func TestCreateProperty_Validation(t *testing.T) {
	f := newPropertyFixture(false)

	_, err := f.svc.Create(context.Background(), Viewer{}, listingInput())
	requireAppError(t, err, apperrors.CodeUnauthorized, "")

	in := listingInput()
	in.Latitude = float(-2.27)
	_, err = f.svc.Create(context.Background(), hostViewer, in)
	requireAppError(t, err, apperrors.CodeValidation, "Latitude and longitude must be provided together")
}

func TestListProperties_OnlyApprovedActiveAndRedacted(t *testing.T) {
	approved := testListing()
	pending := testListing()
	pending.ID = 11
	pending.ApprovalStatus = models.ApprovalPending
	inactive := testListing()
	inactive.ID = 12
	inactive.IsActive = false
	f := newPropertyFixture(false, approved, pending, inactive)

	list, err := f.svc.List(context.Background(), PropertySearch{})
	require.NoError(t, err)
	require.Len(t, list.Properties, 1)

	p := list.Properties[0]
	assert.Equal(t, listingID, p.ID)
	assert.Empty(t, p.HostContact)
	assert.Empty(t, p.PinLocation)
	require.NotNil(t, p.Host)
	assert.Empty(t, p.Host.Email)
	assert.Equal(t, int64(1), list.Pagination.Total)
}

func TestListProperties_Nearby(t *testing.T) {
	near := testListing()
	near.Latitude, near.Longitude = float(-4.2767), float(39.5950)
	far := testListing()
	far.ID = 11
	far.Latitude, far.Longitude = float(-1.2921), float(36.8219)
	nearer := testListing()
	nearer.ID = 12
	nearer.Latitude, nearer.Longitude = float(-4.2800), float(39.5900)
	f := newPropertyFixture(false, near, far, nearer)

	list, err := f.svc.List(context.Background(), PropertySearch{
		Latitude:  float(-4.2800),
		Longitude: float(39.5900),
		RadiusKm:  10,
	})
	require.NoError(t, err)
	require.Len(t, list.Properties, 2)
	assert.Equal(t, uint(12), list.Properties[0].ID)
	assert.Equal(t, listingID, list.Properties[1].ID)
	require.NotNil(t, list.Properties[1].DistanceKm)
	assert.Less(t, *list.Properties[1].DistanceKm, 2.0)
}

func TestGetProperty_Visibility(t *testing.T) {
	pending := testListing()
	pending.ApprovalStatus = models.ApprovalPending
	f := newPropertyFixture(false, pending)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, Viewer{}, listingID)
	requireAppError(t, err, apperrors.CodeNotFound, "Property not found")

	_, err = f.svc.Get(ctx, guestViewer, listingID)
	requireAppError(t, err, apperrors.CodeNotFound, "")

	view, err := f.svc.Get(ctx, hostViewer, listingID)
	require.NoError(t, err)
	assert.Equal(t, "+254711000001", view.HostContact)

	_, err = f.svc.Get(ctx, adminViewer, listingID)
	require.NoError(t, err)
}

func TestGetProperty_IncludesRating(t *testing.T) {
	f := newPropertyFixture(false, testListing())
	f.reviews = newFakeReviews(
		&models.Review{PropertyID: listingID, OverallRating: 5, IsVisible: true, BookingID: "a"},
		&models.Review{PropertyID: listingID, OverallRating: 4, IsVisible: true, BookingID: "b"},
		&models.Review{PropertyID: listingID, OverallRating: 1, IsVisible: false, BookingID: "c"},
	)
	f.svc.reviews = f.reviews

	view, err := f.svc.Get(context.Background(), Viewer{}, listingID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, view.AverageRating, 0.001)
	assert.Equal(t, int64(2), view.TotalReviews)
	assert.Empty(t, view.HostContact)
}

func TestUpdateProperty(t *testing.T) {
	rejected := testListing()
	rejected.ApprovalStatus = models.ApprovalRejected
	rejected.RejectionReason = "Blurry photos"
	f := newPropertyFixture(false, rejected)
	ctx := context.Background()

	title := "Diani Beach Cottage, renovated"
	_, err := f.svc.Update(ctx, guestViewer, listingID, PropertyUpdate{Title: &title})
	requireAppError(t, err, apperrors.CodeForbidden, "You can only manage your own properties")

	price := 150.0
	p, err := f.svc.Update(ctx, hostViewer, listingID, PropertyUpdate{Title: &title, PricePerNight: &price})
	require.NoError(t, err)
	assert.Equal(t, title, p.Title)
	assert.Equal(t, 150.0, p.PricePerNight)
	assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	assert.Empty(t, p.RejectionReason)
}

func TestRemoveProperty(t *testing.T) {
	ctx := context.Background()

	t.Run("refused with active bookings", func(t *testing.T) {
		f := newPropertyFixture(false, testListing())
		f.bookings.bookings["b1"] = &models.Booking{ID: "b1", PropertyID: listingID, Status: models.BookingConfirmed}

		_, err := f.svc.Remove(ctx, hostViewer, listingID)
		requireAppError(t, err, apperrors.CodeConflict, "Cannot delete a property with active bookings")
		assert.Empty(t, f.properties.deleted)
	})

	t.Run("deactivated with booking history", func(t *testing.T) {
		f := newPropertyFixture(false, testListing())
		f.bookings.bookings["b1"] = &models.Booking{ID: "b1", PropertyID: listingID, Status: models.BookingCompleted}

		res, err := f.svc.Remove(ctx, hostViewer, listingID)
		require.NoError(t, err)
		assert.False(t, res.Deleted)
		assert.False(t, f.properties.properties[listingID].IsActive)
	})

	t.Run("deleted without bookings", func(t *testing.T) {
		p := testListing()
		p.Images = []string{"https://cdn.example.com/properties/10/a.jpg"}
		f := newPropertyFixture(false, p)

		res, err := f.svc.Remove(ctx, adminViewer, listingID)
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.Equal(t, []uint{listingID}, f.properties.deleted)
		assert.Equal(t, []string{"https://cdn.example.com/properties/10/a.jpg"}, f.images.deleted)
	})
}

func TestToggleAndDeactivate(t *testing.T) {
	f := newPropertyFixture(false, testListing())
	ctx := context.Background()

	p, err := f.svc.Toggle(ctx, hostViewer, listingID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	p, err = f.svc.Toggle(ctx, hostViewer, listingID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	require.NoError(t, f.svc.Deactivate(ctx, hostViewer, listingID))
	assert.False(t, f.properties.properties[listingID].IsActive)
}

func TestPropertyImages(t *testing.T) {
	f := newPropertyFixture(false, testListing())
	ctx := context.Background()

	files := []*multipart.FileHeader{{Filename: "a.jpg"}, {Filename: "b.png"}}
	p, err := f.svc.AddImages(ctx, hostViewer, listingID, files)
	require.NoError(t, err)
	assert.Len(t, p.Images, 2)

	p, err = f.svc.RemoveImage(ctx, hostViewer, listingID, p.Images[0])
	require.NoError(t, err)
	assert.Len(t, p.Images, 1)
	assert.Len(t, f.images.deleted, 1)

	_, err = f.svc.RemoveImage(ctx, hostViewer, listingID, "https://cdn.example.com/missing.jpg")
	requireAppError(t, err, apperrors.CodeNotFound, "Image not found")

	many := make([]*multipart.FileHeader, 10)
	for i := range many {
		many[i] = &multipart.FileHeader{Filename: "x.jpg"}
	}
	_, err = f.svc.AddImages(ctx, hostViewer, listingID, many)
	requireAppError(t, err, apperrors.CodeValidation, "A property can have at most 10 images")
}

func TestApproveAndReject(t *testing.T) {
	pending := testListing()
	pending.ApprovalStatus = models.ApprovalPending
	f := newPropertyFixture(false, pending)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, hostViewer, listingID)
	requireAppError(t, err, apperrors.CodeForbidden, "Admin access required")

	_, err = f.svc.Reject(ctx, adminViewer, listingID, "  ")
	requireAppError(t, err, apperrors.CodeValidation, "Rejection reason is required")

	p, err := f.svc.Reject(ctx, adminViewer, listingID, "Photos missing")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, p.ApprovalStatus)
	assert.Equal(t, "Photos missing", f.properties.properties[listingID].RejectionReason)

	p, err = f.svc.Approve(ctx, adminViewer, listingID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, p.ApprovalStatus)
	assert.Empty(t, f.properties.properties[listingID].RejectionReason)

	assert.True(t, f.rec.called("PropertyReviewed"))
	assert.Equal(t, []string{EventPropertyReviewed, EventPropertyReviewed}, f.rec.eventTypes())
	assert.Equal(t, []uint{hostID}, f.rec.events[0].UserIDs)
}

func TestAdminListAndForHost(t *testing.T) {
	pending := testListing()
	pending.ID = 11
	pending.ApprovalStatus = models.ApprovalPending
	f := newPropertyFixture(false, testListing(), pending)
	ctx := context.Background()

	list, err := f.svc.AdminList(ctx, adminViewer, AdminPropertyFilter{Status: models.ApprovalPending})
	require.NoError(t, err)
	require.Len(t, list.Properties, 1)
	assert.Equal(t, uint(11), list.Properties[0].ID)
	assert.NotEmpty(t, list.Properties[0].HostContact)

	_, err = f.svc.AdminList(ctx, hostViewer, AdminPropertyFilter{})
	requireAppError(t, err, apperrors.CodeForbidden, "")

	mine, err := f.svc.ForHost(ctx, hostViewer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
