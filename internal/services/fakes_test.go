package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[uint]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "role":
			u.Role = v.(models.Role)
		case "password_hash":
			u.PasswordHash = v.(string)
		case "fcm_token":
			u.FCMToken = v.(string)
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "avatar":
			u.Avatar = v.(string)
		}
	}
	return nil
}

func (f *fakeUsers) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[models.Role]int64{}
	for _, u := range f.users {
		out[u.Role]++
	}
	return out, nil
}

func (f *fakeUsers) ListHosts(ctx context.Context) ([]repository.HostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.HostSummary
	for _, u := range f.users {
		if u.Role == models.RoleHost {
			out = append(out, repository.HostSummary{User: *u})
		}
	}
	return out, nil
}

type fakeProperties struct {
	mu         sync.Mutex
	properties map[uint]*models.Property
	users      *fakeUsers
	nextID     uint
	deleted    []uint
}

func newFakeProperties(users *fakeUsers, properties ...*models.Property) *fakeProperties {
	f := &fakeProperties{properties: map[uint]*models.Property{}, users: users}
	for _, p := range properties {
		f.properties[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProperties) withHost(p models.Property) *models.Property {
	if f.users != nil {
		if host, err := f.users.FindByID(context.Background(), p.HostID); err == nil {
			p.Host = host
		}
	}
	return &p
}

func (f *fakeProperties) Create(ctx context.Context, p *models.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.properties[p.ID] = &cp
	return nil
}

func (f *fakeProperties) FindByID(ctx context.Context, id uint) (*models.Property, error) {
	f.mu.Lock()
	p, ok := f.properties[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.withHost(*p), nil
}

func (f *fakeProperties) Save(ctx context.Context, p *models.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.properties[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	cp.Host = nil
	f.properties[p.ID] = &cp
	return nil
}

func (f *fakeProperties) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "is_active":
			p.IsActive = v.(bool)
		case "approval_status":
			p.ApprovalStatus = v.(models.ApprovalStatus)
		case "rejection_reason":
			p.RejectionReason = v.(string)
		case "images":
			p.Images = v.(pq.StringArray)
		}
	}
	return nil
}

func (f *fakeProperties) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.properties[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.properties, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProperties) List(ctx context.Context, q repository.PropertyQuery) ([]models.Property, int64, error) {
	f.mu.Lock()
	var all []models.Property
	for _, p := range f.properties {
		all = append(all, *p)
	}
	f.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	var out []models.Property
	for _, p := range all {
		if q.HostID != nil && p.HostID != *q.HostID {
			continue
		}
		if q.Approval != "" && p.ApprovalStatus != q.Approval {
			continue
		}
		if q.ActiveOnly && !p.IsActive {
			continue
		}
		if q.City != "" && p.City != q.City {
			continue
		}
		if q.MinGuests > 0 && p.MaxGuests < q.MinGuests {
			continue
		}
		if b := q.Bounds; b != nil {
			if p.Latitude == nil || p.Longitude == nil ||
				*p.Latitude < b.MinLat || *p.Latitude > b.MaxLat ||
				*p.Longitude < b.MinLng || *p.Longitude > b.MaxLng {
				continue
			}
		}
		out = append(out, *f.withHost(p))
	}

	total := int64(len(out))
	if q.Limit > 0 {
		out = paginate(out, q.Offset/q.Limit+1, q.Limit)
	}
	return out, total, nil
}

func (f *fakeProperties) CountByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[models.ApprovalStatus]int64{}
	for _, p := range f.properties {
		out[p.ApprovalStatus]++
	}
	return out, nil
}

// fakeBookings serialises WithPropertyLock with one mutex, standing in for
// the row lock.
type fakeBookings struct {
	lock       sync.Mutex
	mu         sync.Mutex
	bookings   map[string]*models.Booking
	properties *fakeProperties
	// createErr replaces the insert, simulating a constraint violation.
	createErr error
	lockCalls int
}

func newFakeBookings(properties *fakeProperties, bookings ...*models.Booking) *fakeBookings {
	f := &fakeBookings{bookings: map[string]*models.Booking{}, properties: properties}
	for _, b := range bookings {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeBookings) WithPropertyLock(ctx context.Context, propertyID uint, fn func(tx repository.BookingRepository) error) error {
	if _, err := f.properties.FindByID(ctx, propertyID); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.mu.Lock()
	f.lockCalls++
	f.mu.Unlock()
	return fn(f)
}

func (f *fakeBookings) ActiveForProperty(ctx context.Context, propertyID uint, excludeID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.PropertyID == propertyID && b.Status.Active() && b.ID != excludeID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (f *fakeBookings) Create(ctx context.Context, b *models.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	b, ok := f.bookings[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	if p, err := f.properties.FindByID(ctx, cp.PropertyID); err == nil {
		cp.Property = p
	}
	return &cp, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) matching(ctx context.Context, q repository.BookingQuery) []models.Booking {
	f.mu.Lock()
	var all []models.Booking
	for _, b := range f.bookings {
		all = append(all, *b)
	}
	f.mu.Unlock()

	var out []models.Booking
	for _, b := range all {
		if q.PropertyID != nil && b.PropertyID != *q.PropertyID {
			continue
		}
		if q.UserID != nil && (b.UserID == nil || *b.UserID != *q.UserID) {
			continue
		}
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		if q.Since != nil && b.CreatedAt.Before(*q.Since) {
			continue
		}
		p, err := f.properties.FindByID(ctx, b.PropertyID)
		if err == nil {
			b.Property = p
		}
		if q.HostID != nil && (p == nil || p.HostID != *q.HostID) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeBookings) List(ctx context.Context, q repository.BookingQuery) ([]models.Booking, error) {
	return f.matching(ctx, q), nil
}

func (f *fakeBookings) Aggregate(ctx context.Context, q repository.BookingQuery) (repository.BookingAggregate, error) {
	agg := repository.BookingAggregate{ByStatus: map[models.BookingStatus]int64{}}
	for _, b := range f.matching(ctx, q) {
		agg.Total++
		agg.ByStatus[b.Status]++
		if b.Status == models.BookingConfirmed || b.Status == models.BookingCompleted {
			agg.Revenue += b.TotalPrice
		}
	}
	return agg, nil
}

type fakeReviews struct {
	mu        sync.Mutex
	reviews   map[uint]*models.Review
	responses map[uint]*models.HostResponse
	nextID    uint
}

func newFakeReviews(reviews ...*models.Review) *fakeReviews {
	f := &fakeReviews{reviews: map[uint]*models.Review{}, responses: map[uint]*models.HostResponse{}}
	for _, r := range reviews {
		f.nextID++
		if r.ID == 0 {
			r.ID = f.nextID
		}
		f.reviews[r.ID] = r
	}
	return f
}

func (f *fakeReviews) Create(ctx context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.BookingID == r.BookingID {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	r.ID = f.nextID
	cp := *r
	f.reviews[r.ID] = &cp
	return nil
}

func (f *fakeReviews) FindByID(ctx context.Context, id uint) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	if resp, ok := f.responses[id]; ok {
		cp.HostResponse = resp
	}
	return &cp, nil
}

func (f *fakeReviews) FindByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReviews) filter(match func(*models.Review) bool) []models.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeReviews) ListForProperty(ctx context.Context, propertyID uint, q repository.ReviewQuery) ([]models.Review, int64, error) {
	out := f.filter(func(r *models.Review) bool { return r.PropertyID == propertyID && r.IsVisible })
	return out, int64(len(out)), nil
}

func (f *fakeReviews) PropertyAggregates(ctx context.Context, propertyID uint) (repository.ReviewAggregates, error) {
	agg := repository.ReviewAggregates{Breakdown: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	reviews := f.filter(func(r *models.Review) bool { return r.PropertyID == propertyID && r.IsVisible })
	var sum float64
	for _, r := range reviews {
		sum += float64(r.OverallRating)
		agg.Breakdown[r.OverallRating]++
	}
	agg.Count = int64(len(reviews))
	if agg.Count > 0 {
		agg.Average = sum / float64(agg.Count)
	}
	return agg, nil
}

func (f *fakeReviews) RatingsForProperties(ctx context.Context, ids []uint) (map[uint]repository.RatingSummary, error) {
	out := map[uint]repository.RatingSummary{}
	for _, id := range ids {
		agg, _ := f.PropertyAggregates(ctx, id)
		if agg.Count > 0 {
			out[id] = agg.RatingSummary
		}
	}
	return out, nil
}

func (f *fakeReviews) ListByAuthor(ctx context.Context, userID uint) ([]models.Review, error) {
	return f.filter(func(r *models.Review) bool { return r.AuthorID == userID }), nil
}

func (f *fakeReviews) ListByRecipient(ctx context.Context, userID uint) ([]models.Review, error) {
	return f.filter(func(r *models.Review) bool { return r.RecipientID == userID }), nil
}

func (f *fakeReviews) CreateResponse(ctx context.Context, resp *models.HostResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.responses[resp.ReviewID]; ok {
		return repository.ErrDuplicate
	}
	f.responses[resp.ReviewID] = resp
	return nil
}

func (f *fakeReviews) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "is_visible":
			r.IsVisible = v.(bool)
		case "is_reported":
			r.IsReported = v.(bool)
		case "report_reason":
			r.ReportReason = v.(string)
		}
	}
	return nil
}

type fakeResets struct {
	mu     sync.Mutex
	tokens []*models.PasswordResetToken
}

func (f *fakeResets) Create(ctx context.Context, t *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uint(len(f.tokens) + 1)
	f.tokens = append(f.tokens, t)
	return nil
}

func (f *fakeResets) FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResets) MarkUsed(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID == id {
			t.Used = true
		}
	}
	return nil
}

func (f *fakeResets) InvalidateForUser(ctx context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Used = true
		}
	}
	return nil
}

type fakePrefs struct {
	mu    sync.Mutex
	prefs map[uint]*models.NotificationPreference
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{prefs: map[uint]*models.NotificationPreference{}}
}

func (f *fakePrefs) Get(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[userID]
	if !ok {
		p = models.DefaultPreferences(userID)
		f.prefs[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrefs) Save(ctx context.Context, p *models.NotificationPreference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.prefs[p.UserID] = &cp
	return nil
}

type fakeCategories struct {
	categories []models.Category
}

func (f *fakeCategories) List(ctx context.Context) ([]models.Category, error) {
	return f.categories, nil
}

func (f *fakeCategories) Upsert(ctx context.Context, categories []models.Category) error {
	for _, c := range categories {
		found := false
		for _, existing := range f.categories {
			if existing.Name == c.Name {
				found = true
			}
		}
		if !found {
			c.ID = uint(len(f.categories) + 1)
			f.categories = append(f.categories, c)
		}
	}
	return nil
}

// recorder captures every notification and event raised by a service.
type recorder struct {
	mu     sync.Mutex
	calls  []string
	events []Event
}

func (r *recorder) record(name string) DispatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	return DispatchResult{Email: true}
}

func (r *recorder) called(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (r *recorder) BookingCreated(context.Context, *models.Booking, *models.Property) DispatchResult {
	return r.record("BookingCreated")
}

func (r *recorder) BookingStatusChanged(context.Context, *models.Booking, *models.Property) DispatchResult {
	return r.record("BookingStatusChanged")
}

func (r *recorder) PropertyReviewed(context.Context, *models.Property) DispatchResult {
	return r.record("PropertyReviewed")
}

func (r *recorder) Welcome(context.Context, *models.User) DispatchResult {
	return r.record("Welcome")
}

func (r *recorder) PasswordReset(ctx context.Context, u *models.User, link string) DispatchResult {
	return r.record("PasswordReset:" + link)
}

func (r *recorder) PasswordChanged(context.Context, *models.User) DispatchResult {
	return r.record("PasswordChanged")
}

func (r *recorder) NewReview(context.Context, *models.Review, *models.Property, *models.User, *models.User) DispatchResult {
	return r.record("NewReview")
}

func (r *recorder) HostResponded(context.Context, *models.Review, *models.Property, *models.User) DispatchResult {
	return r.record("HostResponded")
}

func (r *recorder) Publish(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
