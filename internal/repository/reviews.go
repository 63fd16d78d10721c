package repository

import (
	"context"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
)

type GormReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	return translate(r.db.WithContext(ctx).Omit("Booking", "Property", "Author", "Recipient", "HostResponse").Create(rev).Error)
}

func (r *GormReviewRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("HostResponse").
		Preload("Property")
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uint) (*models.Review, error) {
	var rev models.Review
	if err := r.withRelations(ctx).First(&rev, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rev, nil
}

func (r *GormReviewRepository) FindByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	var rev models.Review
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&rev).Error; err != nil {
		return nil, translate(err)
	}
	return &rev, nil
}

var reviewOrder = map[ReviewSort]string{
	SortNewest:  "created_at DESC",
	SortOldest:  "created_at ASC",
	SortHighest: "overall_rating DESC, created_at DESC",
	SortLowest:  "overall_rating ASC, created_at DESC",
}

func (r *GormReviewRepository) ListForProperty(ctx context.Context, propertyID uint, q ReviewQuery) ([]models.Review, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("property_id = ? AND is_visible = ?", propertyID, true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := reviewOrder[q.Sort]
	if !ok {
		order = reviewOrder[SortNewest]
	}

	var reviews []models.Review
	tx := base.Preload("Author").Preload("HostResponse").Order(order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}
	if err := tx.Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *GormReviewRepository) PropertyAggregates(ctx context.Context, propertyID uint) (ReviewAggregates, error) {
	var agg ReviewAggregates
	var row struct {
		Average       float64
		Count         int64
		Cleanliness   float64
		Accuracy      float64
		Communication float64
		Location      float64
		CheckIn       float64
		Value         float64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select(`COALESCE(AVG(overall_rating), 0) AS average,
			COUNT(*) AS count,
			COALESCE(AVG(cleanliness_rating), 0) AS cleanliness,
			COALESCE(AVG(accuracy_rating), 0) AS accuracy,
			COALESCE(AVG(communication_rating), 0) AS communication,
			COALESCE(AVG(location_rating), 0) AS location,
			COALESCE(AVG(check_in_rating), 0) AS check_in,
			COALESCE(AVG(value_rating), 0) AS value`).
		Where("property_id = ? AND is_visible = ?", propertyID, true).
		Scan(&row).Error
	if err != nil {
		return agg, err
	}

	agg.Average = row.Average
	agg.Count = row.Count
	agg.Cleanliness = row.Cleanliness
	agg.Accuracy = row.Accuracy
	agg.Communication = row.Communication
	agg.Location = row.Location
	agg.CheckIn = row.CheckIn
	agg.Value = row.Value

	var buckets []struct {
		OverallRating int
		Count         int64
	}
	err = r.db.WithContext(ctx).Model(&models.Review{}).
		Select("overall_rating, COUNT(*) AS count").
		Where("property_id = ? AND is_visible = ?", propertyID, true).
		Group("overall_rating").
		Scan(&buckets).Error
	if err != nil {
		return agg, err
	}

	agg.Breakdown = map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, b := range buckets {
		agg.Breakdown[b.OverallRating] = b.Count
	}
	return agg, nil
}

func (r *GormReviewRepository) RatingsForProperties(ctx context.Context, ids []uint) (map[uint]RatingSummary, error) {
	out := make(map[uint]RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		PropertyID uint
		Average    float64
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("property_id, AVG(overall_rating) AS average, COUNT(*) AS count").
		Where("property_id IN ? AND is_visible = ?", ids, true).
		Group("property_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.PropertyID] = RatingSummary{Average: row.Average, Count: row.Count}
	}
	return out, nil
}

func (r *GormReviewRepository) ListByAuthor(ctx context.Context, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.withRelations(ctx).Where("author_id = ?", userID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *GormReviewRepository) ListByRecipient(ctx context.Context, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.withRelations(ctx).Where("recipient_id = ?", userID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *GormReviewRepository) CreateResponse(ctx context.Context, resp *models.HostResponse) error {
	return translate(r.db.WithContext(ctx).Create(resp).Error)
}

func (r *GormReviewRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
