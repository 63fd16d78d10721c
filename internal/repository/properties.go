package repository

import (
	"context"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
)

type GormPropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

func (r *GormPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormPropertyRepository) FindByID(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Category").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPropertyRepository) Save(ctx context.Context, p *models.Property) error {
	return translate(r.db.WithContext(ctx).Omit("Host", "Category").Save(p).Error)
}

func (r *GormPropertyRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPropertyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Property{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPropertyRepository) List(ctx context.Context, q PropertyQuery) ([]models.Property, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Property{})

	if q.City != "" {
		tx = tx.Where("properties.city ILIKE ?", "%"+q.City+"%")
	}
	if q.Country != "" {
		tx = tx.Where("properties.country ILIKE ?", "%"+q.Country+"%")
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("(properties.title ILIKE ? OR properties.description ILIKE ?)", like, like)
	}
	if q.MinPrice != nil {
		tx = tx.Where("properties.price_per_night >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("properties.price_per_night <= ?", *q.MaxPrice)
	}
	if q.MinGuests > 0 {
		tx = tx.Where("properties.max_guests >= ?", q.MinGuests)
	}
	if q.CategoryID != nil {
		tx = tx.Where("properties.category_id = ?", *q.CategoryID)
	}
	if q.Category != "" {
		tx = tx.Joins("JOIN categories ON categories.id = properties.category_id").
			Where("categories.name ILIKE ?", q.Category)
	}
	if q.HostID != nil {
		tx = tx.Where("properties.host_id = ?", *q.HostID)
	}
	if q.Approval != "" {
		tx = tx.Where("properties.approval_status = ?", q.Approval)
	}
	if q.ActiveOnly {
		tx = tx.Where("properties.is_active = ?", true)
	}
	if b := q.Bounds; b != nil {
		tx = tx.Where("properties.latitude BETWEEN ? AND ? AND properties.longitude BETWEEN ? AND ?",
			b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tx = tx.Preload("Host").Preload("Category").Order("properties.created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}

	var properties []models.Property
	if err := tx.Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

func (r *GormPropertyRepository) CountByApproval(ctx context.Context) (map[models.ApprovalStatus]int64, error) {
	var rows []struct {
		ApprovalStatus models.ApprovalStatus
		Count          int64
	}
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Select("approval_status, COUNT(*) AS count").
		Group("approval_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ApprovalStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.ApprovalStatus] = row.Count
	}
	return counts, nil
}
