package repository

import (
	"context"
	"errors"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// Upsert inserts categories by name and refreshes the description and icon
// of existing ones.
func (r *GormCategoryRepository) Upsert(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "icon"}),
	}).Create(&categories).Error
}

type GormPasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *GormPasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

func (r *GormPasswordResetRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *GormPasswordResetRepository) FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormPasswordResetRepository) MarkUsed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).Where("id = ?", id).Update("used", true).Error
}

func (r *GormPasswordResetRepository) InvalidateForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

type GormPreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *GormPreferenceRepository {
	return &GormPreferenceRepository{db: db}
}

func (r *GormPreferenceRepository) Get(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	var prefs models.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := models.DefaultPreferences(userID)
		if err := r.db.WithContext(ctx).Create(defaults).Error; err != nil {
			return nil, translate(err)
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *GormPreferenceRepository) Save(ctx context.Context, p *models.NotificationPreference) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}
