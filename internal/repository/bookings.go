package repository

import (
	"context"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithPropertyLock(ctx context.Context, propertyID uint, fn func(tx BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Property
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, propertyID).Error
		if err != nil {
			return translate(err)
		}
		return fn(&GormBookingRepository{db: tx})
	})
}

func (r *GormBookingRepository) ActiveForProperty(ctx context.Context, propertyID uint, excludeID string) ([]models.Booking, error) {
	tx := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID, models.ActiveBookingStatuses)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}

	var bookings []models.Booking
	if err := tx.Order("check_in ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Omit("Property").Create(b).Error)
}

func (r *GormBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).
		Preload("Property.Host").
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *GormBookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookingRepository) filtered(ctx context.Context, q BookingQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Booking{})
	if q.HostID != nil {
		tx = tx.Joins("JOIN properties ON properties.id = bookings.property_id").
			Where("properties.host_id = ?", *q.HostID)
	}
	if q.PropertyID != nil {
		tx = tx.Where("bookings.property_id = ?", *q.PropertyID)
	}
	if q.UserID != nil {
		tx = tx.Where("bookings.user_id = ?", *q.UserID)
	}
	if q.Status != "" {
		tx = tx.Where("bookings.status = ?", q.Status)
	}
	if q.Since != nil {
		tx = tx.Where("bookings.created_at >= ?", *q.Since)
	}
	return tx
}

func (r *GormBookingRepository) List(ctx context.Context, q BookingQuery) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.filtered(ctx, q).
		Preload("Property.Host").
		Order("bookings.created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// Aggregate counts bookings per status. Revenue only includes confirmed and
// completed stays.
func (r *GormBookingRepository) Aggregate(ctx context.Context, q BookingQuery) (BookingAggregate, error) {
	var rows []struct {
		Status  models.BookingStatus
		Count   int64
		Revenue float64
	}
	err := r.filtered(ctx, q).
		Select("bookings.status AS status, COUNT(*) AS count, COALESCE(SUM(bookings.total_price), 0) AS revenue").
		Group("bookings.status").
		Scan(&rows).Error
	if err != nil {
		return BookingAggregate{}, err
	}

	agg := BookingAggregate{ByStatus: make(map[models.BookingStatus]int64, len(rows))}
	for _, row := range rows {
		agg.Total += row.Count
		agg.ByStatus[row.Status] = row.Count
		if row.Status == models.BookingConfirmed || row.Status == models.BookingCompleted {
			agg.Revenue += row.Revenue
		}
	}
	return agg, nil
}
