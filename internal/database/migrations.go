package database

import (
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations creates the schema and the constraints AutoMigrate cannot
// express. Every statement is idempotent.
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Property{},
		&models.Booking{},
		&models.Review{},
		&models.HostResponse{},
		&models.PasswordResetToken{},
		&models.NotificationPreference{},
	)
	if err != nil {
		return err
	}

	statements := []string{
		`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`,
		`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('user', 'host', 'admin'))`,

		`ALTER TABLE properties DROP CONSTRAINT IF EXISTS properties_approval_status_check`,
		`ALTER TABLE properties ADD CONSTRAINT properties_approval_status_check CHECK (approval_status IN ('pending', 'approved', 'rejected'))`,

		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`,
		`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed'))`,
		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_dates_check`,
		`ALTER TABLE bookings ADD CONSTRAINT bookings_dates_check CHECK (check_out > check_in)`,
		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_guest_count_check`,
		`ALTER TABLE bookings ADD CONSTRAINT bookings_guest_count_check CHECK (guest_count >= 1)`,

		`ALTER TABLE reviews DROP CONSTRAINT IF EXISTS reviews_overall_rating_check`,
		`ALTER TABLE reviews ADD CONSTRAINT reviews_overall_rating_check CHECK (overall_rating BETWEEN 1 AND 5)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_property_dates ON bookings (property_id, check_in, check_out)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return ensureBookingExclusion(db)
}

// ensureBookingExclusion installs the constraint that rejects two active
// bookings with overlapping [check_in, check_out) ranges on one property.
func ensureBookingExclusion(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}

	var exists bool
	err := db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM pg_constraint
			WHERE conname = 'bookings_no_overlap'
		)`).Scan(&exists).Error
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.Exec(`
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
		EXCLUDE USING gist (
			property_id WITH =,
			tstzrange(check_in, check_out, '[)') WITH &&
		) WHERE (status IN ('pending', 'confirmed'))`).Error
}
