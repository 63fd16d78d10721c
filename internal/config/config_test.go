package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("CLIENT_URL", "https://rosetta.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local_dev_secret", cfg.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, []string{"https://rosetta.example"}, cfg.CORS)
	assert.Equal(t, "KE", cfg.SMS.DefaultRegion)
	assert.False(t, cfg.AutoApproveProperties)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_TIMEZONE", "Africa/Nairobi")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUTO_APPROVE_PROPERTIES", "true")
	t.Setenv("BOOKING_RATE_LIMIT", "3")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/rosetta")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Africa/Nairobi", cfg.Location.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS)
	assert.True(t, cfg.AutoApproveProperties)
	assert.Equal(t, 3, cfg.BookingRateLimit)
	assert.Equal(t, "postgres://u:p@db:5432/rosetta", cfg.DB.DSN())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)
}

func TestDB_DSNFromParts(t *testing.T) {
	d := DB{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=5432 sslmode=disable", d.DSN())
}
