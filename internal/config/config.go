package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	Env    string
	DB     DB
	JWT    JWT
	CORS   []string
	Client string
	// BaseURL is the public address of this API, used for local uploads.
	BaseURL string

	Location              *time.Location
	AutoApproveProperties bool
	AdminSetupKey         string
	BookingRateLimit      int
	BookingRateWindow     time.Duration

	SMTP     SMTP
	SMS      SMS
	RedisURL string
	S3       S3
	// UploadDir holds images when S3 is not configured.
	UploadDir string

	FirebaseCredentials string
}

type DB struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN prefers DATABASE_URL and falls back to the discrete settings.
func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWT struct {
	Secret   string
	TTL      time.Duration
	AdminTTL time.Duration
}

type SMTP struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

func (s SMTP) Configured() bool {
	return s.Host != "" && s.Port != "" && s.From != ""
}

type SMS struct {
	Provider      string
	DefaultRegion string

	ATUsername string
	ATAPIKey   string
	ATSenderID string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

type S3 struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

func (s S3) Configured() bool {
	return s.Region != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (optional) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded, using process environment", "error", err)
	}

	cfg := &Config{
		Port:    getenv("PORT", "5000"),
		Env:     getenv("APP_ENV", "development"),
		Client:  getenv("CLIENT_URL", "http://localhost:3000"),
		BaseURL: getenv("BASE_URL", "http://localhost:5000"),
		DB: DB{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "rosetta"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		JWT: JWT{
			Secret:   os.Getenv("JWT_SECRET"),
			TTL:      getduration("JWT_TTL", 7*24*time.Hour),
			AdminTTL: getduration("ADMIN_JWT_TTL", 24*time.Hour),
		},
		AutoApproveProperties: getbool("AUTO_APPROVE_PROPERTIES", false),
		AdminSetupKey:         os.Getenv("ADMIN_SETUP_KEY"),
		BookingRateLimit:      getint("BOOKING_RATE_LIMIT", 10),
		BookingRateWindow:     getduration("BOOKING_RATE_WINDOW", time.Minute),
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
			FromName: getenv("EMAIL_FROM_NAME", "Rosetta Holiday Home"),
		},
		SMS: SMS{
			Provider:         getenv("SMS_PROVIDER", "auto"),
			DefaultRegion:    getenv("SMS_DEFAULT_REGION", "KE"),
			ATUsername:       os.Getenv("AT_USERNAME"),
			ATAPIKey:         os.Getenv("AT_API_KEY"),
			ATSenderID:       os.Getenv("AT_SENDER_ID"),
			TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:       os.Getenv("TWILIO_FROM"),
		},
		RedisURL: os.Getenv("REDIS_URL"),
		S3: S3{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("AWS_S3_BUCKET"),
		},
		UploadDir:           getenv("UPLOAD_DIR", "./uploads"),
		FirebaseCredentials: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
	}

	cfg.CORS = splitList(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORS) == 0 {
		cfg.CORS = []string{cfg.Client}
	}

	loc, err := time.LoadLocation(getenv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWT.Secret = "local_dev_secret"
		slog.Warn("JWT_SECRET not set, using development secret")
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getbool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getduration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
