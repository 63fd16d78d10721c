package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, tm *utils.TokenManager, id uint, role models.Role) string {
	t.Helper()
	token, err := tm.GenerateToken(&models.User{ID: id, Email: "u@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func identityRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, role := Identity(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	tm := utils.NewTokenManager("test-secret")
	r := identityRouter(Auth(tm))
	token := tokenFor(t, tm, 7, models.RoleHost)

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"forged", "Bearer " + tokenFor(t, utils.NewTokenManager("other"), 7, models.RoleAdmin), "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"role":"host"}`, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tm := utils.NewTokenManager("test-secret")
	r := identityRouter(OptionalAuth(tm))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	tm := utils.NewTokenManager("test-secret")
	r := identityRouter(Auth(tm), RequireRole(models.RoleHost, models.RoleAdmin))

	for role, want := range map[models.Role]int{
		models.RoleUser:  http.StatusForbidden,
		models.RoleHost:  http.StatusOK,
		models.RoleAdmin: http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, tm, 3, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

type memoryCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hits == nil {
		m.hits = map[string]int64{}
	}
	m.hits[key]++
	return m.hits[key], nil
}

func TestRateLimit(t *testing.T) {
	counter := &memoryCounter{}
	r := gin.New()
	r.POST("/bookings", RateLimit(counter, "bookings", 2, time.Minute, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send().Code)
	w := send()
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Too many requests")
	assert.Equal(t, int64(3), counter.hits["bookings:203.0.113.9"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/bookings", RateLimit(&memoryCounter{err: errors.New("redis down")}, "bookings", 1, time.Minute, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}
