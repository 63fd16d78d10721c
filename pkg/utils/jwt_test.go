package utils

import (
	"testing"
	"time"

	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret")
	user := &models.User{ID: 42, Email: "host@example.com", Role: models.RoleHost}

	token, err := m.GenerateToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "host@example.com", claims.Email)
	assert.Equal(t, models.RoleHost, claims.Role)
}

func TestTokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewTokenManager("test-secret")
	user := &models.User{ID: 1, Email: "a@example.com", Role: models.RoleUser}

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := m.GenerateToken(user, time.Hour)
	require.NoError(t, err)
	m.now = time.Now

	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("other-secret")
	foreign, err := other.GenerateToken(user, time.Hour)
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
