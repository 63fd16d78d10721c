package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStayDate(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	d, err := ParseStayDate("2025-06-01", nairobi)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, nairobi), d)

	ts, err := ParseStayDate("2025-06-01T14:00:00Z", nairobi)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)))

	_, err = ParseStayDate("June 1st", nairobi)
	assert.Error(t, err)
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), StartOfDay(now, time.UTC))
	// 23:30 UTC is already 2 June in Nairobi.
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, nairobi), StartOfDay(now, nairobi))
}
