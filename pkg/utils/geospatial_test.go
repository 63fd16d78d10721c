package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Nairobi CBD to Jomo Kenyatta airport is about 13 km.
	d := HaversineDistance(-1.2864, 36.8172, -1.3192, 36.9278)
	assert.InDelta(t, 12.8, d, 1.0)
	assert.Zero(t, HaversineDistance(-1.2864, 36.8172, -1.2864, 36.8172))
}

func TestGetBoundingBox(t *testing.T) {
	box := GetBoundingBox(-4.0435, 39.6682, 10)

	// 10 km spans about 0.09 degrees of latitude.
	assert.InDelta(t, -4.0435+0.0899, box.NorthEast.Lat, 0.001)
	assert.InDelta(t, -4.0435-0.0899, box.SouthWest.Lat, 0.001)
	assert.Greater(t, box.NorthEast.Lng-39.6682, 0.0899)
	assert.InDelta(t, 10, HaversineDistance(-4.0435, 39.6682, box.NorthEast.Lat, 39.6682), 0.01)
}
