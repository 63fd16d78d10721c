package utils

import "math"

const earthRadiusKm = 6371

// HaversineDistance returns the great-circle distance in kilometres.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlng/2)*math.Sin(dlng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type BoundingBox struct {
	NorthEast Point `json:"northEast"`
	SouthWest Point `json:"southWest"`
}

// GetBoundingBox returns a rectangle enclosing the circle of radiusKm around
// the centre. It is a cheap SQL pre-filter; callers refine with HaversineDistance.
func GetBoundingBox(centerLat, centerLng, radiusKm float64) BoundingBox {
	latDelta := radiusKm / earthRadiusKm * 180 / math.Pi
	lngDelta := latDelta / math.Cos(centerLat*math.Pi/180)

	return BoundingBox{
		NorthEast: Point{Lat: centerLat + latDelta, Lng: centerLng + lngDelta},
		SouthWest: Point{Lat: centerLat - latDelta, Lng: centerLng - lngDelta},
	}
}
