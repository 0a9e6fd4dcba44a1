// Package geo holds the coordinate types and great-circle math shared
// by the proximity engine and the presence mirror.
package geo

import "math"

// Position is a point in decimal degrees. Out-of-range values are
// passed through unchanged; the distance math tolerates them.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const earthRadius = 6371000 // meters

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula, rounded to the nearest whole meter.
func DistanceMeters(a, b Position) int {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int(math.Round(earthRadius * c))
}
