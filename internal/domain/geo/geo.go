package geo

import "math"

// EarthRadiusKm is the mean Earth radius used to turn a distance into an
// angular radius for spherical-cap containment.
const EarthRadiusKm = 6378.1

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Valid checks that latitude is in [-90,90] and longitude in [-180,180].
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// AngularRadius converts a radius in kilometres to radians on the sphere.
func AngularRadius(radiusKm float64) float64 {
	return radiusKm / EarthRadiusKm
}

// CentralAngle returns the great-circle angle in radians between a and b
// (haversine form, stable for small distances).
func CentralAngle(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h))
}

// Cap is a spherical cap: every point within Angle radians of Center.
type Cap struct {
	Center Point
	Angle  float64
}

// NewCap builds a cap around center with the given radius in kilometres.
func NewCap(center Point, radiusKm float64) Cap {
	return Cap{Center: center, Angle: AngularRadius(radiusKm)}
}

// Contains reports whether p lies inside the cap (boundary inclusive).
func (c Cap) Contains(p Point) bool {
	return CentralAngle(c.Center, p) <= c.Angle
}

// RadiusOn returns the cap radius in kilometres on a sphere of the given radius.
// Backends with their own Earth model use it so containment stays angular.
func (c Cap) RadiusOn(sphereRadiusKm float64) float64 {
	return c.Angle * sphereRadiusKm
}
