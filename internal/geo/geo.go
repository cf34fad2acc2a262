// Package geo holds the WGS84 point math shared by the proximity query and
// its in-memory counterparts.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for every distance the
// service reports.
const EarthRadiusMiles = 3958.8

var ErrInvalidPoint = errors.New("coordinates out of range")

// Point is ordered [longitude, latitude] everywhere it is serialized.
type Point struct {
	Longitude float64
	Latitude  float64
}

func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) {
		return ErrInvalidPoint
	}
	if p.Longitude < -180 || p.Longitude > 180 || p.Latitude < -90 || p.Latitude > 90 {
		return ErrInvalidPoint
	}
	return nil
}

// Coordinates returns the GeoJSON ordering.
func (p Point) Coordinates() [2]float64 {
	return [2]float64{p.Longitude, p.Latitude}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceMiles is the haversine great-circle distance between a and b.
func DistanceMiles(a, b Point) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLng := radians(b.Longitude - a.Longitude)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*math.Pow(math.Sin(dLng/2), 2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

// Box is a latitude/longitude rectangle. When the radius crosses the
// antimeridian or a pole the longitude range is widened to the full circle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusMiles of
// center. It is a prefilter only; callers still compare exact distances.
func BoundingBox(center Point, radiusMiles float64) Box {
	latDelta := radiusMiles / EarthRadiusMiles * 180 / math.Pi
	box := Box{
		MinLat: math.Max(center.Latitude-latDelta, -90),
		MaxLat: math.Min(center.Latitude+latDelta, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat == -90 || box.MaxLat == 90 {
		return box
	}
	// widest longitude offset of a spherical cap, not latDelta/cos(lat)
	angular := radiusMiles / EarthRadiusMiles
	ratio := math.Sin(angular) / math.Cos(radians(center.Latitude))
	if ratio >= 1 {
		return box
	}
	lngDelta := math.Asin(ratio) * 180 / math.Pi
	if center.Longitude-lngDelta < -180 || center.Longitude+lngDelta > 180 {
		return box
	}
	box.MinLng = center.Longitude - lngDelta
	box.MaxLng = center.Longitude + lngDelta
	return box
}

func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}
