package station

import (
	"math"

	repo "pera.com/perasystem/internal/modules/station/repository"
)

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// boundingBox over-approximates the circle of radiusKm around (lat, lng).
func boundingBox(lat, lng, radiusKm float64) repo.BoundingBox {
	dLat := radiusKm / 111.0
	box := repo.BoundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	cos := math.Cos(lat * math.Pi / 180)
	if cos > 0.01 {
		dLng := radiusKm / (111.320 * cos)
		// A box crossing the antimeridian keeps the full longitude range.
		if dLng < 180 && lng-dLng >= -180 && lng+dLng <= 180 {
			box.MinLng = lng - dLng
			box.MaxLng = lng + dLng
		}
	}
	return box
}
