package geo

import (
	"math"

	"github.com/itinerary-microservice/internal/domain"
)

const earthRadiusKm = 6371.0

// Average speeds in km/h used for travel time estimates.
var speedKmh = map[domain.TransportMode]float64{
	domain.TransportWalk:            5,
	domain.TransportCar:             40,
	domain.TransportPublicTransport: 25,
	domain.TransportMixed:           15,
}

// HaversineDistance вычисляет расстояние между двумя точками в километрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Metric measures the distance in km between two coordinates.
type Metric func(a, b domain.Coordinate) float64

// Haversine is the great-circle metric used in production.
func Haversine(a, b domain.Coordinate) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Euclidean treats lat/lon as plain x/y units. Only meaningful for synthetic
// fixtures where a flat metric makes expected path lengths exact.
func Euclidean(a, b domain.Coordinate) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

// SpeedKmh returns the average speed for mode; unknown modes use Mixed.
func SpeedKmh(mode domain.TransportMode) float64 {
	if v, ok := speedKmh[mode]; ok {
		return v
	}
	return speedKmh[domain.TransportMixed]
}

// TravelTime returns ceil(distanceKm / speed(mode) * 60) minutes.
func TravelTime(distanceKm float64, mode domain.TransportMode) int {
	if distanceKm <= 0 || math.IsNaN(distanceKm) {
		return 0
	}
	return int(math.Ceil(distanceKm / SpeedKmh(mode) * 60))
}

// Estimator bundles the distance metric so the optimizer and the statistics
// recomputation measure paths identically.
type Estimator struct {
	metric Metric
}

// NewEstimator creates an Estimator; a nil metric means Haversine.
func NewEstimator(metric Metric) *Estimator {
	if metric == nil {
		metric = Haversine
	}
	return &Estimator{metric: metric}
}

// Distance is symmetric and zero for identical points.
func (e *Estimator) Distance(a, b domain.Coordinate) float64 {
	return e.metric(a, b)
}

func (e *Estimator) TravelTime(distanceKm float64, mode domain.TransportMode) int {
	return TravelTime(distanceKm, mode)
}

// Legs returns the distance of every consecutive pair along an open
// sequence: len(coords)-1 values, none for fewer than two points.
func (e *Estimator) Legs(coords []domain.Coordinate) []float64 {
	if len(coords) < 2 {
		return nil
	}
	legs := make([]float64, 0, len(coords)-1)
	for i := 1; i < len(coords); i++ {
		legs = append(legs, e.metric(coords[i-1], coords[i]))
	}
	return legs
}

// PathLength sums Legs. The optimizer minimises it and the route statistics
// report it, so both always agree on a day's distance.
func (e *Estimator) PathLength(coords []domain.Coordinate) float64 {
	total := 0.0
	for _, d := range e.Legs(coords) {
		total += d
	}
	return total
}

// Nearest returns the index of the candidate closest to ref and its
// distance. Ties keep the lowest index. Empty input yields (-1, +Inf).
func (e *Estimator) Nearest(ref domain.Coordinate, candidates []domain.Coordinate) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, c := range candidates {
		if d := e.metric(ref, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius проверяет валидность радиуса поиска в метрах (10 м - 50 км)
func ValidateRadius(radiusM float64) bool {
	return radiusM >= 10 && radiusM <= 50000
}
