package usecase

import (
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/pkg/geo"
)

// StatisticsCalculator recomputes route aggregates with the same Estimator
// the optimizer uses.
//
// A day's distance is geo.Estimator.PathLength over its located points in
// order_index order, the quantity Distance mode minimises; points without
// coordinates are skipped, so their neighbours are joined by one leg. Travel
// minutes are the sum of geo.TravelTime over those same legs, and duration is
// visit minutes plus travel minutes.
type StatisticsCalculator struct {
	estimator *geo.Estimator
	logger    *zap.Logger
}

func NewStatisticsCalculator(estimator *geo.Estimator, logger *zap.Logger) *StatisticsCalculator {
	return &StatisticsCalculator{
		estimator: estimator,
		logger:    logger,
	}
}

// Compute returns the per-day breakdown of route in its current order.
func (c *StatisticsCalculator) Compute(route *domain.Route) *domain.RouteStatistics {
	stats := &domain.RouteStatistics{
		RouteID:       route.ID,
		TransportMode: route.TransportMode,
		Days:          make([]domain.DayStatistics, 0, len(route.Days)),
	}

	for i := range route.Days {
		day := c.computeDay(route, &route.Days[i])
		stats.TotalDistanceKm += day.DistanceKm
		stats.TotalDurationMinutes += day.DurationMinutes
		stats.Days = append(stats.Days, day)
	}

	return stats
}

// Apply recomputes the aggregates and stores them on the route.
func (c *StatisticsCalculator) Apply(route *domain.Route) *domain.RouteStatistics {
	stats := c.Compute(route)
	route.TotalDistanceKm = stats.TotalDistanceKm
	route.TotalDurationMinutes = stats.TotalDurationMinutes
	return stats
}

func (c *StatisticsCalculator) computeDay(route *domain.Route, day *domain.Day) domain.DayStatistics {
	points := make([]domain.Point, len(day.Points))
	copy(points, day.Points)
	ordered := domain.Day{Points: points}
	ordered.SortPoints()

	stats := domain.DayStatistics{
		DayNumber:  day.DayNumber,
		PointCount: len(points),
	}

	coords := make([]domain.Coordinate, 0, len(ordered.Points))
	for _, p := range ordered.Points {
		stats.VisitMinutes += p.VisitDurationMinutes

		coord, ok := p.Snapshot.Coordinate()
		if !ok {
			stats.UnresolvedPoints++
			c.logger.Warn("Point has no coordinates, excluded from distance",
				zap.String("route_id", route.ID.String()),
				zap.Int("day_number", day.DayNumber),
				zap.Int64("poi_id", p.POIID),
			)
			continue
		}
		coords = append(coords, coord)
	}

	stats.DistanceKm = c.estimator.PathLength(coords)
	for _, km := range c.estimator.Legs(coords) {
		stats.TravelMinutes += c.estimator.TravelTime(km, route.TransportMode)
	}

	stats.DurationMinutes = stats.VisitMinutes + stats.TravelMinutes
	return stats
}
