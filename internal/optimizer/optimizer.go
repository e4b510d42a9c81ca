package optimizer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/geo"
)

// ExactMaxPoints is the largest day size searched exhaustively in Distance
// mode (8! = 40320 orderings). The day size counts every point, located or
// not. Larger days use nearest neighbor.
const ExactMaxPoints = 8

// Optimizer re-sequences the points of a day. It never adds or drops points.
type Optimizer struct {
	estimator *geo.Estimator
	workers   int
	logger    *zap.Logger
}

// New creates an Optimizer. workers bounds how many days SequenceDays
// optimizes in parallel; values below 1 mean sequential.
func New(estimator *geo.Estimator, workers int, logger *zap.Logger) *Optimizer {
	if workers < 1 {
		workers = 1
	}
	return &Optimizer{
		estimator: estimator,
		workers:   workers,
		logger:    logger,
	}
}

// Sequence returns a reordered copy of points for mode. Order indexes are not
// touched; the caller renumbers.
func (o *Optimizer) Sequence(points []domain.Point, mode domain.OptimizationMode) ([]domain.Point, error) {
	if !mode.IsValid() {
		return nil, errors.ErrInvalidOptimizationMode.WithDetails(map[string]interface{}{"mode": string(mode)})
	}

	out := make([]domain.Point, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out, nil
	}

	switch mode {
	case domain.OptimizeTime:
		return o.byPath(out, false), nil
	case domain.OptimizeDistance:
		return o.byPath(out, true), nil
	case domain.OptimizeScenic:
		sortByScore(out, ScenicScore)
		return out, nil
	case domain.OptimizeRating:
		sortByScore(out, RatingScore)
		return out, nil
	}
	return nil, fmt.Errorf("sequence: unhandled mode %q", mode)
}

// byPath orders the located points by path length and keeps points without
// coordinates at the tail in their original relative order.
func (o *Optimizer) byPath(points []domain.Point, exact bool) []domain.Point {
	located := make([]domain.Point, 0, len(points))
	coords := make([]domain.Coordinate, 0, len(points))
	var unlocated []domain.Point
	for _, p := range points {
		c, ok := p.Snapshot.Coordinate()
		if !ok {
			unlocated = append(unlocated, p)
			continue
		}
		located = append(located, p)
		coords = append(coords, c)
	}

	if len(unlocated) > 0 {
		o.logger.Warn("Points without coordinates kept at end of day",
			zap.Int("unlocated", len(unlocated)),
			zap.Int("located", len(located)))
	}

	exact = exact && len(points) <= ExactMaxPoints

	var order []int
	if exact {
		order = exhaustiveOrder(o.estimator, coords)
	} else {
		order = nearestNeighborOrder(o.estimator, coords)
	}

	result := make([]domain.Point, 0, len(points))
	sequenced := make([]domain.Coordinate, 0, len(coords))
	for _, idx := range order {
		result = append(result, located[idx])
		sequenced = append(sequenced, coords[idx])
	}

	o.logger.Debug("Day sequenced",
		zap.Int("points", len(points)),
		zap.Bool("exact", exact),
		zap.Float64("path_before_km", o.estimator.PathLength(coords)),
		zap.Float64("path_after_km", o.estimator.PathLength(sequenced)))

	return append(result, unlocated...)
}

// SequenceDays optimizes every day independently on a bounded pool. The
// result is indexed like days and identical to calling Sequence per day.
func (o *Optimizer) SequenceDays(ctx context.Context, days []domain.Day, mode domain.OptimizationMode) ([][]domain.Point, error) {
	result := make([][]domain.Point, len(days))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := range days {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seq, err := o.Sequence(days[i].Points, mode)
			if err != nil {
				return fmt.Errorf("day %d: %w", days[i].DayNumber, err)
			}
			result[i] = seq
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
