package optimizer_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/optimizer"
	apperrors "github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/geo"
)

func flatOptimizer() (*optimizer.Optimizer, *geo.Estimator) {
	est := geo.NewEstimator(geo.Euclidean)
	return optimizer.New(est, 4, zap.NewNop()), est
}

func point(poiID int64, lat, lon float64) domain.Point {
	return domain.Point{
		ID:    uuid.New(),
		POIID: poiID,
		Snapshot: domain.POISnapshot{
			Name: "poi",
			Lat:  &lat,
			Lon:  &lon,
		},
	}
}

func poiOrder(points []domain.Point) []int64 {
	ids := make([]int64, len(points))
	for i, p := range points {
		ids[i] = p.POIID
	}
	return ids
}

func pathLength(est *geo.Estimator, points []domain.Point) float64 {
	coords := make([]domain.Coordinate, 0, len(points))
	for _, p := range points {
		c, _ := p.Snapshot.Coordinate()
		coords = append(coords, c)
	}
	return est.PathLength(coords)
}

// bruteForceMin enumerates every permutation independently of the optimizer.
func bruteForceMin(est *geo.Estimator, points []domain.Point) float64 {
	best := math.Inf(1)
	perm := make([]domain.Point, len(points))
	copy(perm, points)

	var permute func(k int)
	permute = func(k int) {
		if k == len(perm) {
			if l := pathLength(est, perm); l < best {
				best = l
			}
			return
		}
		for i := k; i < len(perm); i++ {
			perm[k], perm[i] = perm[i], perm[k]
			permute(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	permute(0)
	return best
}

func TestSequence_DistanceThreePointScenario(t *testing.T) {
	opt, est := flatOptimizer()
	a := point(1, 0, 0)
	b := point(2, 0, 3)
	c := point(3, 4, 0)

	assert.Equal(t, 8.0, pathLength(est, []domain.Point{a, b, c}))

	got, err := opt.Sequence([]domain.Point{a, b, c}, domain.OptimizeDistance)
	require.NoError(t, err)

	// Free start: B->A->C and C->A->B both measure 7; the lexicographically
	// first ordering of the input wins.
	assert.Equal(t, []int64{2, 1, 3}, poiOrder(got))
	assert.Equal(t, 7.0, pathLength(est, got))
}

func TestSequence_DistanceMatchesBruteForce(t *testing.T) {
	opt, est := flatOptimizer()
	rng := rand.New(rand.NewSource(42))

	for n := 2; n <= optimizer.ExactMaxPoints; n++ {
		for trial := 0; trial < 5; trial++ {
			points := make([]domain.Point, n)
			for i := range points {
				points[i] = point(int64(i+1), rng.Float64()*10, rng.Float64()*10)
			}

			got, err := opt.Sequence(points, domain.OptimizeDistance)
			require.NoError(t, err)
			require.Len(t, got, n)
			assert.InDelta(t, bruteForceMin(est, points), pathLength(est, got), 1e-9, "n=%d trial=%d", n, trial)
			assert.ElementsMatch(t, poiOrder(points), poiOrder(got))
		}
	}
}

func TestSequence_DistanceAboveThresholdUsesNearestNeighbor(t *testing.T) {
	opt, _ := flatOptimizer()
	rng := rand.New(rand.NewSource(7))

	points := make([]domain.Point, optimizer.ExactMaxPoints+2)
	for i := range points {
		points[i] = point(int64(i+1), rng.Float64()*10, rng.Float64()*10)
	}

	byDistance, err := opt.Sequence(points, domain.OptimizeDistance)
	require.NoError(t, err)
	byTime, err := opt.Sequence(points, domain.OptimizeTime)
	require.NoError(t, err)

	assert.Equal(t, poiOrder(byTime), poiOrder(byDistance))
}

func TestSequence_DistanceThresholdCountsUnlocatedPoints(t *testing.T) {
	opt, est := flatOptimizer()

	// On a line nearest neighbour from 0 goes 0, 1, -1.5, 4..8 (length 13)
	// while the best open path is -1.5, 0, 1, 4..8 (length 9.5).
	located := []domain.Point{
		point(1, 0, 0),
		point(2, 1, 0),
		point(3, -1.5, 0),
		point(4, 4, 0),
		point(5, 5, 0),
		point(6, 6, 0),
		point(7, 7, 0),
		point(8, 8, 0),
	}
	require.Len(t, located, optimizer.ExactMaxPoints)

	exact, err := opt.Sequence(located, domain.OptimizeDistance)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, pathLength(est, exact), 1e-9)

	// One point without coordinates pushes the day over the exhaustive limit.
	nineDay := append([]domain.Point{}, located...)
	nineDay = append(nineDay, domain.Point{ID: uuid.New(), POIID: 99})

	got, err := opt.Sequence(nineDay, domain.OptimizeDistance)
	require.NoError(t, err)
	require.Len(t, got, optimizer.ExactMaxPoints+1)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 99}, poiOrder(got))
	assert.InDelta(t, 13.0, pathLength(est, got[:optimizer.ExactMaxPoints]), 1e-9)
}

func TestSequence_TimeNearestNeighborFromFirstPoint(t *testing.T) {
	opt, _ := flatOptimizer()
	points := []domain.Point{
		point(1, 0, 0),
		point(2, 10, 0),
		point(3, 1, 0),
		point(4, 5, 0),
	}

	got, err := opt.Sequence(points, domain.OptimizeTime)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 4, 2}, poiOrder(got))
	// Identities preserved, nothing added or dropped.
	assert.ElementsMatch(t, []uuid.UUID{points[0].ID, points[1].ID, points[2].ID, points[3].ID},
		[]uuid.UUID{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
	// Input untouched.
	assert.Equal(t, []int64{1, 2, 3, 4}, poiOrder(points))
}

func TestSequence_UnlocatedPointsStayAtTail(t *testing.T) {
	opt, _ := flatOptimizer()
	noCoords := domain.Point{ID: uuid.New(), POIID: 99}
	points := []domain.Point{
		point(1, 0, 0),
		noCoords,
		point(2, 5, 0),
		point(3, 1, 0),
	}

	got, err := opt.Sequence(points, domain.OptimizeDistance)
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, int64(99), got[3].POIID)
}

func TestSequence_ScenicAndRating(t *testing.T) {
	opt, _ := flatOptimizer()

	mk := func(id int64, category string, rating float64) domain.Point {
		p := point(id, 0, 0)
		p.Snapshot.Category = category
		p.Snapshot.AverageRating = rating
		return p
	}

	points := []domain.Point{
		mk(1, "restaurant", 4.0),
		mk(2, "historic", 4.0),
		mk(3, "museum", 4.0),
		mk(4, "park", 4.0),
		mk(5, "restaurant", 4.0),
	}

	scenic, err := opt.Sequence(points, domain.OptimizeScenic)
	require.NoError(t, err)
	// park > museum > historic > restaurants (ties keep input order).
	assert.Equal(t, []int64{4, 3, 2, 1, 5}, poiOrder(scenic))

	points[0].Snapshot.AverageRating = 4.8
	points[4].Snapshot.AverageRating = 3.1
	rating, err := opt.Sequence(points, domain.OptimizeRating)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, poiOrder(rating))

	// A car park is not a park
	lookalikes := []domain.Point{
		mk(6, "parking", 4.0),
		mk(7, "barber_shop", 4.0),
		mk(8, "art_gallery", 4.0),
	}
	scenic, err = opt.Sequence(lookalikes, domain.OptimizeScenic)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 6, 7}, poiOrder(scenic))
}

func TestSequence_SmallDaysAreNoOps(t *testing.T) {
	opt, _ := flatOptimizer()

	for _, mode := range domain.ValidOptimizationModes() {
		empty, err := opt.Sequence(nil, mode)
		require.NoError(t, err)
		assert.Empty(t, empty)

		single := []domain.Point{point(1, 3, 3)}
		got, err := opt.Sequence(single, mode)
		require.NoError(t, err)
		assert.Equal(t, poiOrder(single), poiOrder(got))
	}
}

func TestSequence_InvalidMode(t *testing.T) {
	opt, _ := flatOptimizer()

	_, err := opt.Sequence([]domain.Point{point(1, 0, 0)}, domain.OptimizationMode("fastest"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidOptimizationMode)
}

func TestSequenceDays_MatchesPerDaySequence(t *testing.T) {
	opt, _ := flatOptimizer()
	rng := rand.New(rand.NewSource(3))

	days := make([]domain.Day, 5)
	for d := range days {
		days[d].DayNumber = d + 1
		for i := 0; i < d+2; i++ {
			days[d].Points = append(days[d].Points, point(int64(d*10+i), rng.Float64()*10, rng.Float64()*10))
		}
	}

	got, err := opt.SequenceDays(context.Background(), days, domain.OptimizeDistance)
	require.NoError(t, err)
	require.Len(t, got, len(days))

	for d := range days {
		want, err := opt.Sequence(days[d].Points, domain.OptimizeDistance)
		require.NoError(t, err)
		assert.Equal(t, poiOrder(want), poiOrder(got[d]))
	}
}
