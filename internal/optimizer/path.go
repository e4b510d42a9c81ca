package optimizer

import (
	"math"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/pkg/geo"
)

func distanceMatrix(e *geo.Estimator, coords []domain.Coordinate) [][]float64 {
	n := len(coords)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := e.Distance(coords[i], coords[j])
			m[i][j], m[j][i] = d, d
		}
	}
	return m
}

// nearestNeighborOrder starts at the current first point and repeatedly
// appends the closest unvisited point. Ties go to the lower original index.
func nearestNeighborOrder(e *geo.Estimator, coords []domain.Coordinate) []int {
	n := len(coords)
	if n == 0 {
		return nil
	}

	visited := make([]bool, n)
	order := make([]int, 0, n)
	current := 0
	visited[current] = true
	order = append(order, current)

	for len(order) < n {
		remaining := make([]domain.Coordinate, 0, n-len(order))
		indexes := make([]int, 0, n-len(order))
		for i := 0; i < n; i++ {
			if !visited[i] {
				remaining = append(remaining, coords[i])
				indexes = append(indexes, i)
			}
		}

		best, _ := e.Nearest(coords[current], remaining)
		current = indexes[best]
		visited[current] = true
		order = append(order, current)
	}
	return order
}

// exhaustiveOrder finds the minimum-length open path over every ordering of
// coords with a free starting point. Orderings are explored in
// lexicographic order of original indexes and only a strictly shorter path
// replaces the incumbent, so among equal-length optima the
// lexicographically first one wins. Branches whose partial length already
// reaches the incumbent are pruned; that cannot discard a strictly better
// ordering because distances are non-negative.
func exhaustiveOrder(e *geo.Estimator, coords []domain.Coordinate) []int {
	n := len(coords)
	if n == 0 {
		return nil
	}

	dist := distanceMatrix(e, coords)
	best := make([]int, n)
	for i := range best {
		best[i] = i
	}
	bestLen := math.Inf(1)

	current := make([]int, 0, n)
	used := make([]bool, n)

	var search func(length float64)
	search = func(length float64) {
		if length >= bestLen {
			return
		}
		if len(current) == n {
			bestLen = length
			copy(best, current)
			return
		}
		for next := 0; next < n; next++ {
			if used[next] {
				continue
			}
			step := 0.0
			if len(current) > 0 {
				step = dist[current[len(current)-1]][next]
			}
			used[next] = true
			current = append(current, next)
			search(length + step)
			current = current[:len(current)-1]
			used[next] = false
		}
	}
	search(0)

	return best
}
