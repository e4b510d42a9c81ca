package optimizer

import (
	"sort"

	"github.com/itinerary-microservice/internal/domain"
)

// Category weights for Scenic mode.
const (
	natureWeight   = 3.0
	cultureWeight  = 2.0
	heritageWeight = 1.5
	ratingWeight   = 0.5
)

// ScenicScore favours parks and viewpoints, then museums and galleries, then
// historic sites, plus half the average rating.
func ScenicScore(p domain.Point) float64 {
	var weight float64
	switch domain.CategoryGroupOf(p.Snapshot.Category) {
	case domain.CategoryGroupNature:
		weight = natureWeight
	case domain.CategoryGroupCulture:
		weight = cultureWeight
	case domain.CategoryGroupHeritage:
		weight = heritageWeight
	}
	return weight + ratingWeight*p.Snapshot.AverageRating
}

func RatingScore(p domain.Point) float64 {
	return p.Snapshot.AverageRating
}

// sortByScore orders descending; equal scores keep their relative order.
func sortByScore(points []domain.Point, score func(domain.Point) float64) {
	scores := make([]float64, len(points))
	idx := make([]int, len(points))
	for i, p := range points {
		idx[i] = i
		scores[i] = score(p)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	sorted := make([]domain.Point, len(points))
	for i, j := range idx {
		sorted[i] = points[j]
	}
	copy(points, sorted)
}
