package usecase

import "github.com/itinerary-microservice/internal/domain"

// Default visit durations in minutes per category group
const (
	visitMinutesCulture  = 90
	visitMinutesNature   = 60
	visitMinutesFood     = 75
	visitMinutesHeritage = 45
)

// EstimateVisitMinutes returns the expected time spent at a POI of category.
// Categories outside the known groups get fallback minutes.
func EstimateVisitMinutes(category string, fallback int) int {
	switch domain.CategoryGroupOf(category) {
	case domain.CategoryGroupCulture:
		return visitMinutesCulture
	case domain.CategoryGroupNature:
		return visitMinutesNature
	case domain.CategoryGroupFood:
		return visitMinutesFood
	case domain.CategoryGroupHeritage:
		return visitMinutesHeritage
	default:
		return fallback
	}
}
