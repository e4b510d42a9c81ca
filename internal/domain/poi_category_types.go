package domain

import "strings"

// POI category constants used for scenic scoring and visit estimates.
const (
	POICategoryPark          = "park"
	POICategoryGarden        = "garden"
	POICategoryViewpoint     = "viewpoint"
	POICategoryBeach         = "beach"
	POICategoryMuseum        = "museum"
	POICategoryGallery       = "gallery"
	POICategoryHistoric      = "historic"
	POICategoryMonument      = "monument"
	POICategoryCastle        = "castle"
	POICategoryRestaurant    = "restaurant"
	POICategoryCafe          = "cafe"
	POICategoryBar           = "bar"
	POICategoryAttraction    = "attraction"
	POICategoryShopping      = "shopping"
	POICategoryAccommodation = "accommodation"
)

// POICategoryGroup groups raw catalog categories into the buckets the
// optimizer and the visit estimator reason about.
type POICategoryGroup int

const (
	CategoryGroupOther POICategoryGroup = iota
	CategoryGroupNature
	CategoryGroupCulture
	CategoryGroupHeritage
	CategoryGroupFood
)

// categoryGroups maps whole category tokens to their group
var categoryGroups = map[string]POICategoryGroup{
	POICategoryPark:      CategoryGroupNature,
	POICategoryGarden:    CategoryGroupNature,
	POICategoryViewpoint: CategoryGroupNature,
	POICategoryBeach:     CategoryGroupNature,
	"nature":             CategoryGroupNature,

	POICategoryMuseum:  CategoryGroupCulture,
	POICategoryGallery: CategoryGroupCulture,

	POICategoryHistoric: CategoryGroupHeritage,
	POICategoryMonument: CategoryGroupHeritage,
	POICategoryCastle:   CategoryGroupHeritage,
	"memorial":          CategoryGroupHeritage,
	"archaeological":    CategoryGroupHeritage,

	POICategoryRestaurant: CategoryGroupFood,
	POICategoryCafe:       CategoryGroupFood,
	POICategoryBar:        CategoryGroupFood,
	"pub":                 CategoryGroupFood,
	"food":                CategoryGroupFood,
}

func isCategorySeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// CategoryGroupOf classifies a catalog category. The category is split on
// '_', '-' and spaces and only whole tokens match, case-insensitively, so
// "art_gallery" is Culture while "parking" and "barber_shop" stay Other.
// When tokens disagree the lower group wins (Nature before Food).
func CategoryGroupOf(category string) POICategoryGroup {
	result := CategoryGroupOther
	for _, token := range strings.FieldsFunc(strings.ToLower(category), isCategorySeparator) {
		group, ok := categoryGroups[token]
		if !ok {
			continue
		}
		if result == CategoryGroupOther || group < result {
			result = group
		}
	}
	return result
}
