package domain

import "github.com/google/uuid"

// EnrichedItinerary pairs a persisted route with live catalog details. The
// route's own snapshots are left untouched.
type EnrichedItinerary struct {
	Route *Route        `json:"route"`
	Days  []EnrichedDay `json:"days"`
}

type EnrichedDay struct {
	DayNumber int             `json:"day_number"`
	Points    []EnrichedPoint `json:"points"`
}

type EnrichedPoint struct {
	PointID     uuid.UUID `json:"point_id"`
	OrderIndex  int       `json:"order_index"`
	POIID       int64     `json:"poi_id"`
	POI         *POI      `json:"poi,omitempty"`
	Unavailable bool      `json:"unavailable"`
}
