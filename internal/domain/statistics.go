package domain

import "github.com/google/uuid"

// RouteStatistics is the per-day breakdown behind a route's aggregates.
type RouteStatistics struct {
	RouteID              uuid.UUID       `json:"route_id"`
	TransportMode        TransportMode   `json:"transport_mode"`
	TotalDistanceKm      float64         `json:"total_distance_km"`
	TotalDurationMinutes int             `json:"total_duration_minutes"`
	Days                 []DayStatistics `json:"days"`
}

type DayStatistics struct {
	DayNumber        int     `json:"day_number"`
	PointCount       int     `json:"point_count"`
	DistanceKm       float64 `json:"distance_km"`
	TravelMinutes    int     `json:"travel_minutes"`
	VisitMinutes     int     `json:"visit_minutes"`
	DurationMinutes  int     `json:"duration_minutes"`
	UnresolvedPoints int     `json:"unresolved_points"`
}
