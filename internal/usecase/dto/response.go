package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/itinerary-microservice/internal/domain"
)

// ItineraryListResponse - страница маршрутов владельца
type ItineraryListResponse struct {
	Items  []*domain.Route `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// POISuggestion - предложенный POI
type POISuggestion struct {
	*domain.POI
	DistanceM *float64 `json:"distance_m,omitempty"`
}

// SuggestionsResponse - ответ с предложенными POI
type SuggestionsResponse struct {
	Items []POISuggestion `json:"items"`
	Total int             `json:"total"`
}

// OptimizationRequestedResponse - подтверждение асинхронной оптимизации
type OptimizationRequestedResponse struct {
	RequestID   uuid.UUID               `json:"request_id"`
	RouteID     uuid.UUID               `json:"route_id"`
	Mode        domain.OptimizationMode `json:"mode"`
	Status      string                  `json:"status"`
	RequestedAt time.Time               `json:"requested_at"`
}
