package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamItineraryOptimize  = "stream:itinerary:optimize"
	StreamItineraryOptimized = "stream:itinerary:optimized"
)

// OptimizeRequestedEvent - входящее событие на оптимизацию маршрута
type OptimizeRequestedEvent struct {
	RequestID   uuid.UUID        `json:"request_id"`
	RouteID     uuid.UUID        `json:"route_id"`
	OwnerID     string           `json:"owner_id"`
	Mode        OptimizationMode `json:"mode"`
	RequestedAt time.Time        `json:"requested_at"`
}

// OptimizeCompletedEvent - результат оптимизации
type OptimizeCompletedEvent struct {
	RequestID            uuid.UUID        `json:"request_id"`
	RouteID              uuid.UUID        `json:"route_id"`
	Mode                 OptimizationMode `json:"mode"`
	TotalDistanceKm      float64          `json:"total_distance_km"`
	TotalDurationMinutes int              `json:"total_duration_minutes"`
	Error                string           `json:"error,omitempty"`
	CompletedAt          time.Time        `json:"completed_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
