package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/itinerary-microservice/internal/domain"
)

// CreateItineraryRequest - запрос на создание маршрута
type CreateItineraryRequest struct {
	Name          string               `json:"name" validate:"required,min=1,max=200"`
	Description   *string              `json:"description,omitempty" validate:"omitempty,max=2000"`
	CityID        int64                `json:"city_id" validate:"required,min=1"`
	TransportMode domain.TransportMode `json:"transport_mode" validate:"required,transport_mode"`
	DayCount      int                  `json:"day_count" validate:"required"`
	StartDate     *time.Time           `json:"start_date,omitempty"`
	POIIDs        []int64              `json:"poi_ids,omitempty" validate:"omitempty,max=50,dive,min=1"`
}

// UpdateItineraryRequest - частичное обновление метаданных маршрута
type UpdateItineraryRequest struct {
	Name          *string               `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	TransportMode *domain.TransportMode `json:"transport_mode,omitempty" validate:"omitempty,transport_mode"`
}

// ListItinerariesRequest - параметры списка маршрутов
type ListItinerariesRequest struct {
	Archived bool `query:"archived"`
	Limit    int  `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int  `query:"offset" validate:"omitempty,min=0"`
}

// AddPointRequest - запрос на добавление точки в маршрут
type AddPointRequest struct {
	POIID                int64 `json:"poi_id" validate:"required,min=1"`
	DayNumber            *int  `json:"day_number,omitempty" validate:"omitempty,min=1"`
	OrderIndex           *int  `json:"order_index,omitempty" validate:"omitempty,min=1"`
	VisitDurationMinutes *int  `json:"visit_duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

// ReorderPointsRequest - новый порядок всех точек маршрута
type ReorderPointsRequest struct {
	PointIDs []uuid.UUID `json:"point_ids" validate:"required"`
}

// OptimizeRequest - запрос на оптимизацию маршрута
type OptimizeRequest struct {
	Mode  domain.OptimizationMode `json:"mode" validate:"required,optimization_mode"`
	Async bool                    `json:"async"`
}

// DuplicateRequest - запрос на копирование маршрута
type DuplicateRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
}

// SuggestNearbyRequest - поиск POI рядом с точками дня
type SuggestNearbyRequest struct {
	DayNumber int     `query:"day" validate:"required,min=1"`
	RadiusM   float64 `query:"radius_m" validate:"omitempty,min=10,max=50000"`
	Category  string  `query:"category"`
	Limit     int     `query:"limit" validate:"omitempty,min=1,max=100"`
}

// SuggestForCityRequest - поиск POI города, которых ещё нет в маршруте
type SuggestForCityRequest struct {
	Category string `query:"category"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
}
