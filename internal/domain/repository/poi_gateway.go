package repository

import (
	"context"

	"github.com/itinerary-microservice/internal/domain"
)

// POIGateway is the external POI catalog. Failures to reach the catalog are
// reported as errors.ErrUpstreamUnavailable.
type POIGateway interface {
	// GetPOI возвращает POI по ID или errors.ErrPOINotFound
	GetPOI(ctx context.Context, id int64) (*domain.POI, error)

	// GetPOIsBatch возвращает найденные POI; отсутствующие ID просто пропускаются
	GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error)

	// SearchNearby возвращает POI в радиусе (метры) от точки
	SearchNearby(ctx context.Context, lat, lon, radiusM float64, category *string) ([]*domain.POI, error)

	// SearchByCity возвращает POI города
	SearchByCity(ctx context.Context, cityID int64, category *string, limit int) ([]*domain.POI, error)
}
