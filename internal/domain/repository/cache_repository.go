package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/itinerary-microservice/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetItinerary получает маршрут из кеша, nil при промахе
	GetItinerary(ctx context.Context, id uuid.UUID) (*domain.Route, error)

	// SetItinerary сохраняет маршрут в кеше
	SetItinerary(ctx context.Context, route *domain.Route, ttl time.Duration) error

	// InvalidateItinerary удаляет маршрут из кеша
	InvalidateItinerary(ctx context.Context, id uuid.UUID) error

	// GetPOI получает POI из кеша, nil при промахе
	GetPOI(ctx context.Context, id int64) (*domain.POI, error)

	// SetPOI сохраняет POI в кеше
	SetPOI(ctx context.Context, poi *domain.POI, ttl time.Duration) error
}
