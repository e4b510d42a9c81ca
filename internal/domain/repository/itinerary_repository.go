package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/itinerary-microservice/internal/domain"
)

// ItineraryRepository persists routes together with their days and points.
// Implementations enforce (owner_id, name, archived) uniqueness and report a
// violation as errors.ErrConcurrencyConflict.
type ItineraryRepository interface {
	// Create сохраняет новый маршрут со всеми днями и точками
	Create(ctx context.Context, route *domain.Route) error

	// GetByID возвращает маршрут целиком или errors.ErrRouteNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error)

	// List возвращает маршруты владельца без дней и общее количество
	List(ctx context.Context, filter domain.RouteFilter) ([]*domain.Route, int, error)

	// ExistsByName проверяет занятость имени; excludeID игнорируется при uuid.Nil
	ExistsByName(ctx context.Context, ownerID, name string, archived bool, excludeID uuid.UUID) (bool, error)

	// Update перезаписывает маршрут, его дни и точки
	Update(ctx context.Context, route *domain.Route) error

	// Delete удаляет маршрут каскадно
	Delete(ctx context.Context, id uuid.UUID) error

	// WithinTx runs fn against a repository bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo ItineraryRepository) error) error
}
