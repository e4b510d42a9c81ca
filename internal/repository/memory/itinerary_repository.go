package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

// store holds committed routes. Routes are cloned on every read and write so
// callers never share memory with the store.
type store struct {
	mu     sync.Mutex
	routes map[uuid.UUID]*domain.Route
}

type itineraryRepository struct {
	store  *store
	routes map[uuid.UUID]*domain.Route
	inTx   bool
	logger *zap.Logger
}

// NewItineraryRepository creates an in-process itinerary store.
func NewItineraryRepository(logger *zap.Logger) repository.ItineraryRepository {
	s := &store{routes: make(map[uuid.UUID]*domain.Route)}
	return &itineraryRepository{
		store:  s,
		routes: s.routes,
		logger: logger,
	}
}

func (r *itineraryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	r.routes = r.store.routes
	return r.store.mu.Unlock
}

func (r *itineraryRepository) Create(ctx context.Context, route *domain.Route) error {
	defer r.lock()()

	if _, ok := r.routes[route.ID]; ok {
		return errors.ErrConcurrencyConflict.WithMessage("itinerary %s already exists", route.ID)
	}
	if err := r.checkUnique(route); err != nil {
		return err
	}

	r.routes[route.ID] = route.Clone()
	return nil
}

func (r *itineraryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	defer r.lock()()

	route, ok := r.routes[id]
	if !ok {
		return nil, errors.ErrRouteNotFound
	}
	return route.Clone(), nil
}

func (r *itineraryRepository) List(ctx context.Context, filter domain.RouteFilter) ([]*domain.Route, int, error) {
	defer r.lock()()

	matched := make([]*domain.Route, 0)
	for _, route := range r.routes {
		if route.OwnerID != filter.OwnerID || route.Archived != filter.Archived {
			continue
		}
		header := *route
		header.Days = nil
		matched = append(matched, &header)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	return matched[start:end], total, nil
}

func (r *itineraryRepository) ExistsByName(ctx context.Context, ownerID, name string, archived bool, excludeID uuid.UUID) (bool, error) {
	defer r.lock()()

	for id, route := range r.routes {
		if id == excludeID {
			continue
		}
		if route.OwnerID == ownerID && route.Name == name && route.Archived == archived {
			return true, nil
		}
	}
	return false, nil
}

func (r *itineraryRepository) Update(ctx context.Context, route *domain.Route) error {
	defer r.lock()()

	if _, ok := r.routes[route.ID]; !ok {
		return errors.ErrRouteNotFound
	}
	if err := r.checkUnique(route); err != nil {
		return err
	}

	r.routes[route.ID] = route.Clone()
	return nil
}

func (r *itineraryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.lock()()

	if _, ok := r.routes[id]; !ok {
		return errors.ErrRouteNotFound
	}
	delete(r.routes, id)
	return nil
}

// WithinTx serializes transactions on the store mutex and runs fn against a
// private copy of the routes, publishing the copy only when fn succeeds.
func (r *itineraryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.ItineraryRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	working := make(map[uuid.UUID]*domain.Route, len(r.store.routes))
	for id, route := range r.store.routes {
		working[id] = route
	}

	tx := &itineraryRepository{
		store:  r.store,
		routes: working,
		inTx:   true,
		logger: r.logger,
	}

	if err := fn(ctx, tx); err != nil {
		r.logger.Debug("Rolling back in-memory transaction", zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.store.routes = working
	return nil
}

// checkUnique mirrors the (owner_id, name, archived) unique index.
func (r *itineraryRepository) checkUnique(route *domain.Route) error {
	for id, other := range r.routes {
		if id == route.ID {
			continue
		}
		if other.OwnerID == route.OwnerID && other.Name == route.Name && other.Archived == route.Archived {
			return errors.ErrConcurrencyConflict.WithDetails(map[string]interface{}{
				"constraint": "routes_owner_name_archived_key",
				"name":       route.Name,
			})
		}
	}
	return nil
}
