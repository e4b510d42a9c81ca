package memory_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/repository/memory"
)

func newRoute(owner, name string) *domain.Route {
	now := time.Now().UTC()
	r := &domain.Route{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          name,
		CityID:        1,
		TransportMode: domain.TransportWalk,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.EnsureDay(2)
	return r
}

func TestItineraryRepository_CreateAndGetAreIsolated(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())
	ctx := context.Background()
	route := newRoute("u1", "Rome")

	require.NoError(t, repo.Create(ctx, route))

	route.Name = "changed after create"
	got, err := repo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rome", got.Name)
	assert.Len(t, got.Days, 2)

	got.Days = nil
	again, err := repo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, again.Days, 2)
}

func TestItineraryRepository_GetMissing(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrRouteNotFound)
}

func TestItineraryRepository_UniqueOwnerNameArchived(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoute("u1", "Rome")))
	err := repo.Create(ctx, newRoute("u1", "Rome"))
	assert.ErrorIs(t, err, errors.ErrConcurrencyConflict)

	// Other owners and archived copies do not collide.
	require.NoError(t, repo.Create(ctx, newRoute("u2", "Rome")))
	archived := newRoute("u1", "Rome")
	archived.Archived = true
	require.NoError(t, repo.Create(ctx, archived))

	exists, err := repo.ExistsByName(ctx, "u1", "Rome", false, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByName(ctx, "u1", "Rome", true, archived.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestItineraryRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())
	ctx := context.Background()

	base := time.Now().UTC()
	for i, name := range []string{"a", "b", "c"} {
		r := newRoute("u1", name)
		r.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, r))
	}
	hidden := newRoute("u1", "d")
	hidden.Archived = true
	require.NoError(t, repo.Create(ctx, hidden))
	require.NoError(t, repo.Create(ctx, newRoute("u2", "e")))

	routes, total, err := repo.List(ctx, domain.RouteFilter{
		OwnerID:    "u1",
		Pagination: domain.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, routes, 2)
	assert.Equal(t, "c", routes[0].Name)
	assert.Equal(t, "b", routes[1].Name)
	assert.Nil(t, routes[0].Days)

	routes, total, err = repo.List(ctx, domain.RouteFilter{OwnerID: "u1", Archived: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "d", routes[0].Name)

	routes, _, err = repo.List(ctx, domain.RouteFilter{
		OwnerID:    "u1",
		Pagination: domain.Pagination{Limit: 10, Offset: 5},
	})
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestItineraryRepository_WithinTxRollsBack(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())
	ctx := context.Background()
	route := newRoute("u1", "Rome")
	require.NoError(t, repo.Create(ctx, route))

	boom := stderrors.New("boom")
	err := repo.WithinTx(ctx, func(ctx context.Context, tx repository.ItineraryRepository) error {
		r, err := tx.GetByID(ctx, route.ID)
		if err != nil {
			return err
		}
		r.Name = "Milan"
		if err := tx.Update(ctx, r); err != nil {
			return err
		}
		if err := tx.Create(ctx, newRoute("u1", "Naples")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rome", got.Name)

	_, total, err := repo.List(ctx, domain.RouteFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestItineraryRepository_WithinTxCommits(t *testing.T) {
	repo := memory.NewItineraryRepository(zap.NewNop())
	ctx := context.Background()
	route := newRoute("u1", "Rome")
	require.NoError(t, repo.Create(ctx, route))

	err := repo.WithinTx(ctx, func(ctx context.Context, tx repository.ItineraryRepository) error {
		return tx.Delete(ctx, route.ID)
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, route.ID)
	assert.ErrorIs(t, err, errors.ErrRouteNotFound)
}
