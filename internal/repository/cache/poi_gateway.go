package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

// cachedPOIGateway writes every POI the catalog returns to redis and serves
// the cached copy when the catalog fails. NotFound answers are never masked,
// and a batch is served from the cache only when every id is cached.
type cachedPOIGateway struct {
	upstream repository.POIGateway
	cache    repository.CacheRepository
	ttl      time.Duration
	logger   *zap.Logger
}

func NewCachedPOIGateway(
	upstream repository.POIGateway,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) repository.POIGateway {
	return &cachedPOIGateway{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (g *cachedPOIGateway) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	poi, err := g.upstream.GetPOI(ctx, id)
	if err == nil {
		g.store(ctx, poi)
		return poi, nil
	}
	if errors.IsNotFound(err) {
		return nil, err
	}

	cached, cacheErr := g.cache.GetPOI(ctx, id)
	if cacheErr != nil || cached == nil {
		return nil, upstreamError(err)
	}

	g.logger.Warn("POI catalog unavailable, serving cached POI",
		zap.Int64("poi_id", id),
		zap.Error(err),
	)
	return cached, nil
}

func (g *cachedPOIGateway) GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	pois, err := g.upstream.GetPOIsBatch(ctx, ids)
	if err == nil {
		g.store(ctx, pois...)
		return pois, nil
	}

	// Частичный батч из кеша выглядел бы как "POI не существует",
	// поэтому без полного покрытия возвращаем ошибку каталога
	cached := make([]*domain.POI, 0, len(ids))
	for _, id := range ids {
		poi, cacheErr := g.cache.GetPOI(ctx, id)
		if cacheErr != nil || poi == nil {
			g.logger.Warn("POI catalog unavailable and POI not cached",
				zap.Int64("poi_id", id),
				zap.Int("requested", len(ids)),
				zap.Error(err),
			)
			return nil, upstreamError(err)
		}
		cached = append(cached, poi)
	}

	g.logger.Warn("POI catalog unavailable, serving cached batch",
		zap.Int("requested", len(ids)),
		zap.Int("cached", len(cached)),
		zap.Error(err),
	)
	return cached, nil
}

func (g *cachedPOIGateway) SearchNearby(ctx context.Context, lat, lon, radiusM float64, category *string) ([]*domain.POI, error) {
	pois, err := g.upstream.SearchNearby(ctx, lat, lon, radiusM, category)
	if err != nil {
		return nil, upstreamError(err)
	}
	g.store(ctx, pois...)
	return pois, nil
}

func (g *cachedPOIGateway) SearchByCity(ctx context.Context, cityID int64, category *string, limit int) ([]*domain.POI, error) {
	pois, err := g.upstream.SearchByCity(ctx, cityID, category, limit)
	if err != nil {
		return nil, upstreamError(err)
	}
	g.store(ctx, pois...)
	return pois, nil
}

func (g *cachedPOIGateway) store(ctx context.Context, pois ...*domain.POI) {
	for _, poi := range pois {
		if err := g.cache.SetPOI(ctx, poi, g.ttl); err != nil {
			g.logger.Warn("Failed to cache POI", zap.Int64("poi_id", poi.ID), zap.Error(err))
			return
		}
	}
}

// upstreamError keeps typed errors and classifies anything else as the
// catalog being unavailable.
func upstreamError(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return fmt.Errorf("%v: %w", err, errors.ErrUpstreamUnavailable)
}
