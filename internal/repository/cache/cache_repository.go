package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

func itineraryKey(id uuid.UUID) string {
	return fmt.Sprintf("itinerary:%s", id)
}

func poiKey(id int64) string {
	return fmt.Sprintf("poi:%d", id)
}

// GetItinerary получает маршрут из кеша
func (r *cacheRepository) GetItinerary(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	data, err := r.Get(ctx, itineraryKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		r.logger.Error("Failed to unmarshal itinerary from cache", zap.String("route_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("unmarshal itinerary: %w", err)
	}

	return &route, nil
}

// SetItinerary сохраняет маршрут в кеше
func (r *cacheRepository) SetItinerary(ctx context.Context, route *domain.Route, ttl time.Duration) error {
	data, err := json.Marshal(route)
	if err != nil {
		r.logger.Error("Failed to marshal itinerary", zap.Error(err))
		return fmt.Errorf("marshal itinerary: %w", err)
	}

	return r.Set(ctx, itineraryKey(route.ID), data, ttl)
}

// InvalidateItinerary удаляет маршрут из кеша
func (r *cacheRepository) InvalidateItinerary(ctx context.Context, id uuid.UUID) error {
	return r.Delete(ctx, itineraryKey(id))
}

// GetPOI получает POI из кеша
func (r *cacheRepository) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	data, err := r.Get(ctx, poiKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var poi domain.POI
	if err := json.Unmarshal(data, &poi); err != nil {
		r.logger.Error("Failed to unmarshal POI from cache", zap.Int64("poi_id", id), zap.Error(err))
		return nil, fmt.Errorf("unmarshal poi: %w", err)
	}

	return &poi, nil
}

// SetPOI сохраняет POI в кеше
func (r *cacheRepository) SetPOI(ctx context.Context, poi *domain.POI, ttl time.Duration) error {
	data, err := json.Marshal(poi)
	if err != nil {
		r.logger.Error("Failed to marshal POI", zap.Error(err))
		return fmt.Errorf("marshal poi: %w", err)
	}

	return r.Set(ctx, poiKey(poi.ID), data, ttl)
}
