package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/delivery/http/handler"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/optimizer"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/geo"
	"github.com/itinerary-microservice/internal/repository/memory"
	"github.com/itinerary-microservice/internal/usecase"
)

const testOwner = "user-42"

// MockPOIGateway is a mock implementation of repository.POIGateway
type MockPOIGateway struct {
	mock.Mock
}

func (m *MockPOIGateway) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) SearchNearby(ctx context.Context, lat, lon, radiusM float64, category *string) ([]*domain.POI, error) {
	args := m.Called(ctx, lat, lon, radiusM, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) SearchByCity(ctx context.Context, cityID int64, category *string, limit int) ([]*domain.POI, error) {
	args := m.Called(ctx, cityID, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *errors.AppError `json:"error"`
}

func setupApp(t *testing.T) (*fiber.App, *MockPOIGateway) {
	t.Helper()

	logger := zap.NewNop()
	est := geo.NewEstimator(nil)
	gateway := new(MockPOIGateway)
	uc := usecase.NewItineraryUseCase(
		memory.NewItineraryRepository(logger),
		gateway,
		nil,
		nil,
		optimizer.New(est, 1, logger),
		est,
		config.ItineraryConfig{MinDays: 1, MaxDays: 30, DefaultVisitMinutes: 60},
		time.Minute,
		logger,
	)

	app := fiber.New()
	handler.NewItineraryHandler(uc, logger).Register(app.Group("/api/v1"))
	return app, gateway
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", testOwner)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func createRoute(t *testing.T, app *fiber.App, name string) domain.Route {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/itineraries", map[string]interface{}{
		"name":           name,
		"city_id":        1,
		"transport_mode": "walk",
		"day_count":      2,
	})
	require.Equal(t, http.StatusCreated, status)

	var route domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &route))
	return route
}

func TestItineraryHandler_MissingOwner(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/itineraries", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestItineraryHandler_CreateAndGet(t *testing.T) {
	app, _ := setupApp(t)

	route := createRoute(t, app, "Madrid")
	assert.Len(t, route.Days, 2)
	assert.Equal(t, testOwner, route.OwnerID)

	status, env := doRequest(t, app, http.MethodGet, "/api/v1/itineraries/"+route.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)

	var got domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, route.ID, got.ID)

	status, env = doRequest(t, app, http.MethodGet, "/api/v1/itineraries/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Error.Code)

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/itineraries/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestItineraryHandler_CreateValidation(t *testing.T) {
	app, _ := setupApp(t)

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/itineraries", map[string]interface{}{
		"name":           "Bad",
		"city_id":        1,
		"transport_mode": "teleport",
		"day_count":      2,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "transport_mode")

	status, env = doRequest(t, app, http.MethodPost, "/api/v1/itineraries", map[string]interface{}{
		"name":           "Long",
		"city_id":        1,
		"transport_mode": "car",
		"day_count":      45,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_DAY_COUNT", env.Error.Code)

	createRoute(t, app, "Twice")
	status, env = doRequest(t, app, http.MethodPost, "/api/v1/itineraries", map[string]interface{}{
		"name":           "Twice",
		"city_id":        1,
		"transport_mode": "car",
		"day_count":      1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DUPLICATE_ROUTE_NAME", env.Error.Code)
}

func TestItineraryHandler_PointLifecycle(t *testing.T) {
	app, gateway := setupApp(t)
	route := createRoute(t, app, "Barcelona")
	base := "/api/v1/itineraries/" + route.ID.String()

	gateway.On("GetPOI", mock.Anything, int64(1)).
		Return(&domain.POI{ID: 1, Name: "Sagrada Familia", Lat: 41.4036, Lon: 2.1744, Category: "attraction"}, nil)
	gateway.On("GetPOI", mock.Anything, int64(2)).
		Return(&domain.POI{ID: 2, Name: "Park Guell", Lat: 41.4145, Lon: 2.1527, Category: "park"}, nil)
	gateway.On("GetPOI", mock.Anything, int64(3)).Return(nil, errors.ErrUpstreamUnavailable)

	status, _ := doRequest(t, app, http.MethodPost, base+"/points", map[string]interface{}{"poi_id": 1, "day_number": 1})
	require.Equal(t, http.StatusOK, status)
	status, env := doRequest(t, app, http.MethodPost, base+"/points", map[string]interface{}{"poi_id": 2, "day_number": 1})
	require.Equal(t, http.StatusOK, status)

	var withPoints domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &withPoints))
	require.Len(t, withPoints.Days[0].Points, 2)
	assert.Greater(t, withPoints.TotalDistanceKm, 0.0)

	status, env = doRequest(t, app, http.MethodPost, base+"/points", map[string]interface{}{"poi_id": 2, "day_number": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DUPLICATE_POI_IN_DAY", env.Error.Code)

	status, env = doRequest(t, app, http.MethodPost, base+"/points", map[string]interface{}{"poi_id": 3})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", env.Error.Code)

	p1, p2 := withPoints.Days[0].Points[0].ID, withPoints.Days[0].Points[1].ID
	status, env = doRequest(t, app, http.MethodPut, base+"/points/order", map[string]interface{}{"point_ids": []uuid.UUID{p2}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REORDER_SET", env.Error.Code)

	status, env = doRequest(t, app, http.MethodPut, base+"/points/order", map[string]interface{}{"point_ids": []uuid.UUID{p2, p1}})
	require.Equal(t, http.StatusOK, status)
	var reordered domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &reordered))
	assert.Equal(t, int64(2), reordered.Days[0].Points[0].POIID)

	status, _ = doRequest(t, app, http.MethodDelete, base+"/points/1", nil)
	require.Equal(t, http.StatusOK, status)
	status, env = doRequest(t, app, http.MethodDelete, base+"/points/1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "POINT_NOT_FOUND", env.Error.Code)
}

func TestItineraryHandler_OptimizeDuplicateArchiveDelete(t *testing.T) {
	app, gateway := setupApp(t)
	route := createRoute(t, app, "Vienna")
	base := "/api/v1/itineraries/" + route.ID.String()

	gateway.On("GetPOIsBatch", mock.Anything, mock.Anything).Return([]*domain.POI{}, nil)

	status, env := doRequest(t, app, http.MethodPost, base+"/optimize", map[string]interface{}{"mode": "rating"})
	require.Equal(t, http.StatusOK, status)
	var optimized domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &optimized))
	assert.True(t, optimized.IsOptimized)

	status, _ = doRequest(t, app, http.MethodPost, base+"/optimize", map[string]interface{}{"mode": "fastest"})
	assert.Equal(t, http.StatusBadRequest, status)

	// No stream configured for async jobs.
	status, _ = doRequest(t, app, http.MethodPost, base+"/optimize", map[string]interface{}{"mode": "time", "async": true})
	assert.Equal(t, http.StatusInternalServerError, status)

	status, env = doRequest(t, app, http.MethodPost, base+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, status)
	var copied domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &copied))
	assert.Equal(t, "Vienna (copy)", copied.Name)

	status, env = doRequest(t, app, http.MethodPost, base+"/archive", nil)
	require.Equal(t, http.StatusOK, status)
	var archived domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &archived))
	assert.True(t, archived.Archived)

	status, env = doRequest(t, app, http.MethodGet, "/api/v1/itineraries?archived=true", nil)
	require.Equal(t, http.StatusOK, status)
	var list []domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, route.ID, list[0].ID)

	status, _ = doRequest(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = doRequest(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestItineraryHandler_UpdateAndStatistics(t *testing.T) {
	app, _ := setupApp(t)
	route := createRoute(t, app, "Prague")
	base := "/api/v1/itineraries/" + route.ID.String()

	status, env := doRequest(t, app, http.MethodPatch, base, map[string]interface{}{"name": "Prague 2026", "transport_mode": "car"})
	require.Equal(t, http.StatusOK, status)
	var updated domain.Route
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Prague 2026", updated.Name)
	assert.Equal(t, domain.TransportCar, updated.TransportMode)

	status, env = doRequest(t, app, http.MethodGet, base+"/statistics", nil)
	require.Equal(t, http.StatusOK, status)
	var stats domain.RouteStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Len(t, stats.Days, 2)
	assert.Equal(t, 0, stats.TotalDurationMinutes)
}
