package poicatalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.POIGatewayConfig{
		BaseURL:        server.URL + "/",
		RequestTimeout: 2 * time.Second,
	}
	return NewClient(cfg, zap.NewNop()).(*client)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetPOI(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/pois/42", r.URL.Path)
			writeJSON(w, domain.POI{ID: 42, Name: "Alhambra", Lat: 37.176, Lon: -3.588, Category: "historic", AverageRating: 4.9})
		})

		poi, err := c.GetPOI(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "Alhambra", poi.Name)
		assert.Equal(t, 4.9, poi.AverageRating)
	})

	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		_, err := c.GetPOI(context.Background(), 42)
		assert.ErrorIs(t, err, errors.ErrPOINotFound)
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.GetPOI(context.Background(), 42)
		assert.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		c.httpClient.Timeout = 20 * time.Millisecond

		_, err := c.GetPOI(context.Background(), 42)
		assert.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		})

		_, err := c.GetPOI(context.Background(), 42)
		assert.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
	})
}

func TestClient_GetPOIsBatch(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/pois", r.URL.Path)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		// Only the first id of each chunk is known to the catalog.
		writeJSON(w, poiListResponse{Items: []*domain.POI{{ID: int64(len(ids)), Name: ids[0]}}})
	})

	ids := make([]int64, maxBatchIDs+5)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	pois, err := c.GetPOIsBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, pois, 2)
	assert.Equal(t, "1", pois[0].Name)
	assert.Equal(t, "101", pois[1].Name)

	empty, err := c.GetPOIsBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClient_SearchNearby(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pois/nearby", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "41.38", q.Get("lat"))
		assert.Equal(t, "2.17", q.Get("lon"))
		assert.Equal(t, "500", q.Get("radius_m"))
		assert.Equal(t, "museum", q.Get("category"))
		writeJSON(w, poiListResponse{Items: []*domain.POI{{ID: 1, Name: "MACBA"}}})
	})

	category := "museum"
	pois, err := c.SearchNearby(context.Background(), 41.38, 2.17, 500, &category)
	require.NoError(t, err)
	require.Len(t, pois, 1)
	assert.Equal(t, "MACBA", pois[0].Name)
}

func TestClient_SearchByCity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cities/7/pois", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("category"))
		writeJSON(w, poiListResponse{Items: []*domain.POI{{ID: 1}, {ID: 2}}})
	})

	pois, err := c.SearchByCity(context.Background(), 7, nil, 20)
	require.NoError(t, err)
	assert.Len(t, pois, 2)
}
