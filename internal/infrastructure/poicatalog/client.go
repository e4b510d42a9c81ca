package poicatalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

// maxBatchIDs caps the ids sent in one batch request to keep URLs short.
const maxBatchIDs = 100

type client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// poiListResponse - ответ каталога со списком POI
type poiListResponse struct {
	Items []*domain.POI `json:"items"`
}

var errNotFound = stderrors.New("not found")

// NewClient создает HTTP клиент каталога POI
func NewClient(cfg *config.POIGatewayConfig, logger *zap.Logger) repository.POIGateway {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// GetPOI возвращает POI по ID
func (c *client) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	var poi domain.POI
	err := c.getJSON(ctx, fmt.Sprintf("/pois/%d", id), nil, &poi)
	if stderrors.Is(err, errNotFound) {
		return nil, errors.ErrPOINotFound.WithDetails(map[string]interface{}{"poi_id": id})
	}
	if err != nil {
		return nil, err
	}
	return &poi, nil
}

// GetPOIsBatch возвращает POI по списку ID, отсутствующие пропускаются
func (c *client) GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	result := make([]*domain.POI, 0, len(ids))

	for start := 0; start < len(ids); start += maxBatchIDs {
		end := start + maxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}

		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, strconv.FormatInt(id, 10))
		}

		var resp poiListResponse
		query := url.Values{"ids": {strings.Join(parts, ",")}}
		if err := c.getJSON(ctx, "/pois", query, &resp); err != nil {
			if stderrors.Is(err, errNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, resp.Items...)
	}

	return result, nil
}

// SearchNearby ищет POI в радиусе от точки
func (c *client) SearchNearby(ctx context.Context, lat, lon, radiusM float64, category *string) ([]*domain.POI, error) {
	query := url.Values{
		"lat":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":      {strconv.FormatFloat(lon, 'f', -1, 64)},
		"radius_m": {strconv.FormatFloat(radiusM, 'f', -1, 64)},
	}
	if category != nil && *category != "" {
		query.Set("category", *category)
	}

	var resp poiListResponse
	if err := c.getJSON(ctx, "/pois/nearby", query, &resp); err != nil {
		if stderrors.Is(err, errNotFound) {
			return []*domain.POI{}, nil
		}
		return nil, err
	}
	return resp.Items, nil
}

// SearchByCity возвращает POI города
func (c *client) SearchByCity(ctx context.Context, cityID int64, category *string, limit int) ([]*domain.POI, error) {
	query := url.Values{}
	if category != nil && *category != "" {
		query.Set("category", *category)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp poiListResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/cities/%d/pois", cityID), query, &resp); err != nil {
		if stderrors.Is(err, errNotFound) {
			return []*domain.POI{}, nil
		}
		return nil, err
	}
	return resp.Items, nil
}

// getJSON выполняет GET запрос и декодирует JSON ответ.
// 404 возвращается как errNotFound, остальные сбои как ErrUpstreamUnavailable.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	c.logger.Debug("Calling POI catalog", zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", errors.ErrUpstreamUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%v: %w", err, errors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("POI catalog returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("poi catalog status %d: %w", resp.StatusCode, errors.ErrUpstreamUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode response", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", errors.ErrUpstreamUnavailable)
	}

	return nil
}
