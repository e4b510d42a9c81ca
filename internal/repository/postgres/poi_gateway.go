package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

// poiGateway serves the POI catalog straight from a PostGIS "pois" table.
// Query failures surface as upstream errors, the same as an unreachable
// HTTP catalog.
type poiGateway struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPOIGateway(db *DB) repository.POIGateway {
	return &poiGateway{
		db:     db.DB,
		logger: db.logger,
	}
}

const poiColumns = `
	id, name, address, lat, lon, category, city_id,
	average_rating, price_level, verified, closed`

func (g *poiGateway) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	var poi domain.POI
	err := g.db.GetContext(ctx, &poi, `SELECT `+poiColumns+` FROM pois WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrPOINotFound.WithDetails(map[string]interface{}{"poi_id": id})
	}
	if err != nil {
		g.logger.Error("Failed to get POI by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get poi %d: %w", id, errors.ErrUpstreamUnavailable)
	}

	return &poi, nil
}

func (g *poiGateway) GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	if len(ids) == 0 {
		return []*domain.POI{}, nil
	}

	pois := make([]*domain.POI, 0, len(ids))
	err := g.db.SelectContext(ctx, &pois,
		`SELECT `+poiColumns+` FROM pois WHERE id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		g.logger.Error("Failed to get POI batch", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("get poi batch: %w", errors.ErrUpstreamUnavailable)
	}

	return pois, nil
}

func (g *poiGateway) SearchNearby(
	ctx context.Context,
	lat, lon, radiusM float64,
	category *string,
) ([]*domain.POI, error) {
	query := `
		WITH point AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS geom
		)
		SELECT ` + poiColumns + `
		FROM pois, point
		WHERE ST_DWithin(geometry::geography, point.geom, $3)
		  AND NOT closed
	`

	args := []interface{}{lon, lat, radiusM}
	argIdx := 4

	if category != nil && *category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *category)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY ST_Distance(geometry::geography, point.geom) LIMIT $%d", argIdx)
	args = append(args, DefaultQueryLimit)

	pois := make([]*domain.POI, 0)
	if err := g.db.SelectContext(ctx, &pois, query, args...); err != nil {
		g.logger.Error("Failed to search nearby POIs",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Float64("radius_m", radiusM),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search nearby: %w", errors.ErrUpstreamUnavailable)
	}

	return pois, nil
}

func (g *poiGateway) SearchByCity(
	ctx context.Context,
	cityID int64,
	category *string,
	limit int,
) ([]*domain.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois WHERE city_id = $1 AND NOT closed`

	args := []interface{}{cityID}
	argIdx := 2

	if category != nil && *category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *category)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY average_rating DESC, id LIMIT $%d", argIdx)
	args = append(args, clampLimit(limit))

	pois := make([]*domain.POI, 0)
	if err := g.db.SelectContext(ctx, &pois, query, args...); err != nil {
		g.logger.Error("Failed to search POIs by city", zap.Int64("city_id", cityID), zap.Error(err))
		return nil, fmt.Errorf("search by city: %w", errors.ErrUpstreamUnavailable)
	}

	return pois, nil
}
