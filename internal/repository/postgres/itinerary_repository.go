package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
)

type itineraryRepository struct {
	db     *sqlx.DB
	tx     *sqlx.Tx
	logger *zap.Logger
}

func NewItineraryRepository(db *DB) repository.ItineraryRepository {
	return &itineraryRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type routeRow struct {
	ID                   uuid.UUID      `db:"id"`
	OwnerID              string         `db:"owner_id"`
	Name                 string         `db:"name"`
	Description          sql.NullString `db:"description"`
	CityID               int64          `db:"city_id"`
	TransportMode        string         `db:"transport_mode"`
	Archived             bool           `db:"archived"`
	TotalDistanceKm      float64        `db:"total_distance_km"`
	TotalDurationMinutes int            `db:"total_duration_minutes"`
	IsOptimized          bool           `db:"is_optimized"`
	OptimizationMode     sql.NullString `db:"optimization_mode"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

type dayRow struct {
	ID           uuid.UUID    `db:"id"`
	RouteID      uuid.UUID    `db:"route_id"`
	DayNumber    int          `db:"day_number"`
	PlannedStart sql.NullTime `db:"planned_start"`
	PlannedEnd   sql.NullTime `db:"planned_end"`
}

type pointRow struct {
	ID                   uuid.UUID       `db:"id"`
	DayID                uuid.UUID       `db:"day_id"`
	OrderIndex           int             `db:"order_index"`
	POIID                int64           `db:"poi_id"`
	POIName              string          `db:"poi_name"`
	POIAddress           string          `db:"poi_address"`
	POILat               sql.NullFloat64 `db:"poi_lat"`
	POILon               sql.NullFloat64 `db:"poi_lon"`
	POICategory          string          `db:"poi_category"`
	POIAverageRating     float64         `db:"poi_average_rating"`
	VisitDurationMinutes int             `db:"visit_duration_minutes"`
	CreatedAt            time.Time       `db:"created_at"`
}

const routeColumns = `
	id, owner_id, name, description, city_id, transport_mode, archived,
	total_distance_km, total_duration_minutes, is_optimized, optimization_mode,
	created_at, updated_at`

func (r *itineraryRepository) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *itineraryRepository) Create(ctx context.Context, route *domain.Route) error {
	if r.tx == nil {
		return r.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
			return repo.Create(ctx, route)
		})
	}

	query := `
		INSERT INTO routes (` + routeColumns + `)
		VALUES (
			:id, :owner_id, :name, :description, :city_id, :transport_mode, :archived,
			:total_distance_km, :total_duration_minutes, :is_optimized, :optimization_mode,
			:created_at, :updated_at
		)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.tx, query, toRouteRow(route)); err != nil {
		return r.mapError("create itinerary", route.ID, err)
	}

	return r.insertChildren(ctx, route)
}

func (r *itineraryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	if r.tx != nil {
		// Serialize concurrent mutations of the same route.
		query += ` FOR UPDATE`
	}

	var row routeRow
	err := sqlx.GetContext(ctx, r.ext(), &row, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrRouteNotFound
	}
	if err != nil {
		return nil, r.mapError("get itinerary", id, err)
	}

	var days []dayRow
	err = sqlx.SelectContext(ctx, r.ext(), &days, `
		SELECT id, route_id, day_number, planned_start, planned_end
		FROM route_days
		WHERE route_id = $1
		ORDER BY day_number
	`, id)
	if err != nil {
		return nil, r.mapError("get itinerary days", id, err)
	}

	var points []pointRow
	err = sqlx.SelectContext(ctx, r.ext(), &points, `
		SELECT
			p.id, p.day_id, p.order_index, p.poi_id, p.poi_name, p.poi_address,
			p.poi_lat, p.poi_lon, p.poi_category, p.poi_average_rating,
			p.visit_duration_minutes, p.created_at
		FROM route_points p
		JOIN route_days d ON d.id = p.day_id
		WHERE d.route_id = $1
		ORDER BY d.day_number, p.order_index
	`, id)
	if err != nil {
		return nil, r.mapError("get itinerary points", id, err)
	}

	return assembleRoute(row, days, points), nil
}

func (r *itineraryRepository) List(ctx context.Context, filter domain.RouteFilter) ([]*domain.Route, int, error) {
	var total int
	err := sqlx.GetContext(ctx, r.ext(), &total,
		`SELECT COUNT(*) FROM routes WHERE owner_id = $1 AND archived = $2`,
		filter.OwnerID, filter.Archived,
	)
	if err != nil {
		return nil, 0, r.mapError("count itineraries", uuid.Nil, err)
	}

	var rows []routeRow
	err = sqlx.SelectContext(ctx, r.ext(), &rows, `
		SELECT `+routeColumns+`
		FROM routes
		WHERE owner_id = $1 AND archived = $2
		ORDER BY updated_at DESC, id
		LIMIT $3 OFFSET $4
	`, filter.OwnerID, filter.Archived, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, 0, r.mapError("list itineraries", uuid.Nil, err)
	}

	routes := make([]*domain.Route, 0, len(rows))
	for _, row := range rows {
		routes = append(routes, fromRouteRow(row))
	}

	return routes, total, nil
}

func (r *itineraryRepository) ExistsByName(ctx context.Context, ownerID, name string, archived bool, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.ext(), &exists, `
		SELECT EXISTS (
			SELECT 1 FROM routes
			WHERE owner_id = $1 AND name = $2 AND archived = $3 AND id <> $4
		)
	`, ownerID, name, archived, excludeID)
	if err != nil {
		return false, r.mapError("check itinerary name", excludeID, err)
	}
	return exists, nil
}

// Update rewrites the route header and replaces its days and points.
func (r *itineraryRepository) Update(ctx context.Context, route *domain.Route) error {
	if r.tx == nil {
		return r.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
			return repo.Update(ctx, route)
		})
	}

	res, err := sqlx.NamedExecContext(ctx, r.tx, `
		UPDATE routes SET
			name = :name,
			description = :description,
			city_id = :city_id,
			transport_mode = :transport_mode,
			archived = :archived,
			total_distance_km = :total_distance_km,
			total_duration_minutes = :total_duration_minutes,
			is_optimized = :is_optimized,
			optimization_mode = :optimization_mode,
			updated_at = :updated_at
		WHERE id = :id
	`, toRouteRow(route))
	if err != nil {
		return r.mapError("update itinerary", route.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrRouteNotFound
	}

	if _, err := r.tx.ExecContext(ctx, `DELETE FROM route_days WHERE route_id = $1`, route.ID); err != nil {
		return r.mapError("clear itinerary days", route.ID, err)
	}

	return r.insertChildren(ctx, route)
}

func (r *itineraryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return r.mapError("delete itinerary", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrRouteNotFound
	}
	return nil
}

func (r *itineraryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.ItineraryRepository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.mapError("begin transaction", uuid.Nil, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txRepo := &itineraryRepository{db: r.db, tx: tx, logger: r.logger}
	if err := fn(ctx, txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Warn("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return r.mapError("commit transaction", uuid.Nil, err)
	}
	return nil
}

func (r *itineraryRepository) insertChildren(ctx context.Context, route *domain.Route) error {
	if len(route.Days) == 0 {
		return nil
	}

	days := make([]dayRow, 0, len(route.Days))
	var points []pointRow
	for _, d := range route.Days {
		days = append(days, toDayRow(route.ID, d))
		for _, p := range d.Points {
			points = append(points, toPointRow(d.ID, p))
		}
	}

	_, err := sqlx.NamedExecContext(ctx, r.tx, `
		INSERT INTO route_days (id, route_id, day_number, planned_start, planned_end)
		VALUES (:id, :route_id, :day_number, :planned_start, :planned_end)
	`, days)
	if err != nil {
		return r.mapError("insert itinerary days", route.ID, err)
	}

	if len(points) == 0 {
		return nil
	}

	_, err = sqlx.NamedExecContext(ctx, r.tx, `
		INSERT INTO route_points (
			id, day_id, order_index, poi_id, poi_name, poi_address,
			poi_lat, poi_lon, poi_category, poi_average_rating,
			visit_duration_minutes, created_at
		)
		VALUES (
			:id, :day_id, :order_index, :poi_id, :poi_name, :poi_address,
			:poi_lat, :poi_lon, :poi_category, :poi_average_rating,
			:visit_duration_minutes, :created_at
		)
	`, points)
	if err != nil {
		return r.mapError("insert itinerary points", route.ID, err)
	}

	return nil
}

// mapError turns a unique violation into a retryable conflict and anything
// else into a database error.
func (r *itineraryRepository) mapError(op string, id uuid.UUID, err error) error {
	if constraint, ok := uniqueViolationConstraint(err); ok {
		r.logger.Warn("Unique constraint violated",
			zap.String("op", op),
			zap.String("route_id", id.String()),
			zap.String("constraint", constraint),
		)
		return errors.ErrConcurrencyConflict.WithDetails(map[string]interface{}{
			"constraint": constraint,
		})
	}

	r.logger.Error("Itinerary query failed",
		zap.String("op", op),
		zap.String("route_id", id.String()),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", op, errors.ErrDatabaseError)
}

func toRouteRow(r *domain.Route) routeRow {
	row := routeRow{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		Name:                 r.Name,
		CityID:               r.CityID,
		TransportMode:        string(r.TransportMode),
		Archived:             r.Archived,
		TotalDistanceKm:      r.TotalDistanceKm,
		TotalDurationMinutes: r.TotalDurationMinutes,
		IsOptimized:          r.IsOptimized,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.Description != nil {
		row.Description = sql.NullString{String: *r.Description, Valid: true}
	}
	if r.OptimizationMode != nil {
		row.OptimizationMode = sql.NullString{String: string(*r.OptimizationMode), Valid: true}
	}
	return row
}

func fromRouteRow(row routeRow) *domain.Route {
	r := &domain.Route{
		ID:                   row.ID,
		OwnerID:              row.OwnerID,
		Name:                 row.Name,
		CityID:               row.CityID,
		TransportMode:        domain.TransportMode(row.TransportMode),
		Archived:             row.Archived,
		TotalDistanceKm:      row.TotalDistanceKm,
		TotalDurationMinutes: row.TotalDurationMinutes,
		IsOptimized:          row.IsOptimized,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if row.Description.Valid {
		desc := row.Description.String
		r.Description = &desc
	}
	if row.OptimizationMode.Valid {
		mode := domain.OptimizationMode(row.OptimizationMode.String)
		r.OptimizationMode = &mode
	}
	return r
}

func toDayRow(routeID uuid.UUID, d domain.Day) dayRow {
	row := dayRow{ID: d.ID, RouteID: routeID, DayNumber: d.DayNumber}
	if d.PlannedStart != nil {
		row.PlannedStart = sql.NullTime{Time: *d.PlannedStart, Valid: true}
	}
	if d.PlannedEnd != nil {
		row.PlannedEnd = sql.NullTime{Time: *d.PlannedEnd, Valid: true}
	}
	return row
}

func toPointRow(dayID uuid.UUID, p domain.Point) pointRow {
	row := pointRow{
		ID:                   p.ID,
		DayID:                dayID,
		OrderIndex:           p.OrderIndex,
		POIID:                p.POIID,
		POIName:              p.Snapshot.Name,
		POIAddress:           p.Snapshot.Address,
		POICategory:          p.Snapshot.Category,
		POIAverageRating:     p.Snapshot.AverageRating,
		VisitDurationMinutes: p.VisitDurationMinutes,
		CreatedAt:            p.CreatedAt,
	}
	if p.Snapshot.Lat != nil {
		row.POILat = sql.NullFloat64{Float64: *p.Snapshot.Lat, Valid: true}
	}
	if p.Snapshot.Lon != nil {
		row.POILon = sql.NullFloat64{Float64: *p.Snapshot.Lon, Valid: true}
	}
	return row
}

func assembleRoute(row routeRow, days []dayRow, points []pointRow) *domain.Route {
	route := fromRouteRow(row)
	route.Days = make([]domain.Day, 0, len(days))

	index := make(map[uuid.UUID]int, len(days))
	for _, d := range days {
		day := domain.Day{ID: d.ID, DayNumber: d.DayNumber, Points: []domain.Point{}}
		if d.PlannedStart.Valid {
			t := d.PlannedStart.Time
			day.PlannedStart = &t
		}
		if d.PlannedEnd.Valid {
			t := d.PlannedEnd.Time
			day.PlannedEnd = &t
		}
		index[d.ID] = len(route.Days)
		route.Days = append(route.Days, day)
	}

	for _, p := range points {
		i, ok := index[p.DayID]
		if !ok {
			continue
		}
		point := domain.Point{
			ID:         p.ID,
			OrderIndex: p.OrderIndex,
			POIID:      p.POIID,
			Snapshot: domain.POISnapshot{
				Name:          p.POIName,
				Address:       p.POIAddress,
				Category:      p.POICategory,
				AverageRating: p.POIAverageRating,
			},
			VisitDurationMinutes: p.VisitDurationMinutes,
			CreatedAt:            p.CreatedAt,
		}
		if p.POILat.Valid && p.POILon.Valid {
			lat, lon := p.POILat.Float64, p.POILon.Float64
			point.Snapshot.Lat = &lat
			point.Snapshot.Lon = &lon
		}
		route.Days[i].Points = append(route.Days[i].Points, point)
	}

	return route
}
