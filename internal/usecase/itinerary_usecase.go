package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/optimizer"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/geo"
	"github.com/itinerary-microservice/internal/usecase/dto"
)

const (
	defaultListLimit       = 20
	defaultSuggestLimit    = 10
	defaultSuggestRadiusM  = 1000.0
	copyNameSuffix         = " (copy)"
	plannedDayStartHour    = 9
	plannedDayEndHour      = 18
	optimizationStatusSent = "queued"
)

// ItineraryUseCase is the mutation and statistics engine for itineraries.
// Every mutation runs inside one repository transaction: the route is
// loaded, changed in memory, checked against its structural invariants,
// re-aggregated and written back, or nothing is written at all.
type ItineraryUseCase struct {
	repo       repository.ItineraryRepository
	poiGateway repository.POIGateway
	cacheRepo  repository.CacheRepository
	streamRepo repository.StreamRepository
	optimizer  *optimizer.Optimizer
	estimator  *geo.Estimator
	stats      *StatisticsCalculator
	cfg        config.ItineraryConfig
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewItineraryUseCase wires the engine. cacheRepo and streamRepo may be nil:
// reads then always hit the repository and async optimization is disabled.
func NewItineraryUseCase(
	repo repository.ItineraryRepository,
	poiGateway repository.POIGateway,
	cacheRepo repository.CacheRepository,
	streamRepo repository.StreamRepository,
	opt *optimizer.Optimizer,
	estimator *geo.Estimator,
	cfg config.ItineraryConfig,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ItineraryUseCase {
	return &ItineraryUseCase{
		repo:       repo,
		poiGateway: poiGateway,
		cacheRepo:  cacheRepo,
		streamRepo: streamRepo,
		optimizer:  opt,
		estimator:  estimator,
		stats:      NewStatisticsCalculator(estimator, logger),
		cfg:        cfg,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Create builds a route with DayCount empty days. Initial POIs, when given,
// are placed on day 1 in the requested order.
func (uc *ItineraryUseCase) Create(ctx context.Context, ownerID string, req dto.CreateItineraryRequest) (*domain.Route, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrValidation.WithDetails(map[string]interface{}{"name": "required"})
	}
	if !req.TransportMode.IsValid() {
		return nil, errors.ErrInvalidTransportMode.WithDetails(map[string]interface{}{"transport_mode": req.TransportMode})
	}
	if req.DayCount < uc.cfg.MinDays || req.DayCount > uc.cfg.MaxDays {
		return nil, errors.ErrInvalidDayCount.WithDetails(map[string]interface{}{
			"day_count": req.DayCount,
			"min":       uc.cfg.MinDays,
			"max":       uc.cfg.MaxDays,
		})
	}

	initial, err := uc.resolveInitialPOIs(ctx, req.POIIDs)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	route := &domain.Route{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          name,
		Description:   req.Description,
		CityID:        req.CityID,
		TransportMode: req.TransportMode,
		CreatedAt:     now,
		UpdatedAt:     now,
		Days:          make([]domain.Day, 0, req.DayCount),
	}

	for n := 1; n <= req.DayCount; n++ {
		day := domain.Day{ID: uuid.New(), DayNumber: n, Points: []domain.Point{}}
		if req.StartDate != nil {
			start, end := plannedWindow(*req.StartDate, n)
			day.PlannedStart, day.PlannedEnd = &start, &end
		}
		route.Days = append(route.Days, day)
	}

	for _, poi := range initial {
		route.Days[0].Append(uc.newPoint(poi, nil, now))
	}

	if err := route.CheckInvariants(); err != nil {
		uc.logger.Error("Created itinerary violates invariants", zap.Error(err))
		return nil, errors.ErrInternalServer.WithMessage("%v", err)
	}
	uc.stats.Apply(route)

	err = uc.repo.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
		exists, err := repo.ExistsByName(ctx, ownerID, name, false, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return errors.ErrDuplicateRouteName.WithDetails(map[string]interface{}{"name": name})
		}
		return repo.Create(ctx, route)
	})
	if err != nil {
		uc.logger.Warn("Failed to create itinerary",
			zap.String("owner_id", ownerID),
			zap.String("name", name),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Itinerary created",
		zap.String("route_id", route.ID.String()),
		zap.String("owner_id", ownerID),
		zap.Int("day_count", req.DayCount),
		zap.Int("points", route.PointCount()))

	return route, nil
}

// resolveInitialPOIs fetches the create-time POIs in request order. The
// gateway is called before any transaction is opened.
func (uc *ItineraryUseCase) resolveInitialPOIs(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, errors.ErrValidation.WithDetails(map[string]interface{}{"poi_ids": fmt.Sprintf("poi %d listed twice", id)})
		}
		seen[id] = struct{}{}
	}

	pois, err := uc.poiGateway.GetPOIsBatch(ctx, ids)
	if err != nil {
		uc.logger.Error("Failed to resolve initial POIs", zap.Error(err))
		return nil, err
	}

	byID := indexPOIs(pois)
	result := make([]*domain.POI, 0, len(ids))
	missing := make([]int64, 0)
	for _, id := range ids {
		poi, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		result = append(result, poi)
	}
	if len(missing) > 0 {
		return nil, errors.ErrPOINotFound.WithDetails(map[string]interface{}{"poi_ids": missing})
	}

	return result, nil
}

// Get returns the full route, reading through the cache when configured.
func (uc *ItineraryUseCase) Get(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Route, error) {
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetItinerary(ctx, id)
		if err != nil {
			uc.logger.Warn("Itinerary cache read failed", zap.String("route_id", id.String()), zap.Error(err))
		}
		if cached != nil {
			if cached.OwnerID != ownerID {
				return nil, errors.ErrRouteNotFound
			}
			return cached, nil
		}
	}

	route, err := uc.loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetItinerary(ctx, route, uc.cacheTTL); err != nil {
			uc.logger.Warn("Itinerary cache write failed", zap.String("route_id", id.String()), zap.Error(err))
		}
	}

	return route, nil
}

// List returns the owner's route headers, most recently updated first.
func (uc *ItineraryUseCase) List(ctx context.Context, ownerID string, req dto.ListItinerariesRequest) (*dto.ItineraryListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	routes, total, err := uc.repo.List(ctx, domain.RouteFilter{
		OwnerID:  ownerID,
		Archived: req.Archived,
		Pagination: domain.Pagination{
			Limit:  req.Limit,
			Offset: req.Offset,
		},
	})
	if err != nil {
		uc.logger.Error("Failed to list itineraries", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	return &dto.ItineraryListResponse{
		Items:  routes,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// AddPoint schedules a POI. The target day is the requested one (created
// together with any missing days before it), else the last day, else a new
// day 1.
func (uc *ItineraryUseCase) AddPoint(ctx context.Context, ownerID string, id uuid.UUID, req dto.AddPointRequest) (*domain.Route, error) {
	if req.DayNumber != nil && (*req.DayNumber < 1 || *req.DayNumber > uc.cfg.MaxDays) {
		return nil, errors.ErrInvalidDayCount.WithDetails(map[string]interface{}{
			"day_number": *req.DayNumber,
			"max":        uc.cfg.MaxDays,
		})
	}

	// 404 for a foreign route must win over gateway errors.
	if _, err := uc.loadOwned(ctx, uc.repo, ownerID, id); err != nil {
		return nil, err
	}

	poi, err := uc.poiGateway.GetPOI(ctx, req.POIID)
	if err != nil {
		uc.logger.Warn("Failed to resolve POI", zap.Int64("poi_id", req.POIID), zap.Error(err))
		return nil, err
	}

	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		var day *domain.Day
		switch {
		case req.DayNumber != nil:
			day = route.EnsureDay(*req.DayNumber)
		case route.LastDay() != nil:
			day = route.LastDay()
		default:
			day = route.EnsureDay(1)
		}

		if day.HasPOI(req.POIID) {
			return errors.ErrDuplicatePOIInDay.WithDetails(map[string]interface{}{
				"poi_id":     req.POIID,
				"day_number": day.DayNumber,
			})
		}

		point := uc.newPoint(poi, req.VisitDurationMinutes, uc.now())
		if req.OrderIndex != nil {
			day.InsertAt(point, *req.OrderIndex)
		} else {
			day.Append(point)
		}

		uc.planDays(route)
		clearOptimization(route)
		return nil
	})
}

// RemovePoint drops every occurrence of the POI on the route. Days emptied by
// the removal are kept.
func (uc *ItineraryUseCase) RemovePoint(ctx context.Context, ownerID string, id uuid.UUID, poiID int64) (*domain.Route, error) {
	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		removed := 0
		for i := range route.Days {
			removed += route.Days[i].RemovePOI(poiID)
		}
		if removed == 0 {
			return errors.ErrPointNotFound.WithDetails(map[string]interface{}{"poi_id": poiID})
		}

		clearOptimization(route)
		return nil
	})
}

// ReorderPoints takes every point id of the route exactly once. Points stay
// on their day; within each day they are renumbered 1..N following their
// relative position in pointIDs.
func (uc *ItineraryUseCase) ReorderPoints(ctx context.Context, ownerID string, id uuid.UUID, pointIDs []uuid.UUID) (*domain.Route, error) {
	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		position, err := reorderPositions(route, pointIDs)
		if err != nil {
			return err
		}

		for i := range route.Days {
			points := route.Days[i].Points
			sort.SliceStable(points, func(a, b int) bool {
				return position[points[a].ID] < position[points[b].ID]
			})
			route.Days[i].Renumber()
		}

		clearOptimization(route)
		return nil
	})
}

// reorderPositions checks that ids is a permutation of the route's point
// ids and returns each id's position.
func reorderPositions(route *domain.Route, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	existing := make(map[uuid.UUID]struct{}, route.PointCount())
	for _, pid := range route.PointIDs() {
		existing[pid] = struct{}{}
	}

	position := make(map[uuid.UUID]int, len(ids))
	var unknown, duplicate []string
	for i, pid := range ids {
		if _, ok := existing[pid]; !ok {
			unknown = append(unknown, pid.String())
			continue
		}
		if _, dup := position[pid]; dup {
			duplicate = append(duplicate, pid.String())
			continue
		}
		position[pid] = i
	}

	var missing []string
	for pid := range existing {
		if _, ok := position[pid]; !ok {
			missing = append(missing, pid.String())
		}
	}

	if len(unknown) == 0 && len(duplicate) == 0 && len(missing) == 0 {
		return position, nil
	}

	sort.Strings(missing)
	details := map[string]interface{}{
		"expected": len(existing),
		"received": len(ids),
	}
	if len(unknown) > 0 {
		details["unknown"] = unknown
	}
	if len(duplicate) > 0 {
		details["duplicate"] = duplicate
	}
	if len(missing) > 0 {
		details["missing"] = missing
	}
	return nil, errors.ErrInvalidReorderSet.WithDetails(details)
}

// Optimize re-sequences every day independently. Snapshots are refreshed
// from the catalog first; when the catalog is down the stored snapshots are
// used as they are.
func (uc *ItineraryUseCase) Optimize(ctx context.Context, ownerID string, id uuid.UUID, mode domain.OptimizationMode) (*domain.Route, error) {
	if !mode.IsValid() {
		return nil, errors.ErrInvalidOptimizationMode.WithDetails(map[string]interface{}{"mode": mode})
	}

	current, err := uc.loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	fresh := uc.refreshPOIs(ctx, current)

	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		for i := range route.Days {
			for j := range route.Days[i].Points {
				p := &route.Days[i].Points[j]
				if poi, ok := fresh[p.POIID]; ok {
					p.Snapshot = poi.Snapshot()
				}
			}
			route.Days[i].SortPoints()
		}

		sequenced, err := uc.optimizer.SequenceDays(ctx, route.Days, mode)
		if err != nil {
			return err
		}
		for i := range route.Days {
			route.Days[i].Points = sequenced[i]
			route.Days[i].Renumber()
		}

		route.IsOptimized = true
		m := mode
		route.OptimizationMode = &m
		return nil
	})
}

func (uc *ItineraryUseCase) refreshPOIs(ctx context.Context, route *domain.Route) map[int64]*domain.POI {
	ids := route.POIIDs()
	if len(ids) == 0 {
		return nil
	}

	pois, err := uc.poiGateway.GetPOIsBatch(ctx, ids)
	if err != nil {
		uc.logger.Warn("POI catalog unavailable, optimizing with stored snapshots",
			zap.String("route_id", route.ID.String()),
			zap.Error(err))
		return nil
	}
	return indexPOIs(pois)
}

// RequestOptimization queues an optimization for the worker and returns
// immediately.
func (uc *ItineraryUseCase) RequestOptimization(ctx context.Context, ownerID string, id uuid.UUID, mode domain.OptimizationMode) (*dto.OptimizationRequestedResponse, error) {
	if !mode.IsValid() {
		return nil, errors.ErrInvalidOptimizationMode.WithDetails(map[string]interface{}{"mode": mode})
	}
	if uc.streamRepo == nil {
		return nil, errors.ErrInternalServer.WithMessage("async optimization is not configured")
	}

	if _, err := uc.loadOwned(ctx, uc.repo, ownerID, id); err != nil {
		return nil, err
	}

	event := domain.OptimizeRequestedEvent{
		RequestID:   uuid.New(),
		RouteID:     id,
		OwnerID:     ownerID,
		Mode:        mode,
		RequestedAt: uc.now(),
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamItineraryOptimize, event); err != nil {
		uc.logger.Error("Failed to publish optimization request",
			zap.String("route_id", id.String()),
			zap.Error(err))
		return nil, errors.ErrInternalServer.WithMessage("failed to queue optimization")
	}

	uc.logger.Info("Optimization queued",
		zap.String("request_id", event.RequestID.String()),
		zap.String("route_id", id.String()),
		zap.String("mode", string(mode)))

	return &dto.OptimizationRequestedResponse{
		RequestID:   event.RequestID,
		RouteID:     id,
		Mode:        mode,
		Status:      optimizationStatusSent,
		RequestedAt: event.RequestedAt,
	}, nil
}

// Duplicate deep-copies the route under fresh identities. The copy is
// active even when the source is archived.
func (uc *ItineraryUseCase) Duplicate(ctx context.Context, ownerID string, id uuid.UUID, name *string) (*domain.Route, error) {
	var copied *domain.Route

	err := uc.repo.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
		src, err := uc.loadOwned(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}

		newName := src.Name + copyNameSuffix
		if name != nil {
			newName = strings.TrimSpace(*name)
		}
		if newName == "" {
			return errors.ErrValidation.WithDetails(map[string]interface{}{"name": "required"})
		}

		exists, err := repo.ExistsByName(ctx, ownerID, newName, false, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return errors.ErrDuplicateRouteName.WithDetails(map[string]interface{}{"name": newName})
		}

		copied = src.CopyAs(newName, uc.now())
		return repo.Create(ctx, copied)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Itinerary duplicated",
		zap.String("source_id", id.String()),
		zap.String("route_id", copied.ID.String()))

	return copied, nil
}

func (uc *ItineraryUseCase) Archive(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Route, error) {
	return uc.setArchived(ctx, ownerID, id, true)
}

func (uc *ItineraryUseCase) Unarchive(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Route, error) {
	return uc.setArchived(ctx, ownerID, id, false)
}

func (uc *ItineraryUseCase) setArchived(ctx context.Context, ownerID string, id uuid.UUID, archived bool) (*domain.Route, error) {
	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		if route.Archived == archived {
			return nil
		}

		exists, err := repo.ExistsByName(ctx, ownerID, route.Name, archived, route.ID)
		if err != nil {
			return err
		}
		if exists {
			return errors.ErrDuplicateRouteName.WithDetails(map[string]interface{}{
				"name":     route.Name,
				"archived": archived,
			})
		}

		route.Archived = archived
		return nil
	})
}

// Delete removes the route with its days and points.
func (uc *ItineraryUseCase) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	err := uc.repo.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
		if _, err := uc.loadOwned(ctx, repo, ownerID, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	uc.invalidate(ctx, id)
	uc.logger.Info("Itinerary deleted", zap.String("route_id", id.String()))
	return nil
}

// Update edits route metadata. A transport mode change is picked up by the
// aggregate recomputation every mutation performs.
func (uc *ItineraryUseCase) Update(ctx context.Context, ownerID string, id uuid.UUID, req dto.UpdateItineraryRequest) (*domain.Route, error) {
	if req.TransportMode != nil && !req.TransportMode.IsValid() {
		return nil, errors.ErrInvalidTransportMode.WithDetails(map[string]interface{}{"transport_mode": *req.TransportMode})
	}

	return uc.mutate(ctx, ownerID, id, func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return errors.ErrValidation.WithDetails(map[string]interface{}{"name": "required"})
			}
			if name != route.Name {
				exists, err := repo.ExistsByName(ctx, ownerID, name, route.Archived, route.ID)
				if err != nil {
					return err
				}
				if exists {
					return errors.ErrDuplicateRouteName.WithDetails(map[string]interface{}{"name": name})
				}
				route.Name = name
			}
		}

		if req.Description != nil {
			if *req.Description == "" {
				route.Description = nil
			} else {
				desc := *req.Description
				route.Description = &desc
			}
		}

		if req.TransportMode != nil {
			route.TransportMode = *req.TransportMode
		}
		return nil
	})
}

// GetEnriched joins the route with live catalog data. Stored snapshots are
// not touched; POIs the catalog no longer knows are flagged unavailable.
func (uc *ItineraryUseCase) GetEnriched(ctx context.Context, ownerID string, id uuid.UUID) (*domain.EnrichedItinerary, error) {
	route, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var byID map[int64]*domain.POI
	if ids := route.POIIDs(); len(ids) > 0 {
		pois, err := uc.poiGateway.GetPOIsBatch(ctx, ids)
		if err != nil {
			uc.logger.Error("Failed to enrich itinerary", zap.String("route_id", id.String()), zap.Error(err))
			return nil, err
		}
		byID = indexPOIs(pois)
	}

	result := &domain.EnrichedItinerary{
		Route: route,
		Days:  make([]domain.EnrichedDay, 0, len(route.Days)),
	}
	for _, day := range route.Days {
		ed := domain.EnrichedDay{
			DayNumber: day.DayNumber,
			Points:    make([]domain.EnrichedPoint, 0, len(day.Points)),
		}
		for _, p := range day.Points {
			poi, ok := byID[p.POIID]
			ed.Points = append(ed.Points, domain.EnrichedPoint{
				PointID:     p.ID,
				OrderIndex:  p.OrderIndex,
				POIID:       p.POIID,
				POI:         poi,
				Unavailable: !ok,
			})
		}
		result.Days = append(result.Days, ed)
	}

	return result, nil
}

// GetStatistics returns the per-day breakdown of the route's aggregates.
func (uc *ItineraryUseCase) GetStatistics(ctx context.Context, ownerID string, id uuid.UUID) (*domain.RouteStatistics, error) {
	route, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return uc.stats.Compute(route), nil
}

// SuggestNearby proposes POIs around the last located point of a day,
// closest first, skipping POIs the day already has.
func (uc *ItineraryUseCase) SuggestNearby(ctx context.Context, ownerID string, id uuid.UUID, req dto.SuggestNearbyRequest) (*dto.SuggestionsResponse, error) {
	if req.RadiusM == 0 {
		req.RadiusM = defaultSuggestRadiusM
	}
	if !geo.ValidateRadius(req.RadiusM) {
		return nil, errors.ErrInvalidRadius.WithDetails(map[string]interface{}{"radius_m": req.RadiusM})
	}
	if req.Limit <= 0 {
		req.Limit = defaultSuggestLimit
	}

	route, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	day, ok := route.DayByNumber(req.DayNumber)
	if !ok {
		return nil, errors.ErrDayNotFound.WithDetails(map[string]interface{}{"day_number": req.DayNumber})
	}

	anchor, ok := anchorOf(day)
	if !ok {
		return nil, errors.ErrValidation.WithMessage("day %d has no located points to search around", day.DayNumber)
	}

	pois, err := uc.poiGateway.SearchNearby(ctx, anchor.Lat, anchor.Lon, req.RadiusM, optionalString(req.Category))
	if err != nil {
		uc.logger.Error("Failed to search nearby POIs", zap.String("route_id", id.String()), zap.Error(err))
		return nil, err
	}

	candidates := make([]*domain.POI, 0, len(pois))
	coords := make([]domain.Coordinate, 0, len(pois))
	for _, poi := range pois {
		if day.HasPOI(poi.ID) {
			continue
		}
		candidates = append(candidates, poi)
		coords = append(coords, poi.Coordinate())
	}

	items := make([]dto.POISuggestion, 0, req.Limit)
	for len(candidates) > 0 && len(items) < req.Limit {
		idx, km := uc.estimator.Nearest(anchor, coords)
		meters := km * 1000
		items = append(items, dto.POISuggestion{POI: candidates[idx], DistanceM: &meters})

		candidates = append(candidates[:idx], candidates[idx+1:]...)
		coords = append(coords[:idx], coords[idx+1:]...)
	}

	return &dto.SuggestionsResponse{Items: items, Total: len(items)}, nil
}

// SuggestForCity proposes POIs of the route's city not yet on the route.
func (uc *ItineraryUseCase) SuggestForCity(ctx context.Context, ownerID string, id uuid.UUID, req dto.SuggestForCityRequest) (*dto.SuggestionsResponse, error) {
	if req.Limit <= 0 {
		req.Limit = defaultSuggestLimit
	}

	route, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	onRoute := make(map[int64]struct{})
	for _, poiID := range route.POIIDs() {
		onRoute[poiID] = struct{}{}
	}

	// Over-fetch so filtering still leaves a full page.
	pois, err := uc.poiGateway.SearchByCity(ctx, route.CityID, optionalString(req.Category), req.Limit+len(onRoute))
	if err != nil {
		uc.logger.Error("Failed to search city POIs", zap.String("route_id", id.String()), zap.Error(err))
		return nil, err
	}

	items := make([]dto.POISuggestion, 0, req.Limit)
	for _, poi := range pois {
		if len(items) == req.Limit {
			break
		}
		if _, ok := onRoute[poi.ID]; ok {
			continue
		}
		items = append(items, dto.POISuggestion{POI: poi})
	}

	return &dto.SuggestionsResponse{Items: items, Total: len(items)}, nil
}

type mutation func(ctx context.Context, repo repository.ItineraryRepository, route *domain.Route) error

// mutate applies fn to the owner's route inside a transaction, verifies the
// structural invariants, recomputes aggregates and persists the result.
func (uc *ItineraryUseCase) mutate(ctx context.Context, ownerID string, id uuid.UUID, fn mutation) (*domain.Route, error) {
	var result *domain.Route

	err := uc.repo.WithinTx(ctx, func(ctx context.Context, repo repository.ItineraryRepository) error {
		route, err := uc.loadOwned(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}

		if err := fn(ctx, repo, route); err != nil {
			return err
		}

		if err := route.CheckInvariants(); err != nil {
			uc.logger.Error("Mutation broke itinerary invariants",
				zap.String("route_id", id.String()),
				zap.Error(err))
			return errors.ErrInternalServer.WithMessage("%v", err)
		}

		uc.stats.Apply(route)
		route.UpdatedAt = uc.now()

		if err := repo.Update(ctx, route); err != nil {
			return err
		}
		result = route
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)
	return result, nil
}

// loadOwned hides routes of other owners behind ErrRouteNotFound.
func (uc *ItineraryUseCase) loadOwned(ctx context.Context, repo repository.ItineraryRepository, ownerID string, id uuid.UUID) (*domain.Route, error) {
	route, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if route.OwnerID != ownerID {
		return nil, errors.ErrRouteNotFound
	}
	return route, nil
}

func (uc *ItineraryUseCase) invalidate(ctx context.Context, id uuid.UUID) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.InvalidateItinerary(ctx, id); err != nil {
		uc.logger.Warn("Failed to invalidate itinerary cache", zap.String("route_id", id.String()), zap.Error(err))
	}
}

func (uc *ItineraryUseCase) newPoint(poi *domain.POI, visitMinutes *int, now time.Time) domain.Point {
	minutes := EstimateVisitMinutes(poi.Category, uc.cfg.DefaultVisitMinutes)
	if visitMinutes != nil {
		minutes = *visitMinutes
	}
	return domain.Point{
		ID:                   uuid.New(),
		POIID:                poi.ID,
		Snapshot:             poi.Snapshot(),
		VisitDurationMinutes: minutes,
		CreatedAt:            now,
	}
}

// planDays gives days created after the route a planned window following
// day 1's, shifted by whole days.
func (uc *ItineraryUseCase) planDays(route *domain.Route) {
	first, ok := route.DayByNumber(1)
	if !ok || first.PlannedStart == nil || first.PlannedEnd == nil {
		return
	}
	for i := range route.Days {
		d := &route.Days[i]
		if d.PlannedStart != nil {
			continue
		}
		shift := time.Duration(d.DayNumber-1) * 24 * time.Hour
		start := first.PlannedStart.Add(shift)
		end := first.PlannedEnd.Add(shift)
		d.PlannedStart, d.PlannedEnd = &start, &end
	}
}

func plannedWindow(startDate time.Time, dayNumber int) (time.Time, time.Time) {
	y, m, d := startDate.UTC().Date()
	day := time.Date(y, m, d+dayNumber-1, 0, 0, 0, 0, time.UTC)
	return day.Add(plannedDayStartHour * time.Hour), day.Add(plannedDayEndHour * time.Hour)
}

func clearOptimization(route *domain.Route) {
	route.IsOptimized = false
	route.OptimizationMode = nil
}

// anchorOf returns the last point of the day with known coordinates.
func anchorOf(day *domain.Day) (domain.Coordinate, bool) {
	best := -1
	var anchor domain.Coordinate
	for _, p := range day.Points {
		c, ok := p.Snapshot.Coordinate()
		if ok && p.OrderIndex > best {
			best, anchor = p.OrderIndex, c
		}
	}
	return anchor, best >= 0
}

func indexPOIs(pois []*domain.POI) map[int64]*domain.POI {
	byID := make(map[int64]*domain.POI, len(pois))
	for _, poi := range pois {
		if poi != nil {
			byID[poi.ID] = poi
		}
	}
	return byID
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
