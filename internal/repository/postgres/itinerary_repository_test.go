package postgres_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/repository/postgres/testhelpers"
)

// ItineraryRepositorySuite tests the itinerary repository with real database
type ItineraryRepositorySuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	repo   repository.ItineraryRepository
	ctx    context.Context
}

// SetupSuite runs once before all tests
func (s *ItineraryRepositorySuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())

	s.Require().NoError(s.testDB.ApplyMigrations(context.Background(), "../../../migrations"))

	s.repo = testhelpers.NewItineraryRepositoryForTest(s.testDB.DB, s.testDB.Logger)
}

// TearDownSuite runs once after all tests
func (s *ItineraryRepositorySuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

// SetupTest runs before each test
func (s *ItineraryRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.testDB.Cleanup(s.ctx))
}

func (s *ItineraryRepositorySuite) newRoute(owner, name string) *domain.Route {
	now := time.Now().UTC().Truncate(time.Microsecond)
	desc := "three days of museums"
	r := &domain.Route{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          name,
		Description:   &desc,
		CityID:        7,
		TransportMode: domain.TransportPublicTransport,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.EnsureDay(3)

	lat, lon := 41.4036, 2.1744
	r.Days[0].Append(domain.Point{
		ID:    uuid.New(),
		POIID: 1,
		Snapshot: domain.POISnapshot{
			Name:          "Sagrada Família",
			Lat:           &lat,
			Lon:           &lon,
			Category:      "landmark",
			AverageRating: 4.8,
		},
		VisitDurationMinutes: 90,
		CreatedAt:            now,
	})
	r.Days[0].Append(domain.Point{
		ID:                   uuid.New(),
		POIID:                2,
		Snapshot:             domain.POISnapshot{Name: "Unresolved"},
		VisitDurationMinutes: 60,
		CreatedAt:            now,
	})
	return r
}

func (s *ItineraryRepositorySuite) TestCreateAndGet() {
	route := s.newRoute("u1", "Barcelona")
	s.Require().NoError(s.repo.Create(s.ctx, route))

	got, err := s.repo.GetByID(s.ctx, route.ID)
	s.Require().NoError(err)
	s.Equal(route.Name, got.Name)
	s.Equal("three days of museums", *got.Description)
	s.Equal(domain.TransportPublicTransport, got.TransportMode)
	s.Require().Len(got.Days, 3)
	s.Equal([]int{1, 2, 3}, []int{got.Days[0].DayNumber, got.Days[1].DayNumber, got.Days[2].DayNumber})
	s.Require().Len(got.Days[0].Points, 2)
	s.Empty(got.Days[1].Points)

	first := got.Days[0].Points[0]
	s.Equal(int64(1), first.POIID)
	s.Equal(1, first.OrderIndex)
	s.Require().NotNil(first.Snapshot.Lat)
	s.InDelta(41.4036, *first.Snapshot.Lat, 1e-9)

	second := got.Days[0].Points[1]
	s.Nil(second.Snapshot.Lat)
	s.NoError(got.CheckInvariants())
}

func (s *ItineraryRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, errors.ErrRouteNotFound)
}

func (s *ItineraryRepositorySuite) TestUniqueViolationIsConflict() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newRoute("u1", "Barcelona")))

	err := s.repo.Create(s.ctx, s.newRoute("u1", "Barcelona"))
	s.ErrorIs(err, errors.ErrConcurrencyConflict)
	s.True(errors.IsConflict(err))
}

func (s *ItineraryRepositorySuite) TestUpdateReplacesDaysAndPoints() {
	route := s.newRoute("u1", "Barcelona")
	s.Require().NoError(s.repo.Create(s.ctx, route))

	route.Days[0].RemovePOI(1)
	route.EnsureDay(4)
	mode := domain.OptimizeDistance
	route.OptimizationMode = &mode
	route.IsOptimized = true
	route.TotalDistanceKm = 1.5
	s.Require().NoError(s.repo.Update(s.ctx, route))

	got, err := s.repo.GetByID(s.ctx, route.ID)
	s.Require().NoError(err)
	s.Len(got.Days, 4)
	s.Require().Len(got.Days[0].Points, 1)
	s.Equal(int64(2), got.Days[0].Points[0].POIID)
	s.Equal(1, got.Days[0].Points[0].OrderIndex)
	s.True(got.IsOptimized)
	s.Equal(domain.OptimizeDistance, *got.OptimizationMode)
	s.InDelta(1.5, got.TotalDistanceKm, 1e-9)
}

func (s *ItineraryRepositorySuite) TestWithinTxRollsBack() {
	route := s.newRoute("u1", "Barcelona")
	s.Require().NoError(s.repo.Create(s.ctx, route))

	boom := stderrors.New("boom")
	err := s.repo.WithinTx(s.ctx, func(ctx context.Context, tx repository.ItineraryRepository) error {
		loaded, err := tx.GetByID(ctx, route.ID)
		if err != nil {
			return err
		}
		loaded.Days = loaded.Days[:1]
		if err := tx.Update(ctx, loaded); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repo.GetByID(s.ctx, route.ID)
	s.Require().NoError(err)
	s.Len(got.Days, 3)
}

func (s *ItineraryRepositorySuite) TestListAndDelete() {
	a := s.newRoute("u1", "a")
	b := s.newRoute("u1", "b")
	b.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	archived := s.newRoute("u1", "c")
	archived.Archived = true
	for _, r := range []*domain.Route{a, b, archived} {
		s.Require().NoError(s.repo.Create(s.ctx, r))
	}

	routes, total, err := s.repo.List(s.ctx, domain.RouteFilter{OwnerID: "u1"})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(routes, 2)
	s.Equal("b", routes[0].Name)

	exists, err := s.repo.ExistsByName(s.ctx, "u1", "c", true, uuid.Nil)
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.repo.Delete(s.ctx, a.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, a.ID), errors.ErrRouteNotFound)

	var points int
	s.Require().NoError(s.testDB.DB.Get(&points, `SELECT COUNT(*) FROM route_points p JOIN route_days d ON d.id = p.day_id WHERE d.route_id = $1`, a.ID))
	s.Zero(points)
}

// Run the test suite
func TestItineraryRepository(t *testing.T) {
	suite.Run(t, new(ItineraryRepositorySuite))
}
