package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewItineraryRepositoryForTest creates an itinerary repository with test database and logger
func NewItineraryRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.ItineraryRepository {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewItineraryRepository(pgDB)
}

// NewPOIGatewayForTest creates a POI gateway with test database and logger
func NewPOIGatewayForTest(db *sqlx.DB, logger *zap.Logger) repository.POIGateway {
	pgDB := NewDBForTest(db, logger)
	return postgres.NewPOIGateway(pgDB)
}
