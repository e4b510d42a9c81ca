package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itinerary-microservice/internal/domain"
)

// LoadFixtures loads SQL fixture files into the database
func LoadFixtures(db *sql.DB, fixturesPath string, files []string) error {
	for _, file := range files {
		path := filepath.Join(fixturesPath, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("load fixture %s: %w", file, err)
		}
		fmt.Printf("Loaded fixture: %s\n", file)
	}

	return nil
}

// InsertPOI inserts a catalog row and returns its generated ID
func InsertPOI(ctx context.Context, db *sql.DB, poi domain.POI) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO pois (name, address, lat, lon, category, city_id, average_rating, price_level, verified, closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		poi.Name, poi.Address, poi.Lat, poi.Lon, poi.Category, poi.CityID,
		poi.AverageRating, poi.PriceLevel, poi.Verified, poi.Closed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert poi %q: %w", poi.Name, err)
	}
	return id, nil
}
