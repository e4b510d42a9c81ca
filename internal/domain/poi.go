package domain

// POI is a point of interest as served by the external catalog.
type POI struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Address       string  `json:"address" db:"address"`
	Lat           float64 `json:"lat" db:"lat"`
	Lon           float64 `json:"lon" db:"lon"`
	Category      string  `json:"category" db:"category"`
	CityID        int64   `json:"city_id" db:"city_id"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	PriceLevel    int     `json:"price_level" db:"price_level"`
	Verified      bool    `json:"verified" db:"verified"`
	Closed        bool    `json:"closed" db:"closed"`
}

func (p *POI) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// Snapshot builds the display copy stored on a Point.
func (p *POI) Snapshot() POISnapshot {
	lat, lon := p.Lat, p.Lon
	return POISnapshot{
		Name:          p.Name,
		Address:       p.Address,
		Lat:           &lat,
		Lon:           &lon,
		Category:      p.Category,
		AverageRating: p.AverageRating,
	}
}
