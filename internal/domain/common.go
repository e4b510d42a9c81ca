package domain

type Coordinate struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// Pagination параметры постраничной выборки
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
