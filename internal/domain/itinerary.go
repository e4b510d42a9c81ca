package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Route is a multi-day trip plan. It owns its Days, each Day owns its Points;
// children carry no back-references.
type Route struct {
	ID                   uuid.UUID         `json:"id" db:"id"`
	OwnerID              string            `json:"owner_id" db:"owner_id"`
	Name                 string            `json:"name" db:"name"`
	Description          *string           `json:"description,omitempty" db:"description"`
	CityID               int64             `json:"city_id" db:"city_id"`
	TransportMode        TransportMode     `json:"transport_mode" db:"transport_mode"`
	Archived             bool              `json:"archived" db:"archived"`
	TotalDistanceKm      float64           `json:"total_distance_km" db:"total_distance_km"`
	TotalDurationMinutes int               `json:"total_duration_minutes" db:"total_duration_minutes"`
	IsOptimized          bool              `json:"is_optimized" db:"is_optimized"`
	OptimizationMode     *OptimizationMode `json:"optimization_mode,omitempty" db:"optimization_mode"`
	CreatedAt            time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" db:"updated_at"`
	Days                 []Day             `json:"days" db:"-"`
}

// Day is an ordered container of visits identified by its day number.
type Day struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	DayNumber    int        `json:"day_number" db:"day_number"`
	PlannedStart *time.Time `json:"planned_start,omitempty" db:"planned_start"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty" db:"planned_end"`
	Points       []Point    `json:"points" db:"-"`
}

// Point is one scheduled visit to a POI.
type Point struct {
	ID                   uuid.UUID   `json:"id" db:"id"`
	OrderIndex           int         `json:"order_index" db:"order_index"`
	POIID                int64       `json:"poi_id" db:"poi_id"`
	Snapshot             POISnapshot `json:"poi"`
	VisitDurationMinutes int         `json:"visit_duration_minutes" db:"visit_duration_minutes"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
}

// POISnapshot is the display copy of a POI cached on a Point. Coordinates
// are nil when the POI could never be resolved.
type POISnapshot struct {
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	Category      string   `json:"category,omitempty"`
	AverageRating float64  `json:"average_rating"`
}

// Coordinate returns the snapshot position and whether it is resolved.
func (s POISnapshot) Coordinate() (Coordinate, bool) {
	if s.Lat == nil || s.Lon == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *s.Lat, Lon: *s.Lon}, true
}

// RouteFilter selects routes for listing.
type RouteFilter struct {
	OwnerID  string
	Archived bool
	Pagination
}

// DayByNumber returns a pointer into r.Days.
func (r *Route) DayByNumber(n int) (*Day, bool) {
	for i := range r.Days {
		if r.Days[i].DayNumber == n {
			return &r.Days[i], true
		}
	}
	return nil, false
}

func (r *Route) MaxDayNumber() int {
	maxN := 0
	for _, d := range r.Days {
		if d.DayNumber > maxN {
			maxN = d.DayNumber
		}
	}
	return maxN
}

// LastDay returns the day with the highest day number, or nil.
func (r *Route) LastDay() *Day {
	last := r.MaxDayNumber()
	if last == 0 {
		return nil
	}
	d, _ := r.DayByNumber(last)
	return d
}

// EnsureDay returns day n, appending empty days up to n when it is beyond
// the current maximum so day numbers stay contiguous.
func (r *Route) EnsureDay(n int) *Day {
	if d, ok := r.DayByNumber(n); ok {
		return d
	}
	for next := r.MaxDayNumber() + 1; next <= n; next++ {
		r.Days = append(r.Days, Day{ID: uuid.New(), DayNumber: next, Points: []Point{}})
	}
	r.SortDays()
	d, _ := r.DayByNumber(n)
	return d
}

func (r *Route) SortDays() {
	sort.SliceStable(r.Days, func(i, j int) bool {
		return r.Days[i].DayNumber < r.Days[j].DayNumber
	})
}

// PointIDs returns every point id on the route, day by day in visiting order.
func (r *Route) PointIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, r.PointCount())
	for _, d := range r.Days {
		for _, p := range d.Points {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (r *Route) PointCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Points)
	}
	return n
}

// POIIDs returns the distinct POI ids referenced by the route.
func (r *Route) POIIDs() []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, r.PointCount())
	for _, d := range r.Days {
		for _, p := range d.Points {
			if _, ok := seen[p.POIID]; ok {
				continue
			}
			seen[p.POIID] = struct{}{}
			ids = append(ids, p.POIID)
		}
	}
	return ids
}

// Clone deep-copies the route keeping every identity.
func (r *Route) Clone() *Route {
	c := *r
	if r.Description != nil {
		desc := *r.Description
		c.Description = &desc
	}
	if r.OptimizationMode != nil {
		mode := *r.OptimizationMode
		c.OptimizationMode = &mode
	}
	c.Days = make([]Day, len(r.Days))
	for i, d := range r.Days {
		c.Days[i] = d.clone()
	}
	return &c
}

// CopyAs deep-copies the route under fresh identities for the route, every
// day and every point. Order and content are preserved.
func (r *Route) CopyAs(name string, now time.Time) *Route {
	c := r.Clone()
	c.ID = uuid.New()
	c.Name = name
	c.Archived = false
	c.CreatedAt = now
	c.UpdatedAt = now
	for i := range c.Days {
		c.Days[i].ID = uuid.New()
		for j := range c.Days[i].Points {
			c.Days[i].Points[j].ID = uuid.New()
			c.Days[i].Points[j].CreatedAt = now
		}
	}
	return c
}

func (d Day) clone() Day {
	c := d
	if d.PlannedStart != nil {
		t := *d.PlannedStart
		c.PlannedStart = &t
	}
	if d.PlannedEnd != nil {
		t := *d.PlannedEnd
		c.PlannedEnd = &t
	}
	c.Points = make([]Point, len(d.Points))
	for i, p := range d.Points {
		c.Points[i] = p.clone()
	}
	return c
}

func (p Point) clone() Point {
	c := p
	if p.Snapshot.Lat != nil {
		lat := *p.Snapshot.Lat
		c.Snapshot.Lat = &lat
	}
	if p.Snapshot.Lon != nil {
		lon := *p.Snapshot.Lon
		c.Snapshot.Lon = &lon
	}
	return c
}

// HasPOI reports whether the POI is already scheduled on this day.
func (d *Day) HasPOI(poiID int64) bool {
	for _, p := range d.Points {
		if p.POIID == poiID {
			return true
		}
	}
	return false
}

func (d *Day) MaxOrderIndex() int {
	maxN := 0
	for _, p := range d.Points {
		if p.OrderIndex > maxN {
			maxN = p.OrderIndex
		}
	}
	return maxN
}

// Append puts p at position max+1.
func (d *Day) Append(p Point) {
	p.OrderIndex = d.MaxOrderIndex() + 1
	d.Points = append(d.Points, p)
}

// InsertAt shifts every point at or after orderIndex up by one and places p
// at orderIndex. An index past the end appends.
func (d *Day) InsertAt(p Point, orderIndex int) {
	if orderIndex < 1 {
		orderIndex = 1
	}
	if orderIndex > d.MaxOrderIndex() {
		d.Append(p)
		return
	}
	for i := range d.Points {
		if d.Points[i].OrderIndex >= orderIndex {
			d.Points[i].OrderIndex++
		}
	}
	p.OrderIndex = orderIndex
	d.Points = append(d.Points, p)
	d.SortPoints()
}

// RemovePOI drops every point referencing poiID and compacts the order
// indexes. It returns how many points were removed.
func (d *Day) RemovePOI(poiID int64) int {
	kept := d.Points[:0]
	removed := 0
	for _, p := range d.Points {
		if p.POIID == poiID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	d.Points = kept
	if removed > 0 {
		d.Renumber()
	}
	return removed
}

func (d *Day) SortPoints() {
	sort.SliceStable(d.Points, func(i, j int) bool {
		return d.Points[i].OrderIndex < d.Points[j].OrderIndex
	})
}

// Renumber assigns order indexes 1..N following the slice order.
func (d *Day) Renumber() {
	for i := range d.Points {
		d.Points[i].OrderIndex = i + 1
	}
}
