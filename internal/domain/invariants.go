package domain

import "fmt"

// InvariantError describes a structural rule a route violates.
type InvariantError struct {
	Rule   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Detail)
}

// CheckInvariants verifies the structural rules every mutation must
// preserve: unique day numbers, dense 1..N order indexes per day and at most
// one point per POI within a day.
func (r *Route) CheckInvariants() error {
	days := make(map[int]struct{}, len(r.Days))
	for _, d := range r.Days {
		if d.DayNumber < 1 {
			return &InvariantError{Rule: "day_number", Detail: fmt.Sprintf("day number %d is not positive", d.DayNumber)}
		}
		if _, dup := days[d.DayNumber]; dup {
			return &InvariantError{Rule: "day_number", Detail: fmt.Sprintf("day number %d repeated", d.DayNumber)}
		}
		days[d.DayNumber] = struct{}{}

		if err := d.checkOrder(); err != nil {
			return err
		}

		pois := make(map[int64]struct{}, len(d.Points))
		for _, p := range d.Points {
			if _, dup := pois[p.POIID]; dup {
				return &InvariantError{
					Rule:   "poi_per_day",
					Detail: fmt.Sprintf("poi %d appears twice on day %d", p.POIID, d.DayNumber),
				}
			}
			pois[p.POIID] = struct{}{}
		}
	}
	return nil
}

func (d *Day) checkOrder() error {
	seen := make([]bool, len(d.Points)+1)
	for _, p := range d.Points {
		if p.OrderIndex < 1 || p.OrderIndex > len(d.Points) || seen[p.OrderIndex] {
			return &InvariantError{
				Rule:   "order_index",
				Detail: fmt.Sprintf("day %d order index %d is not part of a dense 1..%d sequence", d.DayNumber, p.OrderIndex, len(d.Points)),
			}
		}
		seen[p.OrderIndex] = true
	}
	return nil
}
