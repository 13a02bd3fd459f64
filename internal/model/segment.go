package model

import "math"

// Segment is a half-open stop-order range [From, To).
type Segment struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// WholeTrip spans every possible stop order. A seat free for WholeTrip has
// no sold segment at all.
var WholeTrip = Segment{From: math.MinInt32, To: math.MaxInt32}

// Valid reports whether the segment is non-empty.
func (s Segment) Valid() bool { return s.From < s.To }

// Overlaps reports whether s and o share at least one stop interval.
// Abutting segments (s.To == o.From) do not overlap.
func (s Segment) Overlaps(o Segment) bool {
	return s.From < o.To && o.From < s.To
}
