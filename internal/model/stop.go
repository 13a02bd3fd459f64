package model

// Stop is an ordered waypoint on a route. Order is unique and strictly
// increasing along the travel direction within one route; it is the only
// datum used for segment containment and overlap.
type Stop struct {
	ID      uint64 `json:"id"`
	RouteID uint64 `json:"route_id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
}
