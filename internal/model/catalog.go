package model

import "github.com/shopspring/decimal"

// FareRule overrides the default base fare for one (route, from, to) triple.
type FareRule struct {
	RouteID    uint64          `json:"route_id"`
	FromStopID uint64          `json:"from_stop_id"`
	ToStopID   uint64          `json:"to_stop_id"`
	BasePrice  decimal.Decimal `json:"base_price"`
}

// User is the part of the user directory the engine reads: existence and
// whether the account may still transact.
type User struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}
