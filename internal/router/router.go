// Package router registers the HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

// Deps carries what the /v1 routes need. Redis may be nil, which disables
// rate limiting and response caching.
type Deps struct {
	Engine    *reservation.Engine
	Clock     clock.Clock
	JWTSecret string
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// RegisterRoutes registers routes that need no dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservation registers the /v1 API.
//
// Public: seat maps (cached) and price quotes.
// Passenger or operator: holds and tickets of the caller.
// Operator only: trip status, boarding, trip hold listings and sweeps.
func RegisterReservation(e *echo.Echo, d Deps) {
	res := handler.NewReservationHandler(d.Engine)
	ops := handler.NewOperatorHandler(d.Engine, d.Clock)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	pub := e.Group("/v1", limit)
	pub.GET("/trips/:id/seats", res.SeatMap, middleware.NewRedisCache(d.Cache, d.Redis))
	pub.GET("/trips/:id/price", res.Quote)

	// The limiter runs after JWTAuth here so keys can include the caller.
	auth := e.Group("/v1", middleware.JWTAuth(d.JWTSecret), limit)
	anyone := auth.Group("", middleware.RequireRole(middleware.RolePassenger, middleware.RoleOperator))
	anyone.POST("/trips/:id/holds", res.CreateHold)
	anyone.GET("/my-holds", res.MyHolds)
	anyone.DELETE("/holds/:id", res.CancelHold)
	anyone.POST("/trips/:id/tickets", res.Purchase)
	anyone.GET("/my-tickets", res.MyTickets)
	anyone.GET("/tickets/:id", res.GetTicket)
	anyone.POST("/tickets/:id/cancel", res.CancelTicket)

	op := auth.Group("", middleware.RequireRole(middleware.RoleOperator))
	op.GET("/trips/:id/holds", ops.TripHolds)
	op.POST("/trips/:id/status", ops.TransitionTrip)
	op.POST("/tickets/:id/board", ops.Board)
	op.POST("/admin/sweeps/holds", ops.SweepHolds)
	op.POST("/admin/sweeps/no-shows", ops.SweepNoShows)
}
