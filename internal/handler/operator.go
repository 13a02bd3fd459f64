package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

// OperatorHandler serves the staff endpoints: trip transitions, boarding,
// trip hold listings and the manual sweep triggers.
type OperatorHandler struct {
	Trips   TripService
	Tickets TicketService
	Holds   HoldService
	NoShows NoShowService
	Clock   clock.Clock
}

// NewOperatorHandler wires the handler to the engine.
func NewOperatorHandler(e *reservation.Engine, clk clock.Clock) *OperatorHandler {
	return &OperatorHandler{
		Trips:   e.Trips,
		Tickets: e.Workflow,
		Holds:   e.Holds,
		NoShows: e.NoShows,
		Clock:   clk,
	}
}

type transitionRequest struct {
	Status model.TripStatus `json:"status"`
}

// TransitionTrip handles POST /v1/trips/:id/status.
func (h *OperatorHandler) TransitionTrip(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	var body transitionRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !body.Status.Valid() {
		return badRequest(c, "unknown trip status")
	}
	trip, err := h.Trips.Transition(c.Request().Context(), tripID, body.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, trip)
}

// TripHolds handles GET /v1/trips/:id/holds.
func (h *OperatorHandler) TripHolds(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	holds, err := h.Holds.ListActiveHoldsForTrip(c.Request().Context(), tripID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": tripID, "holds": nonNil(holds)})
}

// Board handles POST /v1/tickets/:id/board.
func (h *OperatorHandler) Board(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid ticket id")
	}
	t, err := h.Tickets.Board(c.Request().Context(), ticketID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// SweepHolds handles POST /v1/admin/sweeps/holds.
func (h *OperatorHandler) SweepHolds(c echo.Context) error {
	n, err := h.Holds.ExpireSweep(c.Request().Context(), h.Clock.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": n})
}

// SweepNoShows handles POST /v1/admin/sweeps/no-shows.
func (h *OperatorHandler) SweepNoShows(c echo.Context) error {
	n, err := h.NoShows.Sweep(c.Request().Context(), h.Clock.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}
