package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

// ReservationHandler serves the passenger-facing endpoints: seat maps,
// quotes, holds and tickets. Authenticated methods assume JWTAuth has run.
type ReservationHandler struct {
	Holds   HoldService
	Tickets TicketService
	Seats   SeatMapService
	Quotes  QuoteService
}

// NewReservationHandler wires the handler to the engine.
func NewReservationHandler(e *reservation.Engine) *ReservationHandler {
	return &ReservationHandler{
		Holds:   e.Holds,
		Tickets: e.Workflow,
		Seats:   e.Availability,
		Quotes:  e.Pricing,
	}
}

// SeatMap handles GET /v1/trips/:id/seats?from=&to=. Without from and to the
// whole trip is reported.
func (h *ReservationHandler) SeatMap(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	from, okFrom := queryID(c, "from")
	to, okTo := queryID(c, "to")
	if !okFrom || !okTo || (from == 0) != (to == 0) {
		return badRequest(c, "from and to must both be stop ids or both be omitted")
	}
	seats, err := h.Seats.SeatMap(c.Request().Context(), tripID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": tripID, "seats": seats})
}

// Quote handles GET /v1/trips/:id/price?from=&to=.
func (h *ReservationHandler) Quote(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	from, okFrom := queryID(c, "from")
	to, okTo := queryID(c, "to")
	if !okFrom || !okTo || from == 0 || to == 0 {
		return badRequest(c, "from and to stop ids are required")
	}
	price, err := h.Quotes.Quote(c.Request().Context(), tripID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":      tripID,
		"from_stop_id": from,
		"to_stop_id":   to,
		"price":        price.StringFixed(2),
	})
}

type createHoldRequest struct {
	SeatNumber int `json:"seat_number"`
}

// CreateHold handles POST /v1/trips/:id/holds. Repeating the call for a
// seat the caller already holds returns the existing hold.
func (h *ReservationHandler) CreateHold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	var body createHoldRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	hold, err := h.Holds.CreateHold(c.Request().Context(), tripID, body.SeatNumber, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, hold)
}

// MyHolds handles GET /v1/my-holds.
func (h *ReservationHandler) MyHolds(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	holds, err := h.Holds.ListActiveHoldsForUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"holds": nonNil(holds)})
}

// CancelHold handles DELETE /v1/holds/:id. Only the holder may cancel.
func (h *ReservationHandler) CancelHold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	holdID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid hold id")
	}
	if err := h.Holds.CancelHold(c.Request().Context(), holdID, userID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type purchaseRequest struct {
	SeatNumber      int              `json:"seat_number"`
	FromStopID      uint64           `json:"from_stop_id"`
	ToStopID        uint64           `json:"to_stop_id"`
	PaymentMethod   string           `json:"payment_method"`
	BaggageWeightKg *decimal.Decimal `json:"baggage_weight_kg"`

	// PassengerID lets an operator sell at the counter on a passenger's
	// behalf. Ignored for passengers.
	PassengerID uint64 `json:"passenger_id"`
}

// Purchase handles POST /v1/trips/:id/tickets.
func (h *ReservationHandler) Purchase(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid trip id")
	}
	var body purchaseRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.FromStopID == 0 || body.ToStopID == 0 {
		return badRequest(c, "from_stop_id and to_stop_id are required")
	}
	if body.BaggageWeightKg != nil && body.BaggageWeightKg.IsNegative() {
		return badRequest(c, "baggage_weight_kg must not be negative")
	}
	passenger := userID
	if body.PassengerID != 0 && middleware.Role(c) == middleware.RoleOperator {
		passenger = body.PassengerID
	}
	t, err := h.Tickets.Purchase(c.Request().Context(), reservation.PurchaseRequest{
		TripID:          tripID,
		PassengerID:     passenger,
		SeatNumber:      body.SeatNumber,
		FromStopID:      body.FromStopID,
		ToStopID:        body.ToStopID,
		PaymentMethod:   body.PaymentMethod,
		BaggageWeightKg: body.BaggageWeightKg,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// MyTickets handles GET /v1/my-tickets.
func (h *ReservationHandler) MyTickets(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	ts, err := h.Tickets.ListPassengerTickets(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": nonNil(ts)})
}

// GetTicket handles GET /v1/tickets/:id.
func (h *ReservationHandler) GetTicket(c echo.Context) error {
	t, err := h.ownedTicket(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// CancelTicket handles POST /v1/tickets/:id/cancel and returns the refund.
func (h *ReservationHandler) CancelTicket(c echo.Context) error {
	t, err := h.ownedTicket(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Tickets.Cancel(c.Request().Context(), t.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket":         res.Ticket,
		"refund_amount":  res.RefundAmount.StringFixed(2),
		"refund_percent": res.RefundPercent,
	})
}

// ownedTicket loads the :id ticket. Passengers only see their own tickets;
// anybody else's reads as not found.
func (h *ReservationHandler) ownedTicket(c echo.Context) (model.Ticket, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return model.Ticket{}, domain.NotFound("ticket")
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return model.Ticket{}, domain.NotFound("ticket")
	}
	t, err := h.Tickets.GetTicket(c.Request().Context(), ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if middleware.Role(c) != middleware.RoleOperator && t.PassengerID != userID {
		return model.Ticket{}, domain.NotFound("ticket")
	}
	return t, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
