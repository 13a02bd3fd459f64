package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
)

// codeBadRequest marks malformed input rejected before the engine is called.
const codeBadRequest = "BAD_REQUEST"

var statusByKind = map[domain.Kind]int{
	domain.KindNotFound:               http.StatusNotFound,
	domain.KindInvalidSegment:         http.StatusBadRequest,
	domain.KindSeatUnavailable:        http.StatusConflict,
	domain.KindInvalidStateTransition: http.StatusConflict,
	domain.KindInternal:               http.StatusInternalServerError,
}

// respondError writes err as {"error": msg, "code": KIND}. Internal causes
// are logged, never returned.
func respondError(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if kind == domain.KindInternal {
		msg = "internal error"
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Request().URL.Path, cause)
	}
	return c.JSON(status, echo.Map{"error": msg, "code": kind})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": codeBadRequest})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive integer query parameter; absent is 0.
func queryID(c echo.Context, name string) (uint64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(v, 10, 64)
	return id, err == nil && id > 0
}
