package middleware

// identity.go holds the helpers that read the authenticated caller back out
// of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the caller id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(ContextUserID).(uint64)
	return uid, ok && uid > 0
}

// Role returns the caller role stored by JWTAuth, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ContextRole).(string)
	return r
}

// callerKey identifies the caller in rate-limit keys; "anon" for
// unauthenticated requests.
func callerKey(c echo.Context) string {
	if uid, ok := UserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
