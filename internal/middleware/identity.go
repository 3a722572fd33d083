package middleware

// identity.go holds helpers shared by the rate limiter and access log to
// describe the caller.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// callerKey returns the authenticated user id as a string, or "anon" when
// the request carries no identity.
func callerKey(c echo.Context) string {
    if uid, ok := c.Get(ContextUserID).(uint64); ok && uid > 0 {
        return strconv.FormatUint(uid, 10)
    }
    return "anon"
}
