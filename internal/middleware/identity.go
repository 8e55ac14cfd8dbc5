package middleware

// identity.go holds the caller lookup shared by the rate limiter, the
// cache and the request logger.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID returns the authenticated user id as a string, or "guest" when
// JWTAuth has not run for this request.
func userID(c echo.Context) string {
    switch v := c.Get(CtxUserID).(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "guest"
}
