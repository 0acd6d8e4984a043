package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the caller identifier that JWTAuth stored in the
// context; rate limiting and cache keying use it to partition per user.

import "github.com/labstack/echo/v4"

// currentUserID returns the caller identifier from context, or "anon"
// when the request is unauthenticated.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return s
        }
    }
    return "anon"
}
