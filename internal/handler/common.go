package handler

import (
    "errors"

    "github.com/labstack/echo/v4"
)

// errNoIdentity is returned by callerID when the JWT middleware did not
// store a usable caller identifier in the context.
var errNoIdentity = errors.New("no caller identity")

// callerID extracts the opaque caller identifier placed in the context
// by the JWT middleware.  Every core operation requires it; absence is
// a hard failure reported as not-logged-in.
func callerID(c echo.Context) (string, error) {
    v := c.Get("user_id")
    if s, ok := v.(string); ok && s != "" {
        return s, nil
    }
    return "", errNoIdentity
}

// callerRole extracts the role claim stored by the JWT middleware,
// empty when absent.
func callerRole(c echo.Context) string {
    if s, ok := c.Get("role").(string); ok {
        return s
    }
    return ""
}
