package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/dormwash/laundry-reservation/internal/handler"
    "github.com/dormwash/laundry-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// for load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the reservation, profile and machine endpoints
// under /v1.  Every route requires a valid bearer token; the admin
// status route additionally requires the admin role claim.  Each
// endpoint is one core operation: the UI invokes exactly one per user
// gesture and renders the returned envelope.
// The cache middleware is applied per read route (not globally) so it
// runs after JWTAuth and can key entries by caller identity.
func RegisterAPI(e *echo.Echo, r *handler.ReservationHandler, p *handler.ProfileHandler, m *handler.MachineHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

    // Reservation lifecycle
    g.POST("/reservations", r.Create)
    g.POST("/reservations/:id/cancel", r.Cancel)
    g.POST("/reservations/:id/status", r.UpdateStatus)
    g.GET("/reservations", r.ListMyReservations, cache)
    g.GET("/reservations/:id", r.GetReservation, cache)

    // Profile (get-or-create, partial upsert)
    g.GET("/profile", p.Get)
    g.PUT("/profile", p.Upsert)

    // Machine availability mirror
    g.GET("/machines/:id", m.Get, cache)

    // Admin surface: same status handler, but the admin role claim is
    // enforced up front so operator tooling fails fast.
    admin := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("admin"))
    admin.POST("/reservations/:id/status", r.UpdateStatus)
}
