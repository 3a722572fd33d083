package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1/owner.  The
// handler checks that the booking belongs to one of the caller's venues.
func RegisterOwner(e *echo.Echo, o *handler.OwnerBookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOwner),
	)
	g.PATCH("/bookings/:id/status", o.UpdateStatus)
}
