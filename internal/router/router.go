package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check backed
// by a database ping.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterPublic registers guest endpoints.  Availability answers are
// cached briefly and rate limited through the supplied middlewares, which
// may be pass-throughs when Redis is unavailable.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/venues/:id/availability", b.Availability, mw...)
}

// RegisterPayments registers the payment gateway callback.  It carries no
// JWT; the handler authenticates the shared webhook secret.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/confirm", p.Confirm)
}
