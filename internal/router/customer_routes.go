package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the CUSTOMER role. Customers can book
// seats, cancel their own reservations and view their history. The
// booking endpoint additionally sits behind the rate limiter.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	g.POST("/reservations", h.Create, limiter)
	g.PUT("/reservations/:id/cancel", h.Cancel)
	g.GET("/my-reservations", h.ListMine)
	g.GET("/reservations/:id", h.GetMine)
}
