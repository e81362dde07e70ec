package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
)

// RegisterAdmin registers the management surface under /v1/admin. All
// routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, r *handler.AdminReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Fleet.
	g.POST("/buses", a.CreateBus)
	g.GET("/buses", a.ListBuses)
	g.PUT("/buses/:id", a.UpdateBus)
	g.DELETE("/buses/:id", a.DeleteBus)

	// Network.
	g.POST("/routes", a.CreateRoute)
	g.GET("/routes", a.ListRoutes)
	g.PUT("/routes/:id", a.UpdateRoute)
	g.DELETE("/routes/:id", a.DeleteRoute)

	// Departures.
	g.POST("/schedules", a.CreateSchedule)
	g.PUT("/schedules/:id", a.UpdateSchedule)
	g.DELETE("/schedules/:id", a.DeleteSchedule)

	// Oversight.
	g.GET("/reservations", r.List)
	g.GET("/schedules/:id/reservations", r.ListBySchedule)
	g.PUT("/reservations/:id/cancel", r.Cancel)
	g.GET("/stats", r.Stats)
	g.GET("/users", a.ListUsers)
}
