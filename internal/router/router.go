// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body or a bearer header; it does not
	// require the JWT middleware so expired sessions can still log out.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)

	// Same handler at the top level so either path works.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse and search endpoints.
// cache may be nil when Redis is unavailable; the caller passes a
// no-op middleware in that case.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, live *handler.LiveHandler, cache echo.MiddlewareFunc) {
	// Cached read-only catalog endpoints.
	e.GET("/v1/routes", p.GetPublicRoutes, cache)
	e.GET("/v1/buses", p.GetPublicBuses, cache)
	e.GET("/v1/routes/:id/schedules", p.GetPublicSchedulesByRoute, cache)
	e.GET("/v1/search/schedules", p.SearchSchedules, cache)

	// Availability endpoints are never cached; stale seat counts would
	// contradict the live feed.
	e.GET("/v1/schedules/:id", p.GetPublicScheduleDetail)
	e.GET("/v1/schedules/:id/seats", p.GetPublicSeatMap)
	e.GET("/v1/schedules/:id/live", live.Subscribe)
}
