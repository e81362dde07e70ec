// Package handler exposes HTTP handlers for both authenticated and
// public endpoints. This file defines the public browsing API: routes,
// the fleet, schedule details and the per-schedule seat map, all
// reachable without authentication. Internal fields (counters,
// timestamps) are filtered from responses.

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	RouteRepo       *repository.RouteRepo
	BusRepo         *repository.BusRepo
	ScheduleRepo    *repository.ScheduleRepo
	ReservationRepo *repository.ReservationRepo
}

// PublicRoute is a route exposed via the public API.
type PublicRoute struct {
	ID          uint64  `json:"id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKM  uint32  `json:"distance_km"`
	DurationMin uint32  `json:"duration_min"`
	PriceCents  uint32  `json:"price_cents"`
	Price       float64 `json:"price"`
}

// PublicBus is a fleet entry exposed via the public API.
type PublicBus struct {
	ID        uint64   `json:"id"`
	Number    string   `json:"number"`
	BusType   string   `json:"bus_type"`
	Capacity  uint32   `json:"capacity"`
	Amenities []string `json:"amenities"`
}

// GetPublicRoutes returns the whole route network. Response JSON
// contains an "items" array of PublicRoute.
func (h *PublicHandler) GetPublicRoutes(c echo.Context) error {
	ctx := c.Request().Context()
	routes, err := h.RouteRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicRoute, 0, len(routes))
	for _, rt := range routes {
		out = append(out, PublicRoute{
			ID: rt.ID, Origin: rt.Origin, Destination: rt.Destination,
			DistanceKM: rt.DistanceKM, DurationMin: rt.DurationMin,
			PriceCents: rt.PriceCents, Price: float64(rt.PriceCents) / 100.0,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicBuses lists the active fleet.
func (h *PublicHandler) GetPublicBuses(c echo.Context) error {
	ctx := c.Request().Context()
	buses, err := h.BusRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicBus, 0, len(buses))
	for _, b := range buses {
		if !b.IsActive {
			continue
		}
		out = append(out, PublicBus{
			ID: b.ID, Number: b.Number, BusType: b.BusType,
			Capacity: b.Capacity, Amenities: decodeAmenities(b.Amenities),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// decodeAmenities parses the stored JSON array, falling back to an
// empty list when the column holds anything unexpected.
func decodeAmenities(raw string) []string {
	var out []string
	if raw == "" || json.Unmarshal([]byte(raw), &out) != nil {
		return []string{}
	}
	return out
}

// GetPublicScheduleDetail returns one departure with trip, bus and
// availability information.
func (h *PublicHandler) GetPublicScheduleDetail(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.ScheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rt, err := h.RouteRepo.GetByID(ctx, s.RouteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	b, err := h.BusRepo.GetByID(ctx, s.BusID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":              s.ID,
		"origin":          rt.Origin,
		"destination":     rt.Destination,
		"departure_date":  s.DepartureDate,
		"departure_time":  s.DepartureTime,
		"arrival_time":    s.ArrivalTime,
		"status":          s.Status,
		"price_cents":     s.PriceCents,
		"price":           float64(s.PriceCents) / 100.0,
		"capacity":        s.Capacity,
		"available_seats": s.AvailableSeats,
		"bus": echo.Map{
			"number":    b.Number,
			"bus_type":  b.BusType,
			"amenities": decodeAmenities(b.Amenities),
		},
	})
}

// GetPublicSeatMap returns the seat layout for a departure: total
// capacity plus which seat numbers are already taken, so clients can
// render a picker.
func (h *PublicHandler) GetPublicSeatMap(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.ScheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied, err := h.ReservationRepo.OccupiedSeats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id":     s.ID,
		"capacity":        s.Capacity,
		"available_seats": s.AvailableSeats,
		"occupied":        occupied,
	})
}

// GetPublicSchedulesByRoute lists a route's departures for
// unauthenticated users.
func (h *PublicHandler) GetPublicSchedulesByRoute(c echo.Context) error {
	ctx := c.Request().Context()
	routeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.RouteRepo.GetByID(ctx, routeID); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	schedules, err := h.ScheduleRepo.ListByRoute(ctx, routeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type item struct {
		ID             uint64 `json:"id"`
		DepartureDate  string `json:"departure_date"`
		DepartureTime  string `json:"departure_time"`
		ArrivalTime    string `json:"arrival_time"`
		PriceCents     uint32 `json:"price_cents"`
		AvailableSeats uint32 `json:"available_seats"`
		Status         string `json:"status"`
	}
	out := make([]item, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, item{
			ID: s.ID, DepartureDate: s.DepartureDate, DepartureTime: s.DepartureTime,
			ArrivalTime: s.ArrivalTime, PriceCents: s.PriceCents,
			AvailableSeats: s.AvailableSeats, Status: s.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
