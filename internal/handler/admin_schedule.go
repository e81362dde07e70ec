package handler

// admin_schedule.go implements the admin CRUD surface for schedules.
// Creating a schedule copies the bus capacity into the row so a fresh
// departure is fully bookable; capacity and available_seats are never
// editable afterwards, only the booking transaction moves them.

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

type scheduleReq struct {
	BusID         uint64 `json:"bus_id"`
	RouteID       uint64 `json:"route_id"`
	DepartureDate string `json:"departure_date"` // "YYYY-MM-DD"
	DepartureTime string `json:"departure_time"` // "HH:MM" or "HH:MM:SS"
	ArrivalTime   string `json:"arrival_time"`
	PriceCents    uint32 `json:"price_cents"` // 0 means inherit the route price
	Status        string `json:"status"`
}

// normalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM:SS".
func normalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04:05"), true
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format("15:04:05"), true
	}
	return "", false
}

// CreateSchedule publishes a departure. The departure must lie in the
// future and the referenced bus and route must exist.
func (h *AdminHandler) CreateSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BusID == 0 || req.RouteID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bus_id/route_id required"})
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.DepartureDate))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_date must be YYYY-MM-DD"})
	}
	depTime, ok := normalizeClock(req.DepartureTime)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be HH:MM"})
	}
	arrTime, ok := normalizeClock(req.ArrivalTime)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be HH:MM"})
	}
	departs, _ := time.Parse("2006-01-02 15:04:05", date.Format("2006-01-02")+" "+depTime)
	if !departs.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure must be in the future"})
	}

	bus, err := h.BusRepo.GetByID(ctx, req.BusID)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !bus.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bus is not active"})
	}
	rt, err := h.RouteRepo.GetByID(ctx, req.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	price := req.PriceCents
	if price == 0 {
		price = rt.PriceCents // inherit the route's default fare
	}

	s := &repository.Schedule{
		BusID:         req.BusID,
		RouteID:       req.RouteID,
		DepartureDate: date.Format("2006-01-02"),
		DepartureTime: depTime,
		ArrivalTime:   arrTime,
		PriceCents:    price,
		Capacity:      bus.Capacity,
	}
	if err := h.ScheduleRepo.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create schedule failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateSchedule edits times, price or status of a departure.
func (h *AdminHandler) UpdateSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cur, err := h.ScheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// Absent fields keep their current values.
	if strings.TrimSpace(req.DepartureDate) != "" {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(req.DepartureDate))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_date must be YYYY-MM-DD"})
		}
		cur.DepartureDate = date.Format("2006-01-02")
	}
	if strings.TrimSpace(req.DepartureTime) != "" {
		t, ok := normalizeClock(req.DepartureTime)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be HH:MM"})
		}
		cur.DepartureTime = t
	}
	if strings.TrimSpace(req.ArrivalTime) != "" {
		t, ok := normalizeClock(req.ArrivalTime)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be HH:MM"})
		}
		cur.ArrivalTime = t
	}
	if req.PriceCents > 0 {
		cur.PriceCents = req.PriceCents
	}
	if st := strings.ToUpper(strings.TrimSpace(req.Status)); st != "" {
		switch st {
		case "SCHEDULED", "CANCELLED", "FINISHED":
			cur.Status = st
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}

	if err := h.ScheduleRepo.Update(ctx, cur); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrNoChange):
			return c.JSON(http.StatusOK, cur)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update schedule failed"})
	}
	return c.JSON(http.StatusOK, cur)
}

// DeleteSchedule removes a departure that has no active reservations.
func (h *AdminHandler) DeleteSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.ScheduleRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, booking.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "schedule has active reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete schedule failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
