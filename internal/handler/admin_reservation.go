package handler

// admin_reservation.go exposes reservation oversight for admins:
// per-schedule listings, forced cancellation and dashboard totals.
// Cancellation goes through the same engine transaction customers use,
// so seats are restored and watchers notified identically.

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// AdminReservationHandler pairs the engine with the read-side
// repository for admin oversight endpoints.
type AdminReservationHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
	ScheduleRepo *repository.ScheduleRepo
}

func NewAdminReservationHandler(engine *booking.Engine, res *repository.ReservationRepo, sched *repository.ScheduleRepo) *AdminReservationHandler {
	return &AdminReservationHandler{Engine: engine, Reservations: res, ScheduleRepo: sched}
}

// ListBySchedule returns every reservation on a departure with customer
// identity attached.
func (h *AdminReservationHandler) ListBySchedule(c echo.Context) error {
	ctx := c.Request().Context()
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.ScheduleRepo.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, booking.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.Reservations.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// List returns recent reservations across the whole system, or the
// reservations of one departure when schedule_id is given.
func (h *AdminReservationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if raw := strings.TrimSpace(c.QueryParam("schedule_id")); raw != "" {
		scheduleID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule_id"})
		}
		items, err := h.Reservations.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
	items, err := h.Reservations.ListRecent(ctx, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel force-cancels any reservation, restoring its seats.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Engine.Cancel(c.Request().Context(), id, uid, true)
	if err != nil {
		return bookingErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Stats returns dashboard totals: reservation counts, seats sold,
// revenue and upcoming departures.
func (h *AdminReservationHandler) Stats(c echo.Context) error {
	st, err := h.Reservations.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, st)
}
