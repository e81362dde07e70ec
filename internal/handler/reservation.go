// This file defines the customer reservation endpoints. The handlers
// stay thin: all capacity rules live in the booking engine, and this
// layer only binds requests, maps engine errors onto HTTP statuses and
// shapes responses.
package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// ReservationHandler bundles the booking engine with the read-side
// repository for listings.
type ReservationHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(engine *booking.Engine, reservations *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Engine: engine, Reservations: reservations}
}

type createReservationReq struct {
	ScheduleID uint64   `json:"schedule_id"`
	Passengers uint32   `json:"passengers"`
	Seats      []uint32 `json:"seats"` // optional preferred seat numbers
}

// statusForBookingErr translates an engine error into the HTTP status
// the API contract promises for it.
func statusForBookingErr(err error) int {
	switch {
	case errors.Is(err, booking.ErrScheduleNotFound),
		errors.Is(err, booking.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrPastDeparture),
		errors.Is(err, booking.ErrInsufficientSeats),
		errors.Is(err, booking.ErrInvalidPassengerCount):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrDuplicateReservation):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrStorageContention):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// bookingErrJSON writes the uniform error body: a stable machine code
// plus the human message. Internal errors never leak details.
func bookingErrJSON(c echo.Context, err error) error {
	status := statusForBookingErr(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{
		"error":   booking.ErrorCode(err),
		"message": msg,
	})
}

// Create books seats on a departure for the authenticated customer.
// Returns 201 with the confirmation (code, seats, totals) on success.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id required"})
	}

	conf, err := h.Engine.Create(c.Request().Context(), booking.CreateRequest{
		UserID:          uid,
		ScheduleID:      req.ScheduleID,
		Passengers:      req.Passengers,
		SeatPreferences: req.Seats,
	})
	if err != nil {
		return bookingErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, conf)
}

// Cancel releases the seats of a reservation back to its schedule. Only
// the owner (or an admin through the admin routes) may cancel.
// Cancelling twice is a no-op that still returns 200.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	res, err := h.Engine.Cancel(c.Request().Context(), id, uid, isAdmin(c))
	if err != nil {
		return bookingErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListMine returns the authenticated customer's reservations, newest
// first, with trip and seat details.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMine returns one reservation owned by the authenticated customer.
func (h *ReservationHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	det, err := h.Reservations.GetByIDForUser(c.Request().Context(), id, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, det)
}
