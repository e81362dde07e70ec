package handler

// live.go upgrades GET /v1/schedules/:id/live to a WebSocket that
// streams seat_update messages for one departure. The first frame is a
// snapshot of the current availability so clients need no extra fetch.

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the separately served frontend.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler attaches WebSocket clients to the availability hub.
type LiveHandler struct {
	Hub          *ws.Hub
	ScheduleRepo *repository.ScheduleRepo
}

func NewLiveHandler(hub *ws.Hub, sched *repository.ScheduleRepo) *LiveHandler {
	return &LiveHandler{Hub: hub, ScheduleRepo: sched}
}

// Subscribe validates the schedule, upgrades the connection and pumps
// updates until the client goes away.
func (h *LiveHandler) Subscribe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sched, err := h.ScheduleRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err // Upgrade already wrote the HTTP error
	}

	client := &ws.Client{
		ScheduleID: id,
		Conn:       conn,
		Send:       make(chan []byte, 16),
	}
	h.Hub.Subscribe(client)

	go client.WritePump()
	go client.ReadPump(func() { h.Hub.Unsubscribe(client) })

	// Initial snapshot so the client renders without waiting for the
	// next booking. Queued on this client only; existing watchers
	// already have the value.
	client.QueueSeatUpdate(id, sched.AvailableSeats)
	return nil
}
