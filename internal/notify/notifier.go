// Package notify fans post-commit booking events out to the message
// broker and the live availability feed. Delivery is best-effort; a
// broker outage must never fail a booking that already committed.
package notify

import (
	"context"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/ws"
)

// Notifier implements booking.Events on top of the RabbitMQ publisher
// and the WebSocket hub. Hub may be nil when the live feed is disabled.
type Notifier struct {
	Hub *ws.Hub
}

// New returns a Notifier broadcasting through the given hub.
func New(hub *ws.Hub) *Notifier {
	return &Notifier{Hub: hub}
}

// ReservationConfirmed publishes the confirmation to the broker in the
// background. The request context is already done with the event by the
// time it fires, so publishing gets its own timeout.
func (n *Notifier) ReservationConfirmed(_ context.Context, ev booking.ConfirmedEvent) {
	event := queue.ReservationConfirmedEvent{
		ReservationID:   ev.ReservationID,
		Code:            ev.Code,
		UserID:          ev.UserID,
		ScheduleID:      ev.ScheduleID,
		Origin:          ev.Origin,
		Destination:     ev.Destination,
		DepartureDate:   ev.DepartureDate,
		DepartureTime:   ev.DepartureTime,
		Passengers:      ev.Passengers,
		Seats:           ev.Seats,
		TotalPriceCents: ev.TotalPriceCents,
		ConfirmedAt:     ev.ConfirmedAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishReservationConfirmed(ctx, event) // logged inside, dropped here
	}()
}

// SeatUpdate pushes the new availability to the schedule's watchers.
func (n *Notifier) SeatUpdate(_ context.Context, scheduleID uint64, availableSeats uint32) {
	if n.Hub == nil {
		return
	}
	n.Hub.BroadcastSeatUpdate(scheduleID, availableSeats)
}
