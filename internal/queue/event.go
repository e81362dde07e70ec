// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation commits.
// It carries enough information for downstream consumers to log, send
// tickets or feed analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID   uint64   `json:"reservation_id"`
	Code            string   `json:"reservation_code"`
	UserID          uint64   `json:"user_id"`
	ScheduleID      uint64   `json:"schedule_id"`
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	DepartureDate   string   `json:"departure_date"`
	DepartureTime   string   `json:"departure_time"`
	Passengers      uint32   `json:"passengers"`
	Seats           []uint32 `json:"seats"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	ConfirmedAt     string   `json:"confirmed_at"`
}
