package booking

import (
	"context"
	"time"
)

// ScheduleInfo is the engine's view of a schedule row, loaded under an
// exclusive lock at the start of the booking transaction.  DepartsAt is
// the combined departure date and time in UTC.
type ScheduleInfo struct {
	ID             uint64
	Origin         string
	Destination    string
	DepartureDate  string // "YYYY-MM-DD"
	DepartureTime  string // "HH:MM:SS"
	DepartsAt      time.Time
	PriceCents     uint32
	Capacity       uint32
	AvailableSeats uint32
}

// ReservationRecord carries a reservation and its assigned seats through
// Tx.InsertReservation.  The implementation populates ID and CreatedAt on
// success.
type ReservationRecord struct {
	ID              uint64
	UserID          uint64
	ScheduleID      uint64
	Passengers      uint32
	TotalPriceCents uint32
	Status          string
	Code            string
	Seats           []uint32
	CreatedAt       time.Time
}

// ReservationInfo is the engine's view of an existing reservation when
// cancelling, loaded under an exclusive lock.
type ReservationInfo struct {
	ID         uint64
	UserID     uint64
	ScheduleID uint64
	Passengers uint32
	Status     string
}

// Tx is the set of storage operations available inside one booking
// transaction.  Implementations must make every method act on the same
// underlying transaction so that the capacity check, the reservation
// write and the counter update commit or roll back together.
type Tx interface {
	// ScheduleForUpdate loads the schedule row under an exclusive lock
	// (SELECT ... FOR UPDATE or equivalent).  Returns ErrScheduleNotFound
	// when no row exists.
	ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*ScheduleInfo, error)
	// HasActiveReservation reports whether the user already holds a
	// non-cancelled reservation on the schedule, evaluated against the
	// same snapshot as ScheduleForUpdate.
	HasActiveReservation(ctx context.Context, userID, scheduleID uint64) (bool, error)
	// OccupiedSeats returns the seat numbers held by non-cancelled
	// reservations on the schedule.
	OccupiedSeats(ctx context.Context, scheduleID uint64) ([]uint32, error)
	// InsertReservation writes the reservation row and its seat rows.
	// Returns ErrCodeCollision when the reservation code is already taken.
	InsertReservation(ctx context.Context, rec *ReservationRecord) error
	// AdjustAvailableSeats applies a conditional update to the counter:
	// a negative delta fails with ErrInsufficientSeats when it would go
	// below zero, a positive delta is capped so the counter never exceeds
	// capacity.  Returns the new value.
	AdjustAvailableSeats(ctx context.Context, scheduleID uint64, delta int32) (uint32, error)
	// ReservationForUpdate loads a reservation row under an exclusive
	// lock.  Returns ErrReservationNotFound when no row exists.
	ReservationForUpdate(ctx context.Context, reservationID uint64) (*ReservationInfo, error)
	// MarkCancelled transitions the reservation to CANCELLED.
	MarkCancelled(ctx context.Context, reservationID uint64) error
}

// Store opens booking transactions.  InTx begins a transaction, runs fn,
// and commits when fn returns nil, rolling back otherwise.  Lock-wait
// timeouts and deadlocks surface as ErrStorageContention so callers can
// retry the whole operation.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// ConfirmedEvent describes a committed reservation for post-commit
// consumers (confirmation queue, live availability feed).
type ConfirmedEvent struct {
	ReservationID   uint64
	Code            string
	UserID          uint64
	ScheduleID      uint64
	Origin          string
	Destination     string
	DepartureDate   string
	DepartureTime   string
	Passengers      uint32
	Seats           []uint32
	TotalPriceCents uint32
	ConfirmedAt     time.Time
}

// Events receives best-effort notifications after a successful commit.
// Implementations must never block the request path or return errors into
// it; delivery failures are logged and dropped.
type Events interface {
	ReservationConfirmed(ctx context.Context, ev ConfirmedEvent)
	SeatUpdate(ctx context.Context, scheduleID uint64, availableSeats uint32)
}
