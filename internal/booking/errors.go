// Package booking implements the reservation engine: the single place
// where seat capacity is checked and changed.  All storage writes happen
// inside one transaction supplied by a Store implementation; HTTP, cache,
// broker and WebSocket layers are adapters around this package.
package booking

import "errors"

// Engine error taxonomy.  Handlers translate these with errors.Is into
// HTTP statuses; ErrorCode supplies the stable machine-readable code
// included in error responses.
var (
	// ErrScheduleNotFound – the schedule does not exist (404).
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrReservationNotFound – the reservation does not exist (404).
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrPastDeparture – the schedule's departure is not in the future (400).
	ErrPastDeparture = errors.New("departure already passed")
	// ErrInsufficientSeats – fewer seats available than requested (400).
	ErrInsufficientSeats = errors.New("not enough available seats")
	// ErrDuplicateReservation – the user already holds an active
	// reservation on this schedule and the duplicate policy rejects it (409).
	ErrDuplicateReservation = errors.New("duplicate reservation for schedule")
	// ErrInvalidPassengerCount – passenger count outside 1..MaxPassengers (400).
	ErrInvalidPassengerCount = errors.New("invalid passenger count")
	// ErrNotAuthorized – requester is neither the owner nor an admin (403).
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStorageContention – the transaction lost a lock race (lock wait
	// timeout or deadlock).  Nothing partial was committed; the whole
	// operation is safe to retry (409/503).
	ErrStorageContention = errors.New("storage contention, retry")
)

// ErrCodeCollision is returned by Tx.InsertReservation when the generated
// reservation code violates the unique constraint.  The engine regenerates
// the code and retries the insert; the error never escapes Create.
var ErrCodeCollision = errors.New("reservation code collision")

// ErrorCode maps an engine error to its machine-readable code.  Unknown
// errors map to "internal_error" and must not leak detail to callers.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrScheduleNotFound):
		return "schedule_not_found"
	case errors.Is(err, ErrReservationNotFound):
		return "reservation_not_found"
	case errors.Is(err, ErrPastDeparture):
		return "past_departure"
	case errors.Is(err, ErrInsufficientSeats):
		return "insufficient_seats"
	case errors.Is(err, ErrDuplicateReservation):
		return "duplicate_reservation"
	case errors.Is(err, ErrInvalidPassengerCount):
		return "invalid_passenger_count"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrStorageContention):
		return "storage_contention"
	}
	return "internal_error"
}
