package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// codeInsertAttempts bounds how often a colliding reservation code is
// regenerated before the transaction is abandoned.
const codeInsertAttempts = 5

// Policy carries the deployment-tunable booking rules.
type Policy struct {
	// MaxPassengers caps seats per reservation; values < 1 fall back to 10.
	MaxPassengers int
	// RejectDuplicate refuses a second active reservation by the same
	// user on the same schedule.
	RejectDuplicate bool
}

// Engine performs the capacity-checked reservation and cancellation
// transactions.  All serialization is pushed to the storage layer: the
// engine holds no in-process locks, so it behaves correctly across
// multiple server processes.
type Engine struct {
	store  Store
	events Events
	policy Policy
	now    func() time.Time
}

// NewEngine constructs an Engine.  events may be nil, which disables
// post-commit notifications (useful in tests).
func NewEngine(store Store, events Events, policy Policy) *Engine {
	if policy.MaxPassengers < 1 {
		policy.MaxPassengers = 10
	}
	return &Engine{store: store, events: events, policy: policy, now: time.Now}
}

// CreateRequest is the input to Create.  SeatPreferences is optional; an
// empty list means auto-assignment.
type CreateRequest struct {
	UserID          uint64
	ScheduleID      uint64
	Passengers      uint32
	SeatPreferences []uint32
}

// TripSummary is returned with a confirmation so clients can render the
// ticket without a second round trip.
type TripSummary struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
}

// Confirmation is the result of a successful Create.
type Confirmation struct {
	ReservationID   uint64      `json:"reservation_id"`
	Code            string      `json:"reservation_code"`
	Seats           []uint32    `json:"seats"`
	Passengers      uint32      `json:"passengers"`
	TotalPriceCents uint32      `json:"total_price_cents"`
	AvailableSeats  uint32      `json:"available_seats"`
	Trip            TripSummary `json:"trip"`
}

// Create reserves req.Passengers seats on req.ScheduleID for req.UserID.
//
// Validation that needs no storage runs first; everything else executes
// inside a single transaction: lock the schedule row, re-check departure
// and capacity against that locked snapshot, assign seats, insert the
// reservation and decrement the availability counter.  Two concurrent
// calls can therefore never both observe enough seats and both commit
// when combined demand exceeds capacity.  Post-commit events are
// best-effort and never affect the returned result.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*Confirmation, error) {
	if req.Passengers < 1 || int(req.Passengers) > e.policy.MaxPassengers {
		return nil, ErrInvalidPassengerCount
	}

	var conf *Confirmation
	err := e.store.InTx(ctx, func(tx Tx) error {
		sched, err := tx.ScheduleForUpdate(ctx, req.ScheduleID)
		if err != nil {
			return err
		}
		if !sched.DepartsAt.After(e.now().UTC()) {
			return ErrPastDeparture
		}
		if e.policy.RejectDuplicate {
			dup, err := tx.HasActiveReservation(ctx, req.UserID, req.ScheduleID)
			if err != nil {
				return err
			}
			if dup {
				return ErrDuplicateReservation
			}
		}
		if sched.AvailableSeats < req.Passengers {
			return ErrInsufficientSeats
		}

		occupied, err := tx.OccupiedSeats(ctx, req.ScheduleID)
		if err != nil {
			return err
		}
		seats := assignSeats(sched.Capacity, occupied, req.SeatPreferences, int(req.Passengers))
		if seats == nil {
			return ErrInsufficientSeats
		}

		rec := ReservationRecord{
			UserID:          req.UserID,
			ScheduleID:      req.ScheduleID,
			Passengers:      req.Passengers,
			TotalPriceCents: sched.PriceCents * req.Passengers,
			Status:          model.ReservationConfirmed,
			Seats:           seats,
		}
		for attempt := 0; ; attempt++ {
			rec.Code, err = newReservationCode()
			if err != nil {
				return err
			}
			err = tx.InsertReservation(ctx, &rec)
			if err == nil {
				break
			}
			if !errors.Is(err, ErrCodeCollision) || attempt+1 >= codeInsertAttempts {
				return err
			}
		}

		remaining, err := tx.AdjustAvailableSeats(ctx, req.ScheduleID, -int32(req.Passengers))
		if err != nil {
			return err
		}

		conf = &Confirmation{
			ReservationID:   rec.ID,
			Code:            rec.Code,
			Seats:           seats,
			Passengers:      req.Passengers,
			TotalPriceCents: rec.TotalPriceCents,
			AvailableSeats:  remaining,
			Trip: TripSummary{
				Origin:        sched.Origin,
				Destination:   sched.Destination,
				DepartureDate: sched.DepartureDate,
				DepartureTime: sched.DepartureTime,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.events != nil {
		e.events.SeatUpdate(ctx, req.ScheduleID, conf.AvailableSeats)
		e.events.ReservationConfirmed(ctx, ConfirmedEvent{
			ReservationID:   conf.ReservationID,
			Code:            conf.Code,
			UserID:          req.UserID,
			ScheduleID:      req.ScheduleID,
			Origin:          conf.Trip.Origin,
			Destination:     conf.Trip.Destination,
			DepartureDate:   conf.Trip.DepartureDate,
			DepartureTime:   conf.Trip.DepartureTime,
			Passengers:      req.Passengers,
			Seats:           conf.Seats,
			TotalPriceCents: conf.TotalPriceCents,
			ConfirmedAt:     e.now().UTC(),
		})
	}
	return conf, nil
}

// CancelResult is the outcome of Cancel.  AlreadyCancelled marks the
// idempotent case: the reservation was cancelled before this call and no
// capacity changed.
type CancelResult struct {
	ReservationID    uint64 `json:"reservation_id"`
	ScheduleID       uint64 `json:"schedule_id"`
	AlreadyCancelled bool   `json:"already_cancelled"`
	AvailableSeats   uint32 `json:"available_seats"`
}

// Cancel transitions a reservation to CANCELLED and restores its seats to
// the schedule, atomically.  The requester must be the reservation's
// owner unless isAdmin is set.  Cancelling an already-cancelled
// reservation succeeds without touching capacity, so retries can never
// double-increment the counter.
func (e *Engine) Cancel(ctx context.Context, reservationID, requesterID uint64, isAdmin bool) (*CancelResult, error) {
	var res *CancelResult
	err := e.store.InTx(ctx, func(tx Tx) error {
		info, err := tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if !isAdmin && info.UserID != requesterID {
			return ErrNotAuthorized
		}
		if info.Status == model.ReservationCancelled {
			res = &CancelResult{ReservationID: info.ID, ScheduleID: info.ScheduleID, AlreadyCancelled: true}
			return nil
		}
		if err := tx.MarkCancelled(ctx, info.ID); err != nil {
			return err
		}
		remaining, err := tx.AdjustAvailableSeats(ctx, info.ScheduleID, int32(info.Passengers))
		if err != nil {
			return err
		}
		res = &CancelResult{ReservationID: info.ID, ScheduleID: info.ScheduleID, AvailableSeats: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.events != nil && !res.AlreadyCancelled {
		e.events.SeatUpdate(ctx, res.ScheduleID, res.AvailableSeats)
	}
	return res, nil
}
