package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
)

// BookingStore adapts *sql.DB to the booking.Store interface. Every
// engine operation runs inside one transaction opened here, so the
// schedule row lock taken by ScheduleForUpdate serializes concurrent
// bookings for the same departure across all server processes.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a BookingStore bound to the given database.
func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// InTx begins a transaction, runs fn with a Tx bound to it and commits
// when fn returns nil. Any error rolls the transaction back. Lock wait
// timeouts (1205) and deadlocks (1213) are mapped to
// booking.ErrStorageContention so callers can retry the whole booking.
func (s *BookingStore) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

// classify maps MySQL concurrency failures onto the engine's retryable
// sentinel and passes everything else through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "1205") || strings.Contains(msg, "1213") {
		return booking.ErrStorageContention
	}
	return err
}

// bookingTx implements booking.Tx on a single *sql.Tx.
type bookingTx struct {
	tx *sql.Tx
}

// ScheduleForUpdate locks the schedule row with SELECT ... FOR UPDATE
// and then reads the route separately. Locking through a JOIN is
// avoided because some MySQL versions lock rows of every joined table.
// DepartsAt combines the stored date and time columns in UTC.
func (t *bookingTx) ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*booking.ScheduleInfo, error) {
	const q = `SELECT id, route_id,
	                  DATE_FORMAT(departure_date, '%Y-%m-%d'),
	                  TIME_FORMAT(departure_time, '%T'),
	                  price_cents, capacity, available_seats
	           FROM schedules
	           WHERE id = ? AND status = 'SCHEDULED'
	           FOR UPDATE`
	var (
		info    booking.ScheduleInfo
		routeID uint64
	)
	err := t.tx.QueryRowContext(ctx, q, scheduleID).Scan(
		&info.ID, &routeID, &info.DepartureDate, &info.DepartureTime,
		&info.PriceCents, &info.Capacity, &info.AvailableSeats,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrScheduleNotFound
		}
		return nil, err
	}

	departs, err := time.Parse("2006-01-02 15:04:05", info.DepartureDate+" "+info.DepartureTime)
	if err != nil {
		return nil, err
	}
	info.DepartsAt = departs.UTC()

	const routeQ = `SELECT origin, destination FROM routes WHERE id = ?`
	if err := t.tx.QueryRowContext(ctx, routeQ, routeID).Scan(&info.Origin, &info.Destination); err != nil {
		return nil, err
	}
	return &info, nil
}

// HasActiveReservation reports whether the user already holds a
// non-cancelled reservation on the schedule.
func (t *bookingTx) HasActiveReservation(ctx context.Context, userID, scheduleID uint64) (bool, error) {
	const q = `SELECT 1 FROM reservations
	           WHERE user_id = ? AND schedule_id = ? AND status <> 'CANCELLED'
	           LIMIT 1`
	var one int
	err := t.tx.QueryRowContext(ctx, q, userID, scheduleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OccupiedSeats returns the seat numbers held by non-cancelled
// reservations, ascending.
func (t *bookingTx) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]uint32, error) {
	const q = `SELECT rs.seat_number
	           FROM reservation_seats rs
	           JOIN reservations r ON r.id = rs.reservation_id
	           WHERE rs.schedule_id = ? AND r.status <> 'CANCELLED'
	           ORDER BY rs.seat_number`
	rows, err := t.tx.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []uint32
	for rows.Next() {
		var n uint32
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

// InsertReservation writes the reservation row and its seat rows in one
// bulk statement. A duplicate key on the reservation code column maps
// to booking.ErrCodeCollision so the engine can regenerate and retry.
func (t *bookingTx) InsertReservation(ctx context.Context, rec *booking.ReservationRecord) error {
	const q = `INSERT INTO reservations (user_id, schedule_id, passengers, total_price_cents, status, reservation_code)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		rec.UserID, rec.ScheduleID, rec.Passengers, rec.TotalPriceCents, rec.Status, rec.Code)
	if err != nil {
		if isDup(err) && strings.Contains(err.Error(), "reservation_code") {
			return booking.ErrCodeCollision
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)

	if len(rec.Seats) > 0 {
		query := `INSERT INTO reservation_seats (reservation_id, schedule_id, seat_number) VALUES `
		args := make([]interface{}, 0, len(rec.Seats)*3)
		for i, seat := range rec.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, rec.ID, rec.ScheduleID, seat)
		}
		if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return t.tx.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.CreatedAt)
}

// AdjustAvailableSeats applies a conditional counter update. For a
// negative delta the WHERE clause refuses to go below zero, so two
// transactions can never jointly oversell; for a positive delta the
// value is capped at capacity. The new value is read back from the same
// transaction.
func (t *bookingTx) AdjustAvailableSeats(ctx context.Context, scheduleID uint64, delta int32) (uint32, error) {
	if delta < 0 {
		need := uint32(-delta)
		const q = `UPDATE schedules
		           SET available_seats = available_seats - ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND available_seats >= ?`
		res, err := t.tx.ExecContext(ctx, q, need, scheduleID, need)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, booking.ErrInsufficientSeats
		}
	} else if delta > 0 {
		const q = `UPDATE schedules
		           SET available_seats = LEAST(capacity, available_seats + ?), updated_at = CURRENT_TIMESTAMP
		           WHERE id = ?`
		if _, err := t.tx.ExecContext(ctx, q, uint32(delta), scheduleID); err != nil {
			return 0, err
		}
	}

	var remaining uint32
	if err := t.tx.QueryRowContext(ctx,
		`SELECT available_seats FROM schedules WHERE id = ?`, scheduleID).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// ReservationForUpdate locks the reservation row for cancellation.
func (t *bookingTx) ReservationForUpdate(ctx context.Context, reservationID uint64) (*booking.ReservationInfo, error) {
	const q = `SELECT id, user_id, schedule_id, passengers, status
	           FROM reservations WHERE id = ? FOR UPDATE`
	var info booking.ReservationInfo
	err := t.tx.QueryRowContext(ctx, q, reservationID).Scan(
		&info.ID, &info.UserID, &info.ScheduleID, &info.Passengers, &info.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, err
	}
	return &info, nil
}

// MarkCancelled transitions the reservation to CANCELLED.
func (t *bookingTx) MarkCancelled(ctx context.Context, reservationID uint64) error {
	const q = `UPDATE reservations SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, reservationID)
	return err
}
