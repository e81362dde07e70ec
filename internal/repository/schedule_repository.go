// Package repository contains data access logic for Schedule domain
// operations. This file defines the Schedule model and repository
// methods for schedules. A Schedule represents one departure of a bus
// on a route. The available_seats column is the authoritative capacity
// counter; only the booking transaction may change it after creation.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
)

// Schedule represents a single departure of a bus on a route.
// NOTE: DepartureDate is stored as "2006-01-02" and the time columns as
// "15:04:05"; both are interpreted as UTC.
type Schedule struct {
	ID             uint64 // ID is the primary key of the schedule
	BusID          uint64 // BusID references the assigned bus
	RouteID        uint64 // RouteID references the route being driven
	DepartureDate  string // DepartureDate is the calendar day of departure ("YYYY-MM-DD" UTC)
	DepartureTime  string // DepartureTime is the wall-clock departure ("HH:MM:SS" UTC)
	ArrivalTime    string // ArrivalTime is the expected arrival ("HH:MM:SS" UTC)
	PriceCents     uint32 // PriceCents is the per-seat fare for this departure
	Capacity       uint32 // Capacity is copied from the bus at creation time
	AvailableSeats uint32 // AvailableSeats is the remaining bookable seats
	Status         string // Status is the state of the schedule (SCHEDULED, CANCELLED, FINISHED)
	CreatedAt      string
	UpdatedAt      string
}

// ScheduleRepo manages persistence for schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *ScheduleRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new schedule. Capacity and AvailableSeats are both
// set from the bus capacity so a fresh schedule is fully bookable.
// Status is implicitly SCHEDULED by the DB. On success, the generated ID
// and DB-default fields are populated on the given Schedule.
func (r *ScheduleRepo) Create(ctx context.Context, s *Schedule) error {
	const q = `INSERT INTO schedules (bus_id, route_id, departure_date, departure_time, arrival_time, price_cents, capacity, available_seats)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.BusID, s.RouteID, s.DepartureDate, s.DepartureTime, s.ArrivalTime, s.PriceCents, s.Capacity, s.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, bus_id, route_id, departure_date, departure_time, arrival_time, price_cents, capacity, available_seats, status, created_at, updated_at
                 FROM schedules WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID,
		&s.BusID,
		&s.RouteID,
		&s.DepartureDate,
		&s.DepartureTime,
		&s.ArrivalTime,
		&s.PriceCents,
		&s.Capacity,
		&s.AvailableSeats,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// GetByID retrieves a schedule by its ID. It returns
// booking.ErrScheduleNotFound if there is no matching row so handlers
// map the miss the same way for reads and bookings.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*Schedule, error) {
	const q = `SELECT id, bus_id, route_id, departure_date, departure_time, arrival_time, price_cents, capacity, available_seats, status, created_at, updated_at
               FROM schedules WHERE id = ?`
	var s Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.BusID, &s.RouteID, &s.DepartureDate, &s.DepartureTime, &s.ArrivalTime,
		&s.PriceCents, &s.Capacity, &s.AvailableSeats, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByRoute returns all schedules for a given route ordered by
// departure ascending. Used by public browse endpoints.
func (r *ScheduleRepo) ListByRoute(ctx context.Context, routeID uint64) ([]Schedule, error) {
	const q = `SELECT id, bus_id, route_id, departure_date, departure_time, arrival_time, price_cents, capacity, available_seats, status, created_at, updated_at
               FROM schedules
               WHERE route_id = ?
               ORDER BY departure_date ASC, departure_time ASC`
	rows, err := r.db.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(
			&s.ID, &s.BusID, &s.RouteID, &s.DepartureDate, &s.DepartureTime, &s.ArrivalTime,
			&s.PriceCents, &s.Capacity, &s.AvailableSeats, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies a schedule's mutable attributes (times, price,
// status). Capacity and available_seats are deliberately excluded:
// shrinking capacity under sold seats would break the availability
// invariant. It returns ErrNoChange when nothing differs and
// sql.ErrNoRows when the schedule does not exist.
func (r *ScheduleRepo) Update(ctx context.Context, s *Schedule) error {
	const q = `UPDATE schedules
               SET departure_date = ?, departure_time = ?, arrival_time = ?, price_cents = ?, status = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND (departure_date <> ? OR departure_time <> ? OR arrival_time <> ? OR price_cents <> ? OR status <> ?)`

	res, err := r.db.ExecContext(ctx, q,
		s.DepartureDate, s.DepartureTime, s.ArrivalTime, s.PriceCents, s.Status, // SET
		s.ID,
		s.DepartureDate, s.DepartureTime, s.ArrivalTime, s.PriceCents, s.Status, // only if at least one field differs
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ? LIMIT 1`, s.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a schedule and its dependent seat rows inside a
// transaction. If the schedule does not exist, booking.ErrScheduleNotFound
// is returned. If any non-cancelled reservations exist, the deletion is
// aborted and ErrConflict is returned.
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Ensure rollback or commit at the end
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrScheduleNotFound
		}
		return err
	}
	// Check for active reservations referencing this schedule
	var active int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE schedule_id = ? AND status <> 'CANCELLED'`, id,
	).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM reservation_seats WHERE schedule_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM reservations WHERE schedule_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
