package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ReservationRepo provides read access to reservations and their seats.
// Reservations group together one or more seats for a particular
// schedule and user; the seats live in the reservation_seats table.
// Writes happen exclusively through the booking transaction, so this
// repository only assembles display data. All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationDetail encapsulates a reservation along with the trip and
// bus information and the seat numbers held. It is returned by
// ListByUser and GetByIDForUser for display to customers.
type ReservationDetail struct {
	ID              uint64   `json:"id"`
	ScheduleID      uint64   `json:"schedule_id"`
	Status          string   `json:"status"`
	Code            string   `json:"reservation_code"`
	Passengers      uint32   `json:"passengers"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	DepartureDate   string   `json:"departure_date"`
	DepartureTime   string   `json:"departure_time"`
	BusNumber       string   `json:"bus_number"`
	Seats           []uint32 `json:"seats"`
	CreatedAt       string   `json:"created_at"`
}

// AdminReservationDetail extends ReservationDetail with the customer's
// identity for the admin panel.
type AdminReservationDetail struct {
	ReservationDetail
	UserID    uint64 `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

const detailColumns = `r.id, r.schedule_id, r.status, r.reservation_code, r.passengers, r.total_price_cents,
                       rt.origin, rt.destination,
                       DATE_FORMAT(s.departure_date, '%Y-%m-%d'),
                       TIME_FORMAT(s.departure_time, '%T'),
                       b.number,
                       r.created_at`

const detailJoins = `FROM reservations r
                     JOIN schedules s ON s.id = r.schedule_id
                     JOIN routes rt   ON rt.id = s.route_id
                     JOIN buses b     ON b.id = s.bus_id`

func scanDetail(row interface{ Scan(...any) error }, d *ReservationDetail) error {
	var createdAt time.Time
	if err := row.Scan(
		&d.ID, &d.ScheduleID, &d.Status, &d.Code, &d.Passengers, &d.TotalPriceCents,
		&d.Origin, &d.Destination, &d.DepartureDate, &d.DepartureTime, &d.BusNumber,
		&createdAt,
	); err != nil {
		return err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return nil
}

// GetByIDForUser returns a single reservation for the given user. When
// no reservation with the specified ID exists for the user,
// sql.ErrNoRows is returned.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + ` WHERE r.id = ? AND r.user_id = ?`
	var det ReservationDetail
	if err := scanDetail(r.db.QueryRowContext(ctx, q, reservationID, userID), &det); err != nil {
		return nil, err
	}
	if err := r.fillSeats(ctx, []*ReservationDetail{&det}); err != nil {
		return nil, err
	}
	return &det, nil
}

// ListByUser returns all reservations for the given user, newest first.
// When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	q := `SELECT ` + detailColumns + ` ` + detailJoins + ` WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := scanDetail(rows, &d); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*ReservationDetail, len(details))
	for i := range details {
		ptrs[i] = &details[i]
	}
	if err := r.fillSeats(ctx, ptrs); err != nil {
		return nil, err
	}
	return details, nil
}

// ListBySchedule returns all reservations for a schedule with customer
// identity attached, newest first. Used by the admin panel.
func (r *ReservationRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]AdminReservationDetail, error) {
	q := `SELECT ` + detailColumns + `, r.user_id, u.name, u.email ` + detailJoins + `
	      JOIN users u ON u.id = r.user_id
	      WHERE r.schedule_id = ?
	      ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]AdminReservationDetail, 0)
	for rows.Next() {
		var d AdminReservationDetail
		var createdAt time.Time
		if err := rows.Scan(
			&d.ID, &d.ScheduleID, &d.Status, &d.Code, &d.Passengers, &d.TotalPriceCents,
			&d.Origin, &d.Destination, &d.DepartureDate, &d.DepartureTime, &d.BusNumber,
			&createdAt,
			&d.UserID, &d.UserName, &d.UserEmail,
		); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*ReservationDetail, len(details))
	for i := range details {
		ptrs[i] = &details[i].ReservationDetail
	}
	if err := r.fillSeats(ctx, ptrs); err != nil {
		return nil, err
	}
	return details, nil
}

// ListRecent returns the newest reservations across all schedules with
// customer identity attached, capped at limit. Used by the admin panel
// when no schedule filter is given.
func (r *ReservationRepo) ListRecent(ctx context.Context, limit int) ([]AdminReservationDetail, error) {
	if limit < 1 {
		limit = 100
	}
	q := `SELECT ` + detailColumns + `, r.user_id, u.name, u.email ` + detailJoins + `
	      JOIN users u ON u.id = r.user_id
	      ORDER BY r.created_at DESC, r.id DESC
	      LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]AdminReservationDetail, 0)
	for rows.Next() {
		var d AdminReservationDetail
		var createdAt time.Time
		if err := rows.Scan(
			&d.ID, &d.ScheduleID, &d.Status, &d.Code, &d.Passengers, &d.TotalPriceCents,
			&d.Origin, &d.Destination, &d.DepartureDate, &d.DepartureTime, &d.BusNumber,
			&createdAt,
			&d.UserID, &d.UserName, &d.UserEmail,
		); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*ReservationDetail, len(details))
	for i := range details {
		ptrs[i] = &details[i].ReservationDetail
	}
	if err := r.fillSeats(ctx, ptrs); err != nil {
		return nil, err
	}
	return details, nil
}

// fillSeats populates the seat numbers for all given reservations in a
// single query. Seats are ordered ascending within each reservation.
func (r *ReservationRepo) fillSeats(ctx context.Context, details []*ReservationDetail) error {
	if len(details) == 0 {
		return nil
	}
	index := make(map[uint64]*ReservationDetail, len(details))
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		d.Seats = []uint32{}
		index[d.ID] = d
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT reservation_id, seat_number
	      FROM reservation_seats
	      WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY reservation_id, seat_number`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rid uint64
		var seat uint32
		if err := rows.Scan(&rid, &seat); err != nil {
			return err
		}
		if d, ok := index[rid]; ok {
			d.Seats = append(d.Seats, seat)
		}
	}
	return rows.Err()
}

// OccupiedSeats returns the seat numbers held by non-cancelled
// reservations on a schedule, ascending. Used by the public seat map.
func (r *ReservationRepo) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]uint32, error) {
	const q = `SELECT rs.seat_number
	           FROM reservation_seats rs
	           JOIN reservations r ON r.id = rs.reservation_id
	           WHERE rs.schedule_id = ? AND r.status <> 'CANCELLED'
	           ORDER BY rs.seat_number`
	rows, err := r.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]uint32, 0)
	for rows.Next() {
		var n uint32
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

// Stats aggregates totals for the admin dashboard.
type Stats struct {
	TotalReservations     uint64 `json:"total_reservations"`
	ActiveReservations    uint64 `json:"active_reservations"`
	CancelledReservations uint64 `json:"cancelled_reservations"`
	SeatsSold             uint64 `json:"seats_sold"`
	RevenueCents          uint64 `json:"revenue_cents"`
	UpcomingSchedules     uint64 `json:"upcoming_schedules"`
}

// GetStats computes dashboard totals. Revenue and seats count only
// non-cancelled reservations.
func (r *ReservationRepo) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(status <> 'CANCELLED'), 0),
	                  COALESCE(SUM(status = 'CANCELLED'), 0),
	                  COALESCE(SUM(IF(status <> 'CANCELLED', passengers, 0)), 0),
	                  COALESCE(SUM(IF(status <> 'CANCELLED', total_price_cents, 0)), 0)
	           FROM reservations`
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&st.TotalReservations, &st.ActiveReservations, &st.CancelledReservations,
		&st.SeatsSold, &st.RevenueCents,
	); err != nil {
		return nil, err
	}
	const upQ = `SELECT COUNT(*) FROM schedules
	             WHERE status = 'SCHEDULED' AND TIMESTAMP(departure_date, departure_time) > UTC_TIMESTAMP()`
	if err := r.db.QueryRowContext(ctx, upQ).Scan(&st.UpcomingSchedules); err != nil {
		return nil, err
	}
	return &st, nil
}
