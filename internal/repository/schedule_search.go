package repository

import (
	"context"
	"strings"
)

// ScheduleSearchQuery defines filters & pagination for searching
// departures. Flexible widens the date filter to +/- 3 days.
type ScheduleSearchQuery struct {
	Origin      string
	Destination string
	Date        string // "YYYY-MM-DD", empty means any future departure
	Passengers  uint32 // minimum seats that must still be available
	Flexible    bool
	Page        int
	PageSize    int
}

// PublicScheduleRow is the shape returned to unauthenticated search
// clients. AvailabilityLevel coarsens the seat count so the UI can show
// "filling up" hints without polling exact numbers.
type PublicScheduleRow struct {
	ID                uint64  `json:"id"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	DepartureDate     string  `json:"departure_date"`
	DepartureTime     string  `json:"departure_time"`
	ArrivalTime       string  `json:"arrival_time"`
	BusNumber         string  `json:"bus_number"`
	BusType           string  `json:"bus_type"`
	PriceCents        uint32  `json:"price_cents"`
	Price             float64 `json:"price"`
	Capacity          uint32  `json:"capacity"`
	AvailableSeats    uint32  `json:"available_seats"`
	AvailabilityLevel string  `json:"availability_level"`
}

// availabilityLevel buckets the remaining seats: "sold_out" at zero,
// "low" under 20% of capacity, otherwise "available".
func availabilityLevel(available, capacity uint32) string {
	switch {
	case available == 0:
		return "sold_out"
	case capacity > 0 && available*5 < capacity:
		return "low"
	default:
		return "available"
	}
}

// Search returns upcoming departures matching the query plus the total
// match count for pagination. Cancelled schedules and departures in the
// past are never returned; when Passengers is set, schedules with fewer
// free seats are filtered out so the list only shows bookable options.
func (r *ScheduleRepo) Search(ctx context.Context, q ScheduleSearchQuery) ([]PublicScheduleRow, int64, error) {
	where := []string{
		"s.status = 'SCHEDULED'",
		"TIMESTAMP(s.departure_date, s.departure_time) > UTC_TIMESTAMP()",
	}
	args := []any{}

	if q.Origin != "" {
		where = append(where, "LOWER(rt.origin) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Origin)+"%")
	}
	if q.Destination != "" {
		where = append(where, "LOWER(rt.destination) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.Date != "" {
		if q.Flexible {
			where = append(where, "s.departure_date BETWEEN DATE_SUB(?, INTERVAL 3 DAY) AND DATE_ADD(?, INTERVAL 3 DAY)")
			args = append(args, q.Date, q.Date)
		} else {
			where = append(where, "s.departure_date = ?")
			args = append(args, q.Date)
		}
	}
	if q.Passengers > 0 {
		where = append(where, "s.available_seats >= ?")
		args = append(args, q.Passengers)
	}

	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM schedules s
		JOIN routes rt ON rt.id = s.route_id
		JOIN buses b   ON b.id = s.bus_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			s.id,
			rt.origin,
			rt.destination,
			DATE_FORMAT(s.departure_date, '%Y-%m-%d') AS departure_date,
			TIME_FORMAT(s.departure_time, '%T')       AS departure_time,
			TIME_FORMAT(s.arrival_time,   '%T')       AS arrival_time,
			b.number AS bus_number,
			b.bus_type,
			s.price_cents,
			s.capacity,
			s.available_seats
		FROM schedules s
		JOIN routes rt ON rt.id = s.route_id
		JOIN buses b   ON b.id = s.bus_id
		WHERE ` + cond + `
		ORDER BY s.departure_date ASC, s.departure_time ASC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicScheduleRow, 0, limit)
	for rows.Next() {
		var d PublicScheduleRow
		if err := rows.Scan(
			&d.ID,
			&d.Origin,
			&d.Destination,
			&d.DepartureDate,
			&d.DepartureTime,
			&d.ArrivalTime,
			&d.BusNumber,
			&d.BusType,
			&d.PriceCents,
			&d.Capacity,
			&d.AvailableSeats,
		); err != nil {
			return nil, 0, err
		}
		d.Price = float64(d.PriceCents) / 100.0
		d.AvailabilityLevel = availabilityLevel(d.AvailableSeats, d.Capacity)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
