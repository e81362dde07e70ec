// Package repository contains data access logic for Route domain
// operations. This file defines the Route model and repository methods
// for routes. A Route is an origin/destination pair with its distance
// and base price; schedules reference a route and may override the
// price per departure.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Route represents a connection between two cities.
type Route struct {
	ID          uint64 // ID is the primary key of the route
	Origin      string // Origin is the departure city
	Destination string // Destination is the arrival city
	DistanceKM  uint32 // DistanceKM is the road distance in kilometres
	DurationMin uint32 // DurationMin is the expected travel time in minutes
	PriceCents  uint32 // PriceCents is the default fare in cents
	CreatedAt   string
	UpdatedAt   string
}

// ErrRouteNotFound indicates that a route was not located in the DB.
var ErrRouteNotFound = errors.New("route not found")

// ErrRouteExists indicates a route with the same origin and destination
// already exists.
var ErrRouteExists = errors.New("route already exists")

// RouteRepo manages persistence for routes.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

// Create inserts a new route and assigns the generated ID back to the
// struct.  Origin/destination pairs are unique; a duplicate insert
// returns ErrRouteExists.
func (r *RouteRepo) Create(ctx context.Context, rt *Route) error {
	const q = `INSERT INTO routes (origin, destination, distance_km, duration_min, price_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.Origin, rt.Destination, rt.DistanceKM, rt.DurationMin, rt.PriceCents)
	if err != nil {
		if isDup(err) {
			return ErrRouteExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	const sel = `SELECT id, origin, destination, distance_km, duration_min, price_cents, created_at, updated_at FROM routes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, rt.ID).Scan(
		&rt.ID, &rt.Origin, &rt.Destination, &rt.DistanceKM, &rt.DurationMin, &rt.PriceCents, &rt.CreatedAt, &rt.UpdatedAt,
	)
}

// GetByID retrieves a route by its ID.  It returns ErrRouteNotFound if
// there is no matching row.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (*Route, error) {
	const q = `SELECT id, origin, destination, distance_km, duration_min, price_cents, created_at, updated_at FROM routes WHERE id = ?`
	var rt Route
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rt.ID, &rt.Origin, &rt.Destination, &rt.DistanceKM, &rt.DurationMin, &rt.PriceCents, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// List returns all routes ordered by origin then destination. It is used
// by public browse endpoints to display the network to unauthenticated
// users.
func (r *RouteRepo) List(ctx context.Context) ([]Route, error) {
	const q = `SELECT id, origin, destination, distance_km, duration_min, price_cents, created_at, updated_at
               FROM routes
               ORDER BY origin ASC, destination ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Route
	for rows.Next() {
		var rt Route
		if err := rows.Scan(
			&rt.ID, &rt.Origin, &rt.Destination, &rt.DistanceKM, &rt.DurationMin, &rt.PriceCents, &rt.CreatedAt, &rt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies a route's attributes. It only performs the UPDATE when
// there is at least one differing field; otherwise it returns
// ErrNoChange. When the row doesn't exist, it returns sql.ErrNoRows.
func (r *RouteRepo) Update(ctx context.Context, rt *Route) error {
	const q = `UPDATE routes
               SET origin = ?, destination = ?, distance_km = ?, duration_min = ?, price_cents = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND (origin <> ? OR destination <> ? OR distance_km <> ? OR duration_min <> ? OR price_cents <> ?)`

	res, err := r.db.ExecContext(ctx, q,
		rt.Origin, rt.Destination, rt.DistanceKM, rt.DurationMin, rt.PriceCents, // SET
		rt.ID,
		rt.Origin, rt.Destination, rt.DistanceKM, rt.DurationMin, rt.PriceCents, // only if at least one field differs
	)
	if err != nil {
		if isDup(err) {
			return ErrRouteExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Determine if it's "not found" or simply "no change".
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM routes WHERE id = ? LIMIT 1`, rt.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a route that no schedule references. If schedules still
// reference the route, ErrConflict is returned; if the route does not
// exist, ErrRouteNotFound is returned.
func (r *RouteRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE route_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRouteNotFound
	}
	return nil
}
