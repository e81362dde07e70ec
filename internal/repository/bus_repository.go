package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"strings"      // strings helps classify driver errors
)

// Bus mirrors the 'buses' table.  Amenities is stored as a JSON array in
// a TEXT column; handlers decode it for responses.
type Bus struct {
	ID        uint64
	Number    string
	BusType   string
	Capacity  uint32
	Amenities string
	IsActive  bool
	CreatedAt string
	UpdatedAt string
}

// ErrBusNotFound is returned when a bus lookup fails.
var ErrBusNotFound = errors.New("bus not found")

// ErrBusNumberExists is returned when inserting a duplicate fleet number.
var ErrBusNumberExists = errors.New("bus number already exists")

// BusRepo provides methods to create and retrieve buses.
type BusRepo struct {
	db *sql.DB
}

// NewBusRepo constructs a BusRepo with the given DB handle.
func NewBusRepo(db *sql.DB) *BusRepo {
	return &BusRepo{db: db}
}

// Create inserts a new bus.  Number, BusType and Capacity must be set;
// Amenities may be an empty JSON array.  After insert the row is read
// back so defaults (is_active, timestamps) are populated on the struct.
func (r *BusRepo) Create(ctx context.Context, b *Bus) error {
	const qInsert = `INSERT INTO buses (number, bus_type, capacity, amenities) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, b.Number, b.BusType, b.Capacity, b.Amenities)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrBusNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const qSelect = `SELECT id, number, bus_type, capacity, amenities, is_active, created_at, updated_at
					 FROM buses WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, b.ID).
		Scan(&b.ID, &b.Number, &b.BusType, &b.Capacity, &b.Amenities, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID retrieves a bus by its ID.  Returns ErrBusNotFound when no row
// is found.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (*Bus, error) {
	const q = `SELECT id, number, bus_type, capacity, amenities, is_active, created_at, updated_at FROM buses WHERE id = ?`
	var b Bus
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Number, &b.BusType, &b.Capacity, &b.Amenities, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all buses ordered by fleet number.  Used by the public
// fleet listing and the admin panel.
func (r *BusRepo) List(ctx context.Context) ([]*Bus, error) {
	const q = `SELECT id, number, bus_type, capacity, amenities, is_active, created_at, updated_at
			   FROM buses ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bus
	for rows.Next() {
		b := new(Bus)
		if err := rows.Scan(&b.ID, &b.Number, &b.BusType, &b.Capacity, &b.Amenities, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies mutable bus fields (number, type, capacity, amenities,
// is_active).  Returns sql.ErrNoRows when the bus does not exist.
func (r *BusRepo) Update(ctx context.Context, b *Bus) error {
	const q = `UPDATE buses
			   SET number = ?, bus_type = ?, capacity = ?, amenities = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.Number, b.BusType, b.Capacity, b.Amenities, b.IsActive, b.ID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrBusNumberExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a bus that has no schedules referencing it.  Returns
// ErrConflict when schedules still reference the bus and
// ErrBusNotFound when the bus does not exist.
func (r *BusRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedules WHERE bus_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM buses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBusNotFound
	}
	return nil
}
