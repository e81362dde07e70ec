package model

import "time"

// Bus describes one vehicle in the fleet as stored in the `buses`
// table.  Capacity is the physical seat count and is copied onto each
// schedule when the schedule is created, so retiring or refitting a
// bus never changes existing schedules.
//
// Fields:
//  ID        – primary key identifier.
//  Number    – unique fleet number shown to passengers.
//  BusType   – class of service (e.g. STANDARD, EXECUTIVE, SLEEPER).
//  Capacity  – number of seats on the vehicle.
//  Amenities – JSON-encoded list of amenities (wifi, ac, ...).
//  IsActive  – whether the bus may be scheduled.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Bus struct {
	ID        uint64    // buses.id
	Number    string    // buses.number
	BusType   string    // buses.bus_type
	Capacity  uint32    // buses.capacity
	Amenities string    // buses.amenities (JSON array)
	IsActive  bool      // buses.is_active
	CreatedAt time.Time // buses.created_at
	UpdatedAt time.Time // buses.updated_at
}
