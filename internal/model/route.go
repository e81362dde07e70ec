package model

import "time"

// Route is a fixed origin/destination pair with a base fare, mirroring
// the `routes` table.  PriceCents is the default per-seat fare for
// schedules on this route; a schedule captures its own copy at
// creation time so later fare changes never affect existing trips.
//
// Fields:
//  ID          – primary key identifier.
//  Origin      – departure city.
//  Destination – arrival city.
//  DistanceKM  – route length in kilometres.
//  DurationMin – scheduled travel time in minutes.
//  PriceCents  – base per-seat fare in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Route struct {
	ID          uint64    // routes.id
	Origin      string    // routes.origin
	Destination string    // routes.destination
	DistanceKM  uint32    // routes.distance_km
	DurationMin uint32    // routes.duration_min
	PriceCents  uint32    // routes.price_cents
	CreatedAt   time.Time // routes.created_at
	UpdatedAt   time.Time // routes.updated_at
}
