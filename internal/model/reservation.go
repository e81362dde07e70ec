package model

import "time"

// Reservation status values.  A reservation is created directly into
// CONFIRMED once capacity is secured; PENDING is reserved for
// payment-deferred flows and is never produced by the booking engine.
// CANCELLED is terminal.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation records a user's booking of one or more seats on a
// schedule, mirroring the `reservations` table.  TotalPriceCents is
// captured at booking time (schedule fare × passengers) and never
// recomputed.  Code is the unique human-shareable reservation code
// printed on tickets.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the reservation.
//  ScheduleID      – schedule being reserved.
//  Passengers      – number of seats booked (≥1).
//  TotalPriceCents – total price in cents, immutable once set.
//  Status          – CONFIRMED or CANCELLED (PENDING unused by the engine).
//  Code            – unique reservation code (e.g. "BR7K2M9QD4").
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64    // reservations.id
	UserID          uint64    // reservations.user_id
	ScheduleID      uint64    // reservations.schedule_id
	Passengers      uint32    // reservations.passengers
	TotalPriceCents uint32    // reservations.total_price_cents
	Status          string    // reservations.status
	Code            string    // reservations.reservation_code
	CreatedAt       time.Time // reservations.created_at
	UpdatedAt       time.Time // reservations.updated_at
}

// ReservationSeat links a reservation to one assigned seat number on
// its schedule.  Seat numbers run 1..capacity; a seat is occupied
// while any non-cancelled reservation holds it.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reference to the reservation.
//  ScheduleID    – schedule the seat belongs to.
//  SeatNumber    – assigned seat, 1-based.
//  CreatedAt     – creation timestamp.
type ReservationSeat struct {
	ID            uint64    // reservation_seats.id
	ReservationID uint64    // reservation_seats.reservation_id
	ScheduleID    uint64    // reservation_seats.schedule_id
	SeatNumber    uint32    // reservation_seats.seat_number
	CreatedAt     time.Time // reservation_seats.created_at
}
