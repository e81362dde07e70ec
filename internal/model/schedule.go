package model

import "time"

// Schedule is one bus departing on one route at one date and time, as
// stored in the `schedules` table.  AvailableSeats is the only hot
// mutable counter in the system: it is decremented by confirmed
// reservations and restored by cancellations, always inside the same
// transaction that writes the reservation row, and always satisfies
// 0 <= AvailableSeats <= Capacity.
//
// Fields:
//  ID             – primary key identifier.
//  BusID          – bus operating the trip.
//  RouteID        – route being driven.
//  DepartureDate  – calendar date of departure.
//  DepartureTime  – wall-clock departure time ("HH:MM:SS").
//  ArrivalTime    – wall-clock arrival time ("HH:MM:SS").
//  PriceCents     – per-seat fare captured from the route at creation.
//  Capacity       – seat count captured from the bus at creation.
//  AvailableSeats – seats still open for sale.
//  Status         – state of the schedule (SCHEDULED, CANCELLED, FINISHED).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Schedule struct {
	ID             uint64    // schedules.id
	BusID          uint64    // schedules.bus_id
	RouteID        uint64    // schedules.route_id
	DepartureDate  string    // schedules.departure_date ("YYYY-MM-DD")
	DepartureTime  string    // schedules.departure_time ("HH:MM:SS")
	ArrivalTime    string    // schedules.arrival_time   ("HH:MM:SS")
	PriceCents     uint32    // schedules.price_cents
	Capacity       uint32    // schedules.capacity
	AvailableSeats uint32    // schedules.available_seats
	Status         string    // schedules.status
	CreatedAt      time.Time // schedules.created_at
	UpdatedAt      time.Time // schedules.updated_at
}
