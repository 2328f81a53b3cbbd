package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking status values.  A booking is created PENDING and either
// becomes CONFIRMED when its fee is settled in full, CANCELLED while
// still PENDING, or EXPIRED when an unpaid booking is swept.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingExpired   = "EXPIRED"
)

// Booking links a user to a room for a number of billing cycles.  At
// most one non-terminal booking exists per user; a CONFIRMED booking
// implies the room's occupancy was incremented exactly once for it.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who made the booking.
//  RoomID      – room being booked.
//  Duration    – stay length in billing cycles (>= 1).
//  MoveInDate  – first day of occupancy.
//  EndDate     – computed move-out date (MoveInDate + Duration cycles).
//  TotalAmount – price of the first cycle, owed up-front.
//  Status      – PENDING, CONFIRMED, CANCELLED or EXPIRED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64          // bookings.id
	UserID      uint64          // bookings.user_id
	RoomID      uint64          // bookings.room_id
	Duration    uint32          // bookings.duration_cycles
	MoveInDate  time.Time       // bookings.move_in_date
	EndDate     time.Time       // bookings.end_date
	TotalAmount decimal.Decimal // bookings.total_amount
	Status      string          // bookings.status
	CreatedAt   time.Time       // bookings.created_at
	UpdatedAt   time.Time       // bookings.updated_at
}
