package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hostel represents a facility that owns bookable rooms.  Revenue
// collected for a hostel's rooms is disbursed to its owner after a
// platform service fee is deducted.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who owns the hostel and receives disbursements.
//  Name      – display name of the hostel.
//  IsActive  – whether the hostel accepts new bookings.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hostel struct {
	ID        uint64    // hostels.id
	OwnerID   uint64    // hostels.owner_id
	Name      string    // hostels.name
	IsActive  bool      // hostels.is_active
	CreatedAt time.Time // hostels.created_at
	UpdatedAt time.Time // hostels.updated_at
}

// Room is the bookable unit with finite capacity.  Occupancy and the
// reservation-pending counter are owned by the reservation engine and
// are only ever mutated through single conditional updates inside a
// transaction; the catalog fields (name, price) are read-only here.
//
// Fields:
//  ID                  – primary key identifier.
//  HostelID            – facility the room belongs to.
//  Name                – room label (e.g. "A-101").
//  PricePerCycle       – rent charged per billing cycle.
//  MaxCapacity         – maximum number of confirmed occupants.
//  CurrentOccupancy    – confirmed occupants right now.
//  PendingReservations – bookings holding a slot before payment confirms.
//  IsActive            – whether the room accepts new bookings.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Room struct {
	ID                  uint64          // rooms.id
	HostelID            uint64          // rooms.hostel_id
	Name                string          // rooms.name
	PricePerCycle       decimal.Decimal // rooms.price_per_cycle
	MaxCapacity         uint32          // rooms.max_capacity
	CurrentOccupancy    uint32          // rooms.current_occupancy
	PendingReservations uint32          // rooms.pending_reservations
	IsActive            bool            // rooms.is_active
	CreatedAt           time.Time       // rooms.created_at
	UpdatedAt           time.Time       // rooms.updated_at
}
