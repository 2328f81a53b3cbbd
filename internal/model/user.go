package model

import "time"

// Role names carried in the JWT "role" claim.  Token issuance lives in
// the identity service; this engine only gates routes on these values.
const (
	RoleStudent = "STUDENT"
	RoleOwner   = "OWNER"
	RoleAdmin   = "ADMIN"
)

// User represents an application user as stored in the `users` table.
// Identity columns (email, role) are written by the identity service
// and read-only here; the engine owns only the occupancy assignment
// columns (RoomID, MoveInDate, EndDate), which are set when a booking
// is created and cleared on cancellation or leave.
//
// Fields:
//  ID         – primary key identifier of the user.
//  Email      – unique email address (read-only here).
//  Role       – role name (STUDENT, OWNER or ADMIN).
//  RoomID     – room currently assigned, nil when unassigned.
//  MoveInDate – start of the current stay (nullable).
//  EndDate    – end of the current stay (nullable).
//  IsActive   – whether the account is active.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type User struct {
	ID         uint64     // users.id
	Email      string     // users.email
	Role       string     // users.role
	RoomID     *uint64    // users.room_id (nullable)
	MoveInDate *time.Time // users.move_in_date (nullable)
	EndDate    *time.Time // users.end_date (nullable)
	IsActive   bool       // users.is_active
	CreatedAt  time.Time  // users.created_at
	UpdatedAt  time.Time  // users.updated_at
}
