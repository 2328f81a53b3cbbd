package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// UserRepo provides access to the engine-owned columns of the users
// table: the room assignment written by the reservation workflow and
// cleared on cancellation or leave.  Identity columns are maintained
// by the identity service and only ever read here.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Occupant pairs a user with the room they currently occupy.  The
// recurring billing sweep iterates over these.
type Occupant struct {
	UserID uint64
	RoomID uint64
}

// GetForUpdateTx loads a user with a row lock inside the given
// transaction.  The reservation workflow locks the user row first so
// that the has-room / has-pending-booking / has-outstanding-fee checks
// for one user are serialized against concurrent reservations by the
// same user.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	const q = `SELECT id, email, role, room_id, move_in_date, end_date,
					  is_active, created_at, updated_at
			   FROM users WHERE id = ? FOR UPDATE`
	var u model.User
	var roomID sql.NullInt64
	var moveIn, end sql.NullTime
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Role, &roomID, &moveIn, &end,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		v := uint64(roomID.Int64)
		u.RoomID = &v
	}
	if moveIn.Valid {
		t := moveIn.Time
		u.MoveInDate = &t
	}
	if end.Valid {
		t := end.Time
		u.EndDate = &t
	}
	return &u, nil
}

// AssignRoomTx writes the room assignment onto the user record as part
// of the reservation workflow's atomic unit.
func (r *UserRepo) AssignRoomTx(ctx context.Context, tx *sql.Tx, userID, roomID uint64, moveIn, end string) error {
	const q = `UPDATE users SET room_id = ?, move_in_date = ?, end_date = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, roomID, moveIn, end, userID)
	return err
}

// ClearAssignmentTx removes the room assignment when a booking is
// cancelled or an occupant leaves.
func (r *UserRepo) ClearAssignmentTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	const q = `UPDATE users SET room_id = NULL, move_in_date = NULL, end_date = NULL WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, userID)
	return err
}

// ListOccupants returns every user currently assigned to a room whose
// booking is CONFIRMED.  The billing sweep charges each of them once
// per cycle.  Ordering by user id keeps sweep logs deterministic.
func (r *UserRepo) ListOccupants(ctx context.Context) ([]Occupant, error) {
	const q = `SELECT u.id, u.room_id
			   FROM users u
			   JOIN bookings b ON b.user_id = u.id AND b.status = 'CONFIRMED'
			   WHERE u.room_id IS NOT NULL AND u.is_active = 1
			   ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupants := make([]Occupant, 0)
	for rows.Next() {
		var o Occupant
		if err := rows.Scan(&o.UserID, &o.RoomID); err != nil {
			return nil, err
		}
		occupants = append(occupants, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupants, nil
}
