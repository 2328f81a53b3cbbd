package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// RoomRepo provides data access to the rooms table.  The occupancy and
// reservation-pending counters are never read-then-written: every
// mutation is a single conditional UPDATE so that two concurrent
// workflows racing for the last slot cannot both succeed.  All
// timestamp fields are assumed to be stored in UTC.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying database handle so callers can open
// transactions spanning multiple repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, hostel_id, name, price_per_cycle, max_capacity,
					 current_occupancy, pending_reservations, is_active,
					 created_at, updated_at`

func scanRoom(row *sql.Row) (*model.Room, error) {
	var rm model.Room
	err := row.Scan(
		&rm.ID, &rm.HostelID, &rm.Name, &rm.PricePerCycle, &rm.MaxCapacity,
		&rm.CurrentOccupancy, &rm.PendingReservations, &rm.IsActive,
		&rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// GetByID returns a single room or sql.ErrNoRows when it does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
}

// GetForUpdateTx loads a room inside the given transaction with a row
// lock.  Use this when a price or capacity read informs a subsequent
// write in the same transaction.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return scanRoom(tx.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id))
}

// ReserveSlotTx increments the reservation-pending counter only while a
// slot remains, i.e. while confirmed plus pending occupants are below
// capacity and the room is active.  It returns ErrConflict when the
// conditional update matches no row because the room is full or
// inactive, and sql.ErrNoRows when the room does not exist at all.
func (r *RoomRepo) ReserveSlotTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	const q = `UPDATE rooms
			   SET pending_reservations = pending_reservations + 1
			   WHERE id = ? AND is_active = 1
				 AND current_occupancy + pending_reservations < max_capacity`
	res, err := tx.ExecContext(ctx, q, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Distinguish a missing room from a full one.
	var exists uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ?`, roomID).Scan(&exists); err != nil {
		return err
	}
	return ErrConflict
}

// ReleaseSlotTx decrements the reservation-pending counter when a
// pending booking is cancelled or expires.  The GREATEST guard keeps
// the counter from going negative if a release is ever replayed.
func (r *RoomRepo) ReleaseSlotTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	const q = `UPDATE rooms
			   SET pending_reservations = GREATEST(pending_reservations - 1, 0)
			   WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, roomID)
	return err
}

// ConfirmOccupancyTx converts one pending reservation into a confirmed
// occupant: occupancy goes up by one and the pending counter comes
// down by one, in a single conditional write guarded by max_capacity.
// ErrConflict is returned when the room is already full, which should
// never happen for a slot legitimately held by a pending booking.
func (r *RoomRepo) ConfirmOccupancyTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	const q = `UPDATE rooms
			   SET current_occupancy = current_occupancy + 1,
				   pending_reservations = GREATEST(pending_reservations - 1, 0)
			   WHERE id = ? AND current_occupancy < max_capacity`
	res, err := tx.ExecContext(ctx, q, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrConflict
	}
	return nil
}

// ReleaseOccupancyTx decrements the confirmed occupancy when an
// occupant leaves.  The occupancy > 0 guard keeps the counter
// non-negative under replays.
func (r *RoomRepo) ReleaseOccupancyTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	const q = `UPDATE rooms
			   SET current_occupancy = current_occupancy - 1
			   WHERE id = ? AND current_occupancy > 0`
	_, err := tx.ExecContext(ctx, q, roomID)
	return err
}
