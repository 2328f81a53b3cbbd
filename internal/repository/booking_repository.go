package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  A booking links
// one user to one room for a number of billing cycles.  All writes
// happen inside a caller-supplied transaction because a booking never
// changes alone: the room counters, the fee and the user assignment
// move with it.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, room_id, duration_cycles, move_in_date,
						end_date, total_amount, status, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.Duration, &b.MoveInDate,
		&b.EndDate, &b.TotalAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  The caller must commit or roll back the
// transaction.  Status should be a valid enumeration value.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, room_id, duration_cycles, move_in_date, end_date, total_amount, status)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.RoomID, b.Duration,
		b.MoveInDate.UTC().Format("2006-01-02"), b.EndDate.UTC().Format("2006-01-02"),
		b.TotalAmount, b.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	loaded, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, b.ID))
	if err != nil {
		return err
	}
	*b = *loaded
	return nil
}

// GetByID returns a booking or sql.ErrNoRows when it does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// GetForUpdateTx loads a booking with a row lock so that a status
// transition decision cannot race with another transition on the same
// booking.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
}

// PendingByUserTx returns the user's PENDING booking with a row lock,
// or sql.ErrNoRows when none exists.  At most one can exist at a time;
// the reservation workflow enforces that before insert.
func (r *BookingRepo) PendingByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND status = 'PENDING' FOR UPDATE`, userID))
}

// HasPendingTx reports whether the user already has a PENDING booking.
func (r *BookingRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
	return r.hasStatusTx(ctx, tx, userID, model.BookingPending)
}

// HasConfirmedTx reports whether the user holds a CONFIRMED booking.
func (r *BookingRepo) HasConfirmedTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
	return r.hasStatusTx(ctx, tx, userID, model.BookingConfirmed)
}

func (r *BookingRepo) hasStatusTx(ctx context.Context, tx *sql.Tx, userID uint64, status string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM bookings WHERE user_id = ? AND status = ? LIMIT 1`,
		userID, status,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateStatusTx moves a booking to the given status.  Callers are
// responsible for having validated the transition under a row lock.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}
