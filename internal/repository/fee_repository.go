package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// FeeRepo provides data access to the fees table.  Fees are created by
// the reservation workflow and the recurring billing sweep, settled by
// the payment reconciliation path, and deleted only as part of booking
// cancellation cleanup.  Amount columns are DECIMAL and scanned into
// shopspring decimals so no floating point ever touches the ledger.
type FeeRepo struct {
	db *sql.DB
}

// NewFeeRepo returns a new FeeRepo bound to the given database.
func NewFeeRepo(db *sql.DB) *FeeRepo { return &FeeRepo{db: db} }

const feeColumns = `id, user_id, room_id, hostel_id, amount_due, amount_paid,
					status, external_ref, external_status, payment_channel,
					due_date, paid_at, created_at, updated_at`

// rowScanner lets the scan helper accept both *sql.Row results and
// rows from an iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFee(row rowScanner) (*model.Fee, error) {
	var f model.Fee
	var extRef, extStatus, channel sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(
		&f.ID, &f.UserID, &f.RoomID, &f.HostelID, &f.AmountDue, &f.AmountPaid,
		&f.Status, &extRef, &extStatus, &channel,
		&f.DueDate, &paidAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if extRef.Valid {
		v := extRef.String
		f.ExternalRef = &v
	}
	if extStatus.Valid {
		v := extStatus.String
		f.ExternalStatus = &v
	}
	if channel.Valid {
		v := channel.String
		f.PaymentChannel = &v
	}
	if paidAt.Valid {
		t := paidAt.Time
		f.PaidAt = &t
	}
	return &f, nil
}

// CreateTx inserts a new fee within the provided transaction and
// populates the generated ID and timestamps on the record.
func (r *FeeRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Fee) error {
	const q = `INSERT INTO fees (user_id, room_id, hostel_id, amount_due, amount_paid, status, due_date)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		f.UserID, f.RoomID, f.HostelID, f.AmountDue, f.AmountPaid, f.Status,
		f.DueDate.UTC().Format("2006-01-02"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	loaded, err := scanFee(tx.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE id = ?`, f.ID))
	if err != nil {
		return err
	}
	*f = *loaded
	return nil
}

// GetByID returns a fee or sql.ErrNoRows when it does not exist.
func (r *FeeRepo) GetByID(ctx context.Context, id uint64) (*model.Fee, error) {
	return scanFee(r.db.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE id = ?`, id))
}

// GetForUpdateTx loads a fee with a row lock.  Every settlement
// decision (apply payment, recompute status) reads through this so
// concurrent verifications of the same fee serialize.
func (r *FeeRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Fee, error) {
	return scanFee(tx.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE id = ? FOR UPDATE`, id))
}

// HasOutstandingTx reports whether the user has any fee still in
// PENDING or PARTIAL status.  A user with an outstanding fee cannot
// start a new reservation.
func (r *FeeRepo) HasOutstandingTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM fees WHERE user_id = ? AND status IN ('PENDING','PARTIAL') LIMIT 1`,
		userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OutstandingByUserTx returns the user's fee still in PENDING or
// PARTIAL status with a row lock, or sql.ErrNoRows when the user owes
// nothing.  The reservation workflow keeps this unique per user, so a
// single row lookup suffices.
func (r *FeeRepo) OutstandingByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Fee, error) {
	return scanFee(tx.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees
		 WHERE user_id = ? AND status IN ('PENDING','PARTIAL')
		 ORDER BY due_date DESC LIMIT 1 FOR UPDATE`, userID))
}

// SetExternalRef stamps the gateway correlation id and marks the
// external status INITIATED.  It runs as a single statement outside
// any long-lived transaction because it follows an outbound network
// call that must not hold locks.
func (r *FeeRepo) SetExternalRef(ctx context.Context, feeID uint64, ref string) error {
	const q = `UPDATE fees SET external_ref = ?, external_status = 'INITIATED' WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, ref, feeID)
	return err
}

// ApplyPaymentTx writes the settlement columns computed by the
// reconciliation path: the new paid amount, derived status, external
// status, audit channel and the paid-at stamp once fully settled.
func (r *FeeRepo) ApplyPaymentTx(ctx context.Context, tx *sql.Tx, feeID uint64, paid decimal.Decimal, status, externalStatus, channel string, paidAt *time.Time) error {
	const q = `UPDATE fees
			   SET amount_paid = ?, status = ?, external_status = ?, payment_channel = ?, paid_at = ?
			   WHERE id = ?`
	var ts any
	if paidAt != nil {
		ts = paidAt.UTC().Format("2006-01-02 15:04:05")
	}
	_, err := tx.ExecContext(ctx, q, paid, status, externalStatus, channel, ts, feeID)
	return err
}

// AdjustPaidTx applies a corrective admin edit of the paid amount and
// the recomputed status.  This is the only path on which amount_paid
// may decrease.
func (r *FeeRepo) AdjustPaidTx(ctx context.Context, tx *sql.Tx, feeID uint64, paid decimal.Decimal, status string) error {
	const q = `UPDATE fees SET amount_paid = ?, status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, paid, status, feeID)
	return err
}

// DeleteTx removes a fee as part of booking cancellation cleanup.
func (r *FeeRepo) DeleteTx(ctx context.Context, tx *sql.Tx, feeID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM fees WHERE id = ?`, feeID)
	return err
}

// FindByUserAndDueDateTx returns the fee charged to a user for a
// specific due date, locking the row.  The billing sweep keys its
// idempotency on this lookup: an existing row is updated in place
// rather than duplicated.  Returns sql.ErrNoRows when absent.
func (r *FeeRepo) FindByUserAndDueDateTx(ctx context.Context, tx *sql.Tx, userID uint64, dueDate time.Time) (*model.Fee, error) {
	return scanFee(tx.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE user_id = ? AND due_date = ? FOR UPDATE`,
		userID, dueDate.UTC().Format("2006-01-02")))
}

// LatestBeforeTx returns the user's most recent fee due strictly
// before the given date, or sql.ErrNoRows when the user has none.  The
// sweep carries its outstanding balance forward as debt.
func (r *FeeRepo) LatestBeforeTx(ctx context.Context, tx *sql.Tx, userID uint64, before time.Time) (*model.Fee, error) {
	return scanFee(tx.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM fees
		 WHERE user_id = ? AND due_date < ?
		 ORDER BY due_date DESC LIMIT 1 FOR UPDATE`,
		userID, before.UTC().Format("2006-01-02")))
}

// UpdateAmountDueTx rewrites the due amount and derived status of an
// existing fee.  Used by the sweep when re-running a cycle.
func (r *FeeRepo) UpdateAmountDueTx(ctx context.Context, tx *sql.Tx, feeID uint64, due decimal.Decimal, status string) error {
	const q = `UPDATE fees SET amount_due = ?, status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, due, status, feeID)
	return err
}

// ListPaidUnsettledTx returns the hostel's fees that are fully PAID,
// settled through the payment gateway, and not yet covered by any
// PENDING or COMPLETED disbursement.  Eligibility is a set difference
// computed here rather than a boolean flag on the fee, so fees covered
// by a REJECTED disbursement become eligible again automatically.
// Ordering by fee id keeps payout contents deterministic.
func (r *FeeRepo) ListPaidUnsettledTx(ctx context.Context, tx *sql.Tx, hostelID uint64) ([]model.Fee, error) {
	const q = `SELECT ` + feeColumns + ` FROM fees
			   WHERE hostel_id = ? AND status = 'PAID' AND payment_channel = 'GATEWAY'
				 AND id NOT IN (
					 SELECT df.fee_id
					 FROM disbursement_fees df
					 JOIN disbursements d ON d.id = df.disbursement_id
					 WHERE d.hostel_id = ? AND d.status <> 'REJECTED'
				 )
			   ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, hostelID, hostelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fees := make([]model.Fee, 0)
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fees, nil
}
