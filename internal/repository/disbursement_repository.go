package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// DisbursementRepo provides data access to the disbursements table and
// the disbursement_fees join rows that record which settled fees each
// payout covers.
type DisbursementRepo struct {
	db *sql.DB
}

// NewDisbursementRepo returns a new DisbursementRepo bound to the
// given database.
func NewDisbursementRepo(db *sql.DB) *DisbursementRepo { return &DisbursementRepo{db: db} }

// CreateTx inserts a disbursement and its covered fee ids within the
// provided transaction.  The join rows are written in one bulk insert.
// The generated ID and timestamps are populated on the record.
func (r *DisbursementRepo) CreateTx(ctx context.Context, tx *sql.Tx, d *model.Disbursement) error {
	const q = `INSERT INTO disbursements (hostel_id, owner_id, total_collected, service_fee, net_amount, status, requested_by)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		d.HostelID, d.OwnerID, d.TotalCollected, d.ServiceFee, d.NetAmount,
		d.Status, d.RequestedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	if len(d.FeeIDs) > 0 {
		query := `INSERT INTO disbursement_fees (disbursement_id, fee_id) VALUES `
		args := make([]interface{}, 0, len(d.FeeIDs)*2)
		for i, feeID := range d.FeeIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, d.ID, feeID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	const sel = `SELECT created_at, updated_at FROM disbursements WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, d.ID).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// HasPendingAdminTx reports whether an ADMIN-requested disbursement is
// already PENDING for the hostel.  At most one outstanding admin
// request is allowed at a time.
func (r *DisbursementRepo) HasPendingAdminTx(ctx context.Context, tx *sql.Tx, hostelID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM disbursements WHERE hostel_id = ? AND status = 'PENDING' AND requested_by = 'ADMIN' LIMIT 1`,
		hostelID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetForUpdateTx loads a disbursement with a row lock, including the
// covered fee ids, so settlement decisions serialize per record.
func (r *DisbursementRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Disbursement, error) {
	const q = `SELECT id, hostel_id, owner_id, total_collected, service_fee, net_amount,
					  status, requested_by, reject_reason, created_at, updated_at
			   FROM disbursements WHERE id = ? FOR UPDATE`
	var d model.Disbursement
	var reason sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.HostelID, &d.OwnerID, &d.TotalCollected, &d.ServiceFee, &d.NetAmount,
		&d.Status, &d.RequestedBy, &reason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		v := reason.String
		d.RejectReason = &v
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT fee_id FROM disbursement_fees WHERE disbursement_id = ? ORDER BY fee_id`, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var feeID uint64
		if err := rows.Scan(&feeID); err != nil {
			return nil, err
		}
		d.FeeIDs = append(d.FeeIDs, feeID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// SettleTx stamps the final status of a disbursement.  reason must be
// non-nil for rejections and nil for completions; the service layer
// enforces that before calling.
func (r *DisbursementRepo) SettleTx(ctx context.Context, tx *sql.Tx, id uint64, status string, reason *string) error {
	const q = `UPDATE disbursements SET status = ?, reject_reason = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, reason, id)
	return err
}
