package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// IncomeRepo provides data access to the incomes table.  Income rows
// are immutable platform revenue records; there is at most one per
// disbursement, backed by a UNIQUE key on disbursement_id.
type IncomeRepo struct {
	db *sql.DB
}

// NewIncomeRepo returns a new IncomeRepo bound to the given database.
func NewIncomeRepo(db *sql.DB) *IncomeRepo { return &IncomeRepo{db: db} }

// ExistsForDisbursementTx reports whether an income record was already
// created for the disbursement.  Checked under the disbursement row
// lock before insert so duplicate approval calls never double-count.
func (r *IncomeRepo) ExistsForDisbursementTx(ctx context.Context, tx *sql.Tx, disbursementID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM incomes WHERE disbursement_id = ? LIMIT 1`, disbursementID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts an income record within the provided transaction
// and populates the generated ID.
func (r *IncomeRepo) CreateTx(ctx context.Context, tx *sql.Tx, in *model.Income) error {
	const q = `INSERT INTO incomes (amount, income_type, disbursement_id) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, in.Amount, in.IncomeType, in.DisbursementID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	return nil
}
