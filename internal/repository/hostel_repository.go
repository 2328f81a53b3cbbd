package repository

import (
	"context"
	"database/sql"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
)

// HostelRepo provides read access to the hostels table.  The engine
// never mutates hostel rows; it locks them to serialize per-facility
// disbursement creation.
type HostelRepo struct {
	db *sql.DB
}

// NewHostelRepo returns a new HostelRepo bound to the given database.
func NewHostelRepo(db *sql.DB) *HostelRepo { return &HostelRepo{db: db} }

// GetByID returns a hostel or sql.ErrNoRows when it does not exist.
func (r *HostelRepo) GetByID(ctx context.Context, id uint64) (*model.Hostel, error) {
	const q = `SELECT id, owner_id, name, is_active, created_at, updated_at
			   FROM hostels WHERE id = ?`
	var h model.Hostel
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetForUpdateTx loads a hostel with a row lock inside the given
// transaction.  Disbursement creation locks the hostel row first so
// two concurrent payout requests for the same facility compute their
// eligible fee sets one after the other, never overlapping.
func (r *HostelRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Hostel, error) {
	const q = `SELECT id, owner_id, name, is_active, created_at, updated_at
			   FROM hostels WHERE id = ? FOR UPDATE`
	var h model.Hostel
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
