package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

func newBillingService(t *testing.T, dueDay int) (*BillingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewBillingService(db,
		repository.NewUserRepo(db),
		repository.NewRoomRepo(db),
		repository.NewFeeRepo(db),
		dueDay)
	return svc, mock
}

const (
	selectOccupants = `SELECT u.id, u.room_id`
	selectLatestFee = `WHERE user_id = ? AND due_date < ?`
	selectFeeByDue  = `WHERE user_id = ? AND due_date = ? FOR UPDATE`
	updateAmountDue = `UPDATE fees SET amount_due = ?, status = ? WHERE id = ?`
)

// decimalArg matches a decimal exec argument by numeric value, so the
// driver's exponent formatting does not matter.
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(d)))
}

func TestDueDateFor(t *testing.T) {
	svc, _ := newBillingService(t, 10)
	now := time.Date(2026, 8, 30, 14, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), svc.DueDateFor(now))
}

func TestDueDayOutOfRangeFallsBack(t *testing.T) {
	svc, _ := newBillingService(t, 31)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), svc.DueDateFor(now))
}

func TestCarryForward(t *testing.T) {
	assert.True(t, CarryForward(nil).IsZero())

	paid := &model.Fee{
		AmountDue:  decimal.RequireFromString("5000.00"),
		AmountPaid: decimal.RequireFromString("5000.00"),
		Status:     model.FeePaid,
	}
	assert.True(t, CarryForward(paid).IsZero())

	partial := &model.Fee{
		AmountDue:  decimal.RequireFromString("5000.00"),
		AmountPaid: decimal.RequireFromString("2000.00"),
		Status:     model.FeePartial,
	}
	assert.True(t, CarryForward(partial).Equal(decimal.RequireFromString("3000.00")))
}

func TestRunCycleCreatesFeeWithCarriedDebt(t *testing.T) {
	svc, mock := newBillingService(t, 10)
	now := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC)
	dueDate := "2026-09-10"

	mock.ExpectQuery(regexp.QuoteMeta(selectOccupants)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id"}).AddRow(1, 2))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectRoomColumns)).
		WithArgs(uint64(2)).WillReturnRows(roomRows(2, 3, "5000.00", 4, 2, 0))
	// Prior cycle left 3000.00 unpaid; the new fee carries it forward.
	mock.ExpectQuery(regexp.QuoteMeta(selectLatestFee)).
		WithArgs(uint64(1), dueDate).
		WillReturnRows(feeRows(10, 1, 2, 3, "5000.00", "2000.00", model.FeePartial, nil))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeByDue)).
		WithArgs(uint64(1), dueDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO fees`)).
		WithArgs(uint64(1), uint64(2), uint64(3), sqlmock.AnyArg(), sqlmock.AnyArg(), model.FeePending, dueDate).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(12)).
		WillReturnRows(feeRows(12, 1, 2, 3, "8000.00", "0", model.FeePending, nil))
	mock.ExpectCommit()

	res, err := svc.RunCycle(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Billed)
	assert.Equal(t, 0, res.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Re-running a cycle updates the existing fee in place instead of
// charging the occupant twice.
func TestRunCycleIsIdempotentPerCycle(t *testing.T) {
	svc, mock := newBillingService(t, 10)
	now := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC)
	dueDate := "2026-09-10"

	mock.ExpectQuery(regexp.QuoteMeta(selectOccupants)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id"}).AddRow(1, 2))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectRoomColumns)).
		WithArgs(uint64(2)).WillReturnRows(roomRows(2, 3, "5000.00", 4, 2, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectLatestFee)).
		WithArgs(uint64(1), dueDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeByDue)).
		WithArgs(uint64(1), dueDate).
		WillReturnRows(feeRows(12, 1, 2, 3, "5000.00", "0", model.FeePending, nil))
	mock.ExpectExec(regexp.QuoteMeta(updateAmountDue)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.RunCycle(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Billed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A prior fee settled between two runs of the same cycle shrinks the
// carried debt, but the rewritten due amount must never fall below
// what was already collected on the existing fee.
func TestRunCycleReRunNeverLowersDueBelowPaid(t *testing.T) {
	svc, mock := newBillingService(t, 10)
	now := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC)
	dueDate := "2026-09-10"

	mock.ExpectQuery(regexp.QuoteMeta(selectOccupants)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id"}).AddRow(1, 2))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectRoomColumns)).
		WithArgs(uint64(2)).WillReturnRows(roomRows(2, 3, "5000.00", 4, 2, 0))
	// The 500.00 debt carried into the first run was settled since, so
	// the recomputed due would be 5000.00 against 5500.00 collected.
	mock.ExpectQuery(regexp.QuoteMeta(selectLatestFee)).
		WithArgs(uint64(1), dueDate).
		WillReturnRows(feeRows(10, 1, 2, 3, "500.00", "500.00", model.FeePaid, nil))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeByDue)).
		WithArgs(uint64(1), dueDate).
		WillReturnRows(feeRows(12, 1, 2, 3, "5500.00", "5500.00", model.FeePaid, nil))
	mock.ExpectExec(regexp.QuoteMeta(updateAmountDue)).
		WithArgs(decimalArg("5500.00"), model.FeePaid, uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.RunCycle(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Billed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// One occupant's failing transaction is counted and skipped; the sweep
// still bills everyone else.
func TestRunCycleIsolatesFailures(t *testing.T) {
	svc, mock := newBillingService(t, 10)
	now := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC)
	dueDate := "2026-09-10"

	mock.ExpectQuery(regexp.QuoteMeta(selectOccupants)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id"}).
			AddRow(1, 2).
			AddRow(4, 5))
	// First occupant: room lookup fails.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectRoomColumns)).
		WithArgs(uint64(2)).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()
	// Second occupant bills normally.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectRoomColumns)).
		WithArgs(uint64(5)).WillReturnRows(roomRows(5, 3, "4000.00", 2, 1, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectLatestFee)).
		WithArgs(uint64(4), dueDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeByDue)).
		WithArgs(uint64(4), dueDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO fees`)).
		WillReturnResult(sqlmock.NewResult(13, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(13)).
		WillReturnRows(feeRows(13, 4, 5, 3, "4000.00", "0", model.FeePending, nil))
	mock.ExpectCommit()

	res, err := svc.RunCycle(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Billed)
	assert.Equal(t, 1, res.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
