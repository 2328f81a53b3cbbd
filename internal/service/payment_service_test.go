package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/payment"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

// gatewayStub serves canned initiate and lookup responses.
func gatewayStub(t *testing.T, lookupStatus string, totalAmountMinor int64) *payment.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/epayment/initiate/":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pidx":        "px-test",
				"payment_url": "https://gateway.example/pay/px-test",
				"expires_in":  1800,
			})
		case "/epayment/lookup/":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":       lookupStatus,
				"total_amount": totalAmountMinor,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return payment.NewClient(srv.URL, "test-secret", 2*time.Second)
}

func newPaymentService(t *testing.T, gateway *payment.Client) (*PaymentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPaymentService(db,
		repository.NewFeeRepo(db),
		repository.NewBookingRepo(db),
		repository.NewRoomRepo(db),
		gateway, nil, "https://app.example/v1/payments/verify")
	return svc, mock
}

const (
	selectPendingBooking = `WHERE user_id = ? AND status = 'PENDING' FOR UPDATE`
	applyPaymentUpdate   = `SET amount_paid = ?, status = ?, external_status = ?, payment_channel = ?, paid_at = ?`
	setExternalRef       = `UPDATE fees SET external_ref = ?, external_status = 'INITIATED' WHERE id = ?`
	adjustPaidUpdate     = `UPDATE fees SET amount_paid = ?, status = ? WHERE id = ?`
	confirmOccupancy     = `SET current_occupancy = current_occupancy + 1`
)

func TestInitiateRejectsForeignFee(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 7, 2, 3, "5000.00", "0", model.FeePending, nil))

	_, err := svc.Initiate(context.Background(), 11, 8)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateRejectsSettledFee(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "5000.00", model.FeePaid, nil))

	_, err := svc.Initiate(context.Background(), 11, 1)
	assert.ErrorIs(t, err, ErrFeeSettled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitiateChargesOutstandingRemainder(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "2000.00", model.FeePartial, nil))
	mock.ExpectExec(regexp.QuoteMeta(setExternalRef)).
		WithArgs("px-test", uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := svc.Initiate(context.Background(), 11, 1)
	require.NoError(t, err)
	assert.Equal(t, "px-test", res.CorrelationID)
	assert.Equal(t, int64(300000), res.AmountMinor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRejectsIncompletePayment(t *testing.T) {
	svc, _ := newPaymentService(t, gatewayStub(t, "Pending", 0))
	_, err := svc.Verify(context.Background(), "px-test", 11)
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)
}

func TestVerifyRejectsMismatchedReference(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 500000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "0", model.FeePending, "px-other"))
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), "px-test", 11)
	assert.ErrorIs(t, err, ErrExternalRefMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPartialPayment(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 200000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "0", model.FeePending, "px-test"))
	mock.ExpectExec(regexp.QuoteMeta(applyPaymentUpdate)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Verify(context.Background(), "px-test", 11)
	require.NoError(t, err)
	assert.Equal(t, model.FeePartial, res.Fee.Status)
	assert.True(t, res.Fee.AmountPaid.Equal(decimal.RequireFromString("2000.00")))
	assert.Nil(t, res.Booking)
	assert.Nil(t, res.Fee.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyFullSettlementConfirmsBooking(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 500000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "0", model.FeePending, "px-test"))
	mock.ExpectExec(regexp.QuoteMeta(applyPaymentUpdate)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectPendingBooking)).
		WithArgs(uint64(1)).
		WillReturnRows(bookingRows(21, 1, 2, model.BookingPending))
	mock.ExpectExec(regexp.QuoteMeta(updateBookingStatus)).
		WithArgs(model.BookingConfirmed, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(confirmOccupancy)).
		WithArgs(uint64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Verify(context.Background(), "px-test", 11)
	require.NoError(t, err)
	assert.Equal(t, model.FeePaid, res.Fee.Status)
	require.NotNil(t, res.Fee.PaidAt)
	require.NotNil(t, res.Booking)
	assert.Equal(t, model.BookingConfirmed, res.Booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An overpaying lookup amount is clamped to the due amount; the ledger
// never records more than what was owed.
func TestVerifyClampsOverpayment(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 600000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "0", model.FeePending, "px-test"))
	mock.ExpectExec(regexp.QuoteMeta(applyPaymentUpdate)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectPendingBooking)).
		WithArgs(uint64(1)).WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	res, err := svc.Verify(context.Background(), "px-test", 11)
	require.NoError(t, err)
	assert.True(t, res.Fee.AmountPaid.Equal(decimal.RequireFromString("5000.00")))
	assert.Equal(t, model.FeePaid, res.Fee.Status)
	assert.Nil(t, res.Booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// settledRefFeeRows is feeRows with the gateway columns of an applied
// payment: external_status PAID on the given reference.
func settledRefFeeRows(id, userID, roomID, hostelID uint64, due, paid, status, extRef string) *sqlmock.Rows {
	now := time.Now().UTC()
	dueDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "user_id", "room_id", "hostel_id", "amount_due", "amount_paid",
		"status", "external_ref", "external_status", "payment_channel",
		"due_date", "paid_at", "created_at", "updated_at",
	}).AddRow(id, userID, roomID, hostelID, due, paid, status,
		extRef, model.ExternalPaid, model.ChannelGateway, dueDate, nil, now, now)
}

// Replaying verification of a settled fee commits without writes.
func TestVerifyReplayIsIdempotent(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 500000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "5000.00", model.FeePaid, "px-test"))
	mock.ExpectCommit()

	res, err := svc.Verify(context.Background(), "px-test", 11)
	require.NoError(t, err)
	assert.Equal(t, model.FeePaid, res.Fee.Status)
	assert.True(t, res.Fee.AmountPaid.Equal(decimal.RequireFromString("5000.00")))
	assert.Nil(t, res.Booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Replaying the reference that left the fee PARTIAL must not credit
// the same payment a second time.
func TestVerifyReplayOnPartialFeeIsIdempotent(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 200000))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(settledRefFeeRows(11, 1, 2, 3, "5000.00", "2000.00", model.FeePartial, "px-test"))
	mock.ExpectCommit()

	res, err := svc.Verify(context.Background(), "px-test", 11)
	require.NoError(t, err)
	assert.Equal(t, model.FeePartial, res.Fee.Status)
	assert.True(t, res.Fee.AmountPaid.Equal(decimal.RequireFromString("2000.00")))
	assert.Nil(t, res.Booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustFeeRejectsOutOfRange(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 0))

	_, err := svc.AdjustFee(context.Background(), 11, decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "0", model.FeePending, nil))
	mock.ExpectRollback()

	_, err = svc.AdjustFee(context.Background(), 11, decimal.RequireFromString("5000.01"))
	assert.ErrorIs(t, err, ErrInvalidAdjustment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustFeeRecomputesStatus(t *testing.T) {
	svc, mock := newPaymentService(t, gatewayStub(t, payment.StatusCompleted, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectFeeColumns)).
		WithArgs(uint64(11)).
		WillReturnRows(feeRows(11, 1, 2, 3, "5000.00", "5000.00", model.FeePaid, nil))
	mock.ExpectExec(regexp.QuoteMeta(adjustPaidUpdate)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fee, err := svc.AdjustFee(context.Background(), 11, decimal.RequireFromString("2500.00"))
	require.NoError(t, err)
	assert.Equal(t, model.FeePartial, fee.Status)
	assert.True(t, fee.AmountPaid.Equal(decimal.RequireFromString("2500.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
