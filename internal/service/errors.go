// Package service implements the reservation and fee-settlement
// transaction engine: the reservation workflow, payment
// reconciliation, the recurring billing sweep and the disbursement
// ledger.  Every multi-record mutation runs inside one database
// transaction; the sentinel errors below name the specific invariant a
// rejected operation violated so handlers can answer with a precise
// conflict reason instead of a generic failure.
package service

import "errors"

// Reservation workflow conflicts.
var (
	// ErrAlreadyAssigned means the user already has a room on their record.
	ErrAlreadyAssigned = errors.New("user already has a room assigned")
	// ErrPendingBookingExists means the user already holds a PENDING booking.
	ErrPendingBookingExists = errors.New("user already has a pending booking")
	// ErrOutstandingFee means the user has a fee in PENDING or PARTIAL status.
	ErrOutstandingFee = errors.New("outstanding fee exists for user")
	// ErrRoomUnavailable means the room is inactive or already at capacity.
	ErrRoomUnavailable = errors.New("room is unavailable or already at capacity")
	// ErrBookingNotPending means a transition was attempted on a booking
	// that is no longer PENDING.
	ErrBookingNotPending = errors.New("booking is not in pending status")
	// ErrConfirmedBookingExists blocks cancelling a booking for a user who
	// is already settled into a room under a confirmed booking.
	ErrConfirmedBookingExists = errors.New("user already holds a confirmed booking")
)

// Payment reconciliation conflicts.
var (
	// ErrFeeSettled means the fee is already fully paid; there is nothing
	// left to initiate a payment for.
	ErrFeeSettled = errors.New("fee is already settled")
	// ErrPaymentNotCompleted means the gateway lookup did not report the
	// payment as completed; no local state was changed.
	ErrPaymentNotCompleted = errors.New("payment not completed at gateway")
	// ErrExternalRefMismatch means the supplied correlation id does not
	// belong to the fee being verified.
	ErrExternalRefMismatch = errors.New("correlation id does not match fee")
)

// Disbursement ledger conflicts.
var (
	// ErrNothingToDisburse means no settled, undisbursed gateway fee
	// exists for the facility.
	ErrNothingToDisburse = errors.New("no disbursable fees for hostel")
	// ErrDisbursementPending means an admin-requested disbursement is
	// already outstanding for the facility.
	ErrDisbursementPending = errors.New("a pending admin disbursement already exists")
	// ErrDisbursementNotPending means settle was called on a record that
	// already left PENDING.
	ErrDisbursementNotPending = errors.New("disbursement is not in pending status")
	// ErrReasonRequired means a rejection arrived without a reason.
	ErrReasonRequired = errors.New("rejection requires a reason")
)

// Validation failures, rejected before any transaction starts.
var (
	// ErrInvalidDuration means the requested stay is shorter than one cycle.
	ErrInvalidDuration = errors.New("duration must be at least one cycle")
	// ErrMoveInPast means the move-in date is before today.
	ErrMoveInPast = errors.New("move-in date must be today or later")
	// ErrInvalidAdjustment means an admin edit would break the
	// 0 <= amount_paid <= amount_due invariant.
	ErrInvalidAdjustment = errors.New("adjusted amount out of range")
)
