package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fee status values.  Status is derived from the amounts and must
// satisfy: PAID iff amount_paid >= amount_due, PARTIAL iff some but
// not all of the due amount has been paid.
const (
	FeePending = "PENDING"
	FeePartial = "PARTIAL"
	FeePaid    = "PAID"
)

// External payment states tracked on a fee.  INITIATED means a payment
// intent was created with the gateway; PAID means a lookup confirmed
// the money moved.
const (
	ExternalInitiated = "INITIATED"
	ExternalPaid      = "PAID"
)

// Payment channels recorded for audit.  Only gateway-settled fees are
// eligible for disbursement; cash fees are collected on premises.
const (
	ChannelGateway = "GATEWAY"
	ChannelCash    = "CASH"
)

// Fee is one billing-cycle charge against a user.  AmountPaid is
// monotonically non-decreasing except under corrective admin edits and
// never exceeds AmountDue.  Fees are created by the reservation
// workflow or the recurring billing sweep and settled by the payment
// reconciliation adapter.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user the fee is charged to.
//  RoomID         – room the charge is for.
//  HostelID       – facility, denormalized for disbursement queries.
//  AmountDue      – total owed for the cycle (price + carried debt).
//  AmountPaid     – amount settled so far; 0 <= AmountPaid <= AmountDue.
//  Status         – PENDING, PARTIAL or PAID.
//  ExternalRef    – gateway correlation id of the latest payment intent.
//  ExternalStatus – INITIATED or PAID (nullable until first initiate).
//  PaymentChannel – audit tag naming how the fee was settled.
//  DueDate        – day the fee falls due.
//  PaidAt         – when the fee reached full settlement (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Fee struct {
	ID             uint64          // fees.id
	UserID         uint64          // fees.user_id
	RoomID         uint64          // fees.room_id
	HostelID       uint64          // fees.hostel_id
	AmountDue      decimal.Decimal // fees.amount_due
	AmountPaid     decimal.Decimal // fees.amount_paid
	Status         string          // fees.status
	ExternalRef    *string         // fees.external_ref (nullable)
	ExternalStatus *string         // fees.external_status (nullable)
	PaymentChannel *string         // fees.payment_channel (nullable)
	DueDate        time.Time       // fees.due_date
	PaidAt         *time.Time      // fees.paid_at (nullable)
	CreatedAt      time.Time       // fees.created_at
	UpdatedAt      time.Time       // fees.updated_at
}

// FeeStatusFor derives the fee status from the two amounts.  It is the
// single source of truth for the PAID/PARTIAL/PENDING decision so every
// mutation site recomputes status the same way.
func FeeStatusFor(due, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(due):
		return FeePaid
	case paid.IsPositive():
		return FeePartial
	default:
		return FeePending
	}
}
