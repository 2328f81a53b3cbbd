package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disbursement status values.  Settlement is only legal from PENDING;
// COMPLETED creates exactly one Income record, REJECTED releases the
// covered fees for a later retry.
const (
	DisbursementPending   = "PENDING"
	DisbursementCompleted = "COMPLETED"
	DisbursementRejected  = "REJECTED"
)

// Disbursement is a payout of gateway-settled fees to a hostel owner,
// net of the platform service fee.  The set of fee ids covered by all
// non-REJECTED disbursements of one hostel is disjoint: each settled
// fee is paid out at most once.
//
// Fields:
//  ID             – primary key identifier.
//  HostelID       – facility whose fees are being paid out.
//  OwnerID        – hostel owner receiving the net amount.
//  TotalCollected – sum of the covered fees' amount_due.
//  ServiceFee     – platform cut, rounded to 2 decimal places.
//  NetAmount      – TotalCollected - ServiceFee.
//  FeeIDs         – fees covered by this payout (disbursement_fees rows).
//  Status         – PENDING, COMPLETED or REJECTED.
//  RequestedBy    – role of the requester (OWNER or ADMIN).
//  RejectReason   – mandatory explanation when REJECTED (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Disbursement struct {
	ID             uint64          // disbursements.id
	HostelID       uint64          // disbursements.hostel_id
	OwnerID        uint64          // disbursements.owner_id
	TotalCollected decimal.Decimal // disbursements.total_collected
	ServiceFee     decimal.Decimal // disbursements.service_fee
	NetAmount      decimal.Decimal // disbursements.net_amount
	FeeIDs         []uint64        // disbursement_fees.fee_id
	Status         string          // disbursements.status
	RequestedBy    string          // disbursements.requested_by
	RejectReason   *string         // disbursements.reject_reason (nullable)
	CreatedAt      time.Time       // disbursements.created_at
	UpdatedAt      time.Time       // disbursements.updated_at
}

// Income is the immutable platform revenue record produced when a
// disbursement completes.  The UNIQUE constraint on DisbursementID
// makes creation idempotent under duplicate approval calls.
//
// Fields:
//  ID             – primary key identifier.
//  Amount         – service fee captured by the platform.
//  IncomeType     – revenue category; always "SERVICE_FEE" today.
//  DisbursementID – disbursement that produced this income.
//  CreatedAt      – creation timestamp.
type Income struct {
	ID             uint64          // incomes.id
	Amount         decimal.Decimal // incomes.amount
	IncomeType     string          // incomes.income_type
	DisbursementID uint64          // incomes.disbursement_id (unique)
	CreatedAt      time.Time       // incomes.created_at
}
