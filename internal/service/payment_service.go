package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/payment"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/queue"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

// PaymentService reconciles external gateway payments against the fee
// ledger.  Gateway calls always happen outside any open transaction so
// network latency never holds row locks; the resulting local state
// change is applied in its own short transaction.  Verify is safe to
// replay: an already settled fee returns success without reapplying
// the amount, and confirming an already confirmed booking is a no-op.
type PaymentService struct {
	db       *sql.DB
	fees     *repository.FeeRepo
	bookings *repository.BookingRepo
	rooms    *repository.RoomRepo
	gateway  *payment.Client
	events   *queue.Publisher // optional; nil disables notifications
	retURL   string
}

// NewPaymentService constructs a PaymentService.  events may be nil
// when no broker is configured.
func NewPaymentService(db *sql.DB, fees *repository.FeeRepo, bookings *repository.BookingRepo, rooms *repository.RoomRepo, gateway *payment.Client, events *queue.Publisher, returnURL string) *PaymentService {
	if db == nil || fees == nil || bookings == nil || rooms == nil || gateway == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	return &PaymentService{db: db, fees: fees, bookings: bookings, rooms: rooms, gateway: gateway, events: events, retURL: returnURL}
}

// InitiateResult carries what a client needs to complete a payment.
type InitiateResult struct {
	FeeID         uint64
	CorrelationID string
	RedirectURL   string
	AmountMinor   int64
}

// Initiate computes the fee's outstanding amount, creates a payment
// intent at the gateway and persists the returned correlation id on
// the fee.  Transient gateway failures are returned as-is; the caller
// owns the retry.
func (s *PaymentService) Initiate(ctx context.Context, feeID, userID uint64) (*InitiateResult, error) {
	fee, err := s.fees.GetByID(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if fee.UserID != userID {
		return nil, repository.ErrForbidden
	}
	outstanding := fee.AmountDue.Sub(fee.AmountPaid)
	if !outstanding.IsPositive() {
		return nil, ErrFeeSettled
	}

	amountMinor := payment.ToMinorUnits(outstanding)
	reference := fmt.Sprintf("fee-%d-%s", fee.ID, uuid.NewString())
	res, err := s.gateway.Initiate(ctx, amountMinor, s.retURL, reference)
	if err != nil {
		return nil, err
	}
	if err := s.fees.SetExternalRef(ctx, fee.ID, res.CorrelationID); err != nil {
		return nil, fmt.Errorf("persist correlation id: %w", err)
	}
	return &InitiateResult{
		FeeID:         fee.ID,
		CorrelationID: res.CorrelationID,
		RedirectURL:   res.RedirectURL,
		AmountMinor:   amountMinor,
	}, nil
}

// VerifyResult reports the reconciled fee and, when this settlement
// confirmed a pending booking, the booking that was confirmed.
type VerifyResult struct {
	Fee     *model.Fee
	Booking *model.Booking
}

// Verify reconciles one gateway payment against the fee ledger.  The
// gateway lookup is the sole authority: a client-supplied success flag
// is never trusted.  When the lookup reports Completed, the verified
// amount is applied clamped to the due amount, the status recomputed,
// and, if full settlement unblocks the user's PENDING booking for the
// same room, that booking becomes CONFIRMED and the room's occupancy
// goes up by exactly one.  Replays change nothing: a fee whose
// current reference was already applied returns success without
// crediting the amount again.
func (s *PaymentService) Verify(ctx context.Context, externalRef string, feeID uint64) (*VerifyResult, error) {
	lookup, err := s.gateway.Lookup(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	if lookup.Status != payment.StatusCompleted {
		return nil, ErrPaymentNotCompleted
	}
	verified := payment.FromMinorUnits(lookup.TotalAmountMinor)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin verify tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	fee, err := s.fees.GetForUpdateTx(ctx, tx, feeID)
	if err != nil {
		return nil, err
	}
	if fee.ExternalRef == nil || *fee.ExternalRef != externalRef {
		return nil, ErrExternalRefMismatch
	}
	if fee.Status == model.FeePaid ||
		(fee.ExternalStatus != nil && *fee.ExternalStatus == model.ExternalPaid) {
		// Duplicate verification: this reference's money was already
		// applied.  Initiate resets external_status to INITIATED when
		// a new intent replaces the ref, so PAID here can only mean a
		// replay of the same payment, even on a still-PARTIAL fee.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit verify tx: %w", err)
		}
		committed = true
		return &VerifyResult{Fee: fee}, nil
	}

	newPaid := fee.AmountPaid.Add(verified)
	if newPaid.GreaterThan(fee.AmountDue) {
		newPaid = fee.AmountDue
	}
	status := model.FeeStatusFor(fee.AmountDue, newPaid)
	var paidAt *time.Time
	if status == model.FeePaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.fees.ApplyPaymentTx(ctx, tx, fee.ID, newPaid, status, model.ExternalPaid, model.ChannelGateway, paidAt); err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}
	fee.AmountPaid = newPaid
	fee.Status = status
	fee.PaidAt = paidAt

	var confirmed *model.Booking
	if status == model.FeePaid {
		booking, err := s.bookings.PendingByUserTx(ctx, tx, fee.UserID)
		switch {
		case err == nil && booking.RoomID == fee.RoomID:
			if err := s.bookings.UpdateStatusTx(ctx, tx, booking.ID, model.BookingConfirmed); err != nil {
				return nil, fmt.Errorf("confirm booking: %w", err)
			}
			if err := s.rooms.ConfirmOccupancyTx(ctx, tx, booking.RoomID); err != nil {
				return nil, fmt.Errorf("confirm occupancy: %w", err)
			}
			booking.Status = model.BookingConfirmed
			confirmed = booking
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit verify tx: %w", err)
	}
	committed = true

	if status == model.FeePaid && s.events != nil {
		ev := queue.FeeSettledEvent{
			FeeID:      fee.ID,
			UserID:     fee.UserID,
			RoomID:     fee.RoomID,
			HostelID:   fee.HostelID,
			AmountPaid: fee.AmountPaid.StringFixed(2),
			SettledAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if confirmed != nil {
			ev.BookingID = confirmed.ID
		}
		// Notification failures never unwind the committed ledger state.
		if err := s.events.PublishFeeSettled(ctx, ev); err != nil {
			log.Printf("payment: fee.settled publish failed: %v", err)
		}
	}
	return &VerifyResult{Fee: fee, Booking: confirmed}, nil
}

// AdjustFee applies a corrective admin edit of a fee's paid amount.
// This is the only path allowed to lower amount_paid; the invariants
// 0 <= amount_paid <= amount_due and the derived status still hold
// after the edit.
func (s *PaymentService) AdjustFee(ctx context.Context, feeID uint64, newPaid decimal.Decimal) (*model.Fee, error) {
	if newPaid.IsNegative() {
		return nil, ErrInvalidAdjustment
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin adjust tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	fee, err := s.fees.GetForUpdateTx(ctx, tx, feeID)
	if err != nil {
		return nil, err
	}
	if newPaid.GreaterThan(fee.AmountDue) {
		return nil, ErrInvalidAdjustment
	}
	status := model.FeeStatusFor(fee.AmountDue, newPaid)
	if err := s.fees.AdjustPaidTx(ctx, tx, fee.ID, newPaid, status); err != nil {
		return nil, fmt.Errorf("adjust fee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adjust tx: %w", err)
	}
	committed = true
	fee.AmountPaid = newPaid
	fee.Status = status
	return fee, nil
}
