package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/queue"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

// DisbursementService pays settled fees out to hostel owners, minus
// the platform service fee.  Eligibility is always computed by set
// difference against existing non-REJECTED disbursements, inside a
// transaction that holds the hostel row lock, so no settled fee can be
// covered by two payouts no matter how requests race.
type DisbursementService struct {
	db            *sql.DB
	hostels       *repository.HostelRepo
	fees          *repository.FeeRepo
	disbursements *repository.DisbursementRepo
	incomes       *repository.IncomeRepo
	events        *queue.Publisher // optional; nil disables notifications
	rate          decimal.Decimal
}

// NewDisbursementService constructs a DisbursementService.  rate is
// the service-fee fraction withheld from every payout (e.g. 0.1 for
// ten percent).  events may be nil when no broker is configured.
func NewDisbursementService(db *sql.DB, hostels *repository.HostelRepo, fees *repository.FeeRepo, disbursements *repository.DisbursementRepo, incomes *repository.IncomeRepo, events *queue.Publisher, rate decimal.Decimal) *DisbursementService {
	if db == nil || hostels == nil || fees == nil || disbursements == nil || incomes == nil {
		panic("nil dependency passed to NewDisbursementService")
	}
	return &DisbursementService{
		db:            db,
		hostels:       hostels,
		fees:          fees,
		disbursements: disbursements,
		incomes:       incomes,
		events:        events,
		rate:          rate,
	}
}

// ServiceFeeFor returns the platform cut of a collected total, rounded
// half-up to two decimal places.
func (s *DisbursementService) ServiceFeeFor(total decimal.Decimal) decimal.Decimal {
	return total.Mul(s.rate).Round(2)
}

// DisbursablePreview reports what a payout for the hostel would
// contain right now.
type DisbursablePreview struct {
	Fees           []model.Fee
	TotalCollected decimal.Decimal
	ServiceFee     decimal.Decimal
	NetAmount      decimal.Decimal
}

func (s *DisbursementService) totalsFor(fees []model.Fee) (total, serviceFee, net decimal.Decimal) {
	total = decimal.Zero
	for _, f := range fees {
		total = total.Add(f.AmountDue)
	}
	serviceFee = s.ServiceFeeFor(total)
	net = total.Sub(serviceFee)
	return total, serviceFee, net
}

// ComputeDisbursable returns the hostel's currently eligible fees and
// the resulting totals without creating anything.  Owners may only
// preview their own hostels; admins may preview any.
func (s *DisbursementService) ComputeDisbursable(ctx context.Context, hostelID, callerID uint64, callerRole string) (*DisbursablePreview, error) {
	hostel, err := s.hostels.GetByID(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleAdmin && hostel.OwnerID != callerID {
		return nil, repository.ErrForbidden
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin preview tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	fees, err := s.fees.ListPaidUnsettledTx(ctx, tx, hostelID)
	if err != nil {
		return nil, fmt.Errorf("list disbursable fees: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit preview tx: %w", err)
	}
	committed = true

	total, serviceFee, net := s.totalsFor(fees)
	return &DisbursablePreview{
		Fees:           fees,
		TotalCollected: total,
		ServiceFee:     serviceFee,
		NetAmount:      net,
	}, nil
}

// Create opens a PENDING disbursement covering every currently
// eligible fee of the hostel.  It fails with ErrNothingToDisburse when
// the eligible set is empty and with ErrDisbursementPending when an
// admin-requested payout is already outstanding for the facility.
// Owners may only request payouts for their own hostels.
func (s *DisbursementService) Create(ctx context.Context, hostelID, requesterID uint64, requesterRole string) (*model.Disbursement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin disburse tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The hostel row lock serializes concurrent payout requests for
	// the same facility: the second request recomputes eligibility
	// after the first commits and sees an empty set.
	hostel, err := s.hostels.GetForUpdateTx(ctx, tx, hostelID)
	if err != nil {
		return nil, err
	}
	if requesterRole != model.RoleAdmin && hostel.OwnerID != requesterID {
		return nil, repository.ErrForbidden
	}
	if requesterRole == model.RoleAdmin {
		pending, err := s.disbursements.HasPendingAdminTx(ctx, tx, hostelID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, ErrDisbursementPending
		}
	}

	fees, err := s.fees.ListPaidUnsettledTx(ctx, tx, hostelID)
	if err != nil {
		return nil, fmt.Errorf("list disbursable fees: %w", err)
	}
	if len(fees) == 0 {
		return nil, ErrNothingToDisburse
	}

	total, serviceFee, net := s.totalsFor(fees)
	feeIDs := make([]uint64, 0, len(fees))
	for _, f := range fees {
		feeIDs = append(feeIDs, f.ID)
	}
	d := &model.Disbursement{
		HostelID:       hostel.ID,
		OwnerID:        hostel.OwnerID,
		TotalCollected: total,
		ServiceFee:     serviceFee,
		NetAmount:      net,
		FeeIDs:         feeIDs,
		Status:         model.DisbursementPending,
		RequestedBy:    requesterRole,
	}
	if err := s.disbursements.CreateTx(ctx, tx, d); err != nil {
		return nil, fmt.Errorf("create disbursement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit disburse tx: %w", err)
	}
	committed = true
	return d, nil
}

// Settle finalizes a PENDING disbursement.  Approval stamps COMPLETED
// and records exactly one income row for the service fee; the
// existence check under the row lock makes duplicate approval calls
// harmless.  Rejection requires a reason and never creates income;
// the covered fees become eligible for a future payout again.
func (s *DisbursementService) Settle(ctx context.Context, disbursementID uint64, approve bool, reason *string) (*model.Disbursement, error) {
	if !approve && (reason == nil || *reason == "") {
		return nil, ErrReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settle tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	d, err := s.disbursements.GetForUpdateTx(ctx, tx, disbursementID)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DisbursementPending {
		return nil, ErrDisbursementNotPending
	}

	if approve {
		if err := s.disbursements.SettleTx(ctx, tx, d.ID, model.DisbursementCompleted, nil); err != nil {
			return nil, fmt.Errorf("complete disbursement: %w", err)
		}
		exists, err := s.incomes.ExistsForDisbursementTx(ctx, tx, d.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			income := &model.Income{
				Amount:         d.ServiceFee,
				IncomeType:     "SERVICE_FEE",
				DisbursementID: d.ID,
			}
			if err := s.incomes.CreateTx(ctx, tx, income); err != nil {
				return nil, fmt.Errorf("create income: %w", err)
			}
		}
		d.Status = model.DisbursementCompleted
	} else {
		if err := s.disbursements.SettleTx(ctx, tx, d.ID, model.DisbursementRejected, reason); err != nil {
			return nil, fmt.Errorf("reject disbursement: %w", err)
		}
		d.Status = model.DisbursementRejected
		d.RejectReason = reason
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle tx: %w", err)
	}
	committed = true

	if approve && s.events != nil {
		ev := queue.DisbursementCompletedEvent{
			DisbursementID: d.ID,
			HostelID:       d.HostelID,
			OwnerID:        d.OwnerID,
			NetAmount:      d.NetAmount.StringFixed(2),
			ServiceFee:     d.ServiceFee.StringFixed(2),
			CompletedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		// Notification failures never unwind the committed ledger state.
		if err := s.events.PublishDisbursementCompleted(ctx, ev); err != nil {
			log.Printf("disbursement: completion publish failed: %v", err)
		}
	}
	return d, nil
}
