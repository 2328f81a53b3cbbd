package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

// BillingService generates the recurring per-cycle fees for all
// current occupants.  The sweep is a best-effort batch: each occupant
// is billed in their own transaction so one failure never aborts the
// rest of the cycle, and it is keyed on (user, due date) so re-running
// a cycle updates fees in place instead of duplicating them.
type BillingService struct {
	db     *sql.DB
	users  *repository.UserRepo
	rooms  *repository.RoomRepo
	fees   *repository.FeeRepo
	dueDay int
}

// NewBillingService constructs a BillingService.  dueDay is the day of
// the month on which generated fees fall due.
func NewBillingService(db *sql.DB, users *repository.UserRepo, rooms *repository.RoomRepo, fees *repository.FeeRepo, dueDay int) *BillingService {
	if db == nil || users == nil || rooms == nil || fees == nil {
		panic("nil dependency passed to NewBillingService")
	}
	if dueDay < 1 || dueDay > 28 {
		dueDay = 10
	}
	return &BillingService{db: db, users: users, rooms: rooms, fees: fees, dueDay: dueDay}
}

// SweepResult summarizes one billing cycle run.
type SweepResult struct {
	Billed int // fees created or updated
	Failed int // occupants skipped because their transaction failed
}

// DueDateFor returns the due date of the cycle containing now: the
// configured day of that calendar month, at midnight UTC.
func (s *BillingService) DueDateFor(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), s.dueDay, 0, 0, 0, 0, time.UTC)
}

// CarryForward computes the debt carried onto a new fee from the most
// recent prior fee: its unpaid remainder, or zero when it was settled.
func CarryForward(prior *model.Fee) decimal.Decimal {
	if prior == nil || prior.Status == model.FeePaid {
		return decimal.Zero
	}
	return prior.AmountDue.Sub(prior.AmountPaid)
}

// RunCycle bills every occupant for the cycle containing now.  Errors
// on individual occupants are logged and counted, never propagated;
// the returned error is reserved for failures that prevent the sweep
// from running at all (e.g. listing occupants).
func (s *BillingService) RunCycle(ctx context.Context, now time.Time) (*SweepResult, error) {
	occupants, err := s.users.ListOccupants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}
	dueDate := s.DueDateFor(now)

	res := &SweepResult{}
	for _, occ := range occupants {
		if err := s.billOccupant(ctx, occ, dueDate); err != nil {
			log.Printf("billing: user %d room %d: %v", occ.UserID, occ.RoomID, err)
			res.Failed++
			continue
		}
		res.Billed++
	}
	log.Printf("billing: cycle %s complete: billed=%d failed=%d", dueDate.Format("2006-01-02"), res.Billed, res.Failed)
	return res, nil
}

// billOccupant creates or refreshes one occupant's fee for the cycle
// in a transaction of its own.
func (s *BillingService) billOccupant(ctx context.Context, occ repository.Occupant, dueDate time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin billing tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.GetForUpdateTx(ctx, tx, occ.RoomID)
	if err != nil {
		return fmt.Errorf("load room: %w", err)
	}

	prior, err := s.fees.LatestBeforeTx(ctx, tx, occ.UserID, dueDate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load prior fee: %w", err)
	}
	newDue := room.PricePerCycle.Add(CarryForward(prior))

	existing, err := s.fees.FindByUserAndDueDateTx(ctx, tx, occ.UserID, dueDate)
	switch {
	case err == nil:
		// Re-run of the same cycle: refresh the due amount in place.
		// A prior fee settled between runs shrinks the carried debt,
		// but the due amount never drops below what was collected.
		if newDue.LessThan(existing.AmountPaid) {
			newDue = existing.AmountPaid
		}
		status := model.FeeStatusFor(newDue, existing.AmountPaid)
		if err := s.fees.UpdateAmountDueTx(ctx, tx, existing.ID, newDue, status); err != nil {
			return fmt.Errorf("update fee: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		fee := &model.Fee{
			UserID:    occ.UserID,
			RoomID:    room.ID,
			HostelID:  room.HostelID,
			AmountDue: newDue,
			Status:    model.FeePending,
			DueDate:   dueDate,
		}
		if err := s.fees.CreateTx(ctx, tx, fee); err != nil {
			return fmt.Errorf("create fee: %w", err)
		}
	default:
		return fmt.Errorf("find fee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit billing tx: %w", err)
	}
	committed = true
	return nil
}
