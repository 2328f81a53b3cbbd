package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/model"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
)

// ReservationService orchestrates the atomic creation of a booking:
// room counter update, fee creation, booking creation and user
// assignment all commit or roll back together.  Preconditions are
// checked inside the transaction, after the user row is locked, so two
// concurrent reservations by (or for) the same user serialize and the
// classic read-then-write races cannot admit a duplicate booking or
// overbook a room.
type ReservationService struct {
	db       *sql.DB
	users    *repository.UserRepo
	rooms    *repository.RoomRepo
	bookings *repository.BookingRepo
	fees     *repository.FeeRepo
}

// NewReservationService constructs a ReservationService.  All
// dependencies must be non-nil.
func NewReservationService(db *sql.DB, users *repository.UserRepo, rooms *repository.RoomRepo, bookings *repository.BookingRepo, fees *repository.FeeRepo) *ReservationService {
	if db == nil || users == nil || rooms == nil || bookings == nil || fees == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{db: db, users: users, rooms: rooms, bookings: bookings, fees: fees}
}

// ReservationResult is returned by Reserve: the created booking and
// the fee the user must settle to confirm it.
type ReservationResult struct {
	Booking *model.Booking
	Fee     *model.Fee
}

// Reserve books a room slot for the user.  Validation failures
// (duration, move-in date) are rejected before any transaction starts;
// all other preconditions are evaluated inside the transaction.  On
// success the room's pending counter is incremented, a PENDING fee for
// one cycle's rent and a PENDING booking exist, and the assignment is
// written to the user record.  Any failure rolls the whole unit back.
func (s *ReservationService) Reserve(ctx context.Context, userID, roomID uint64, duration uint32, moveIn time.Time) (*ReservationResult, error) {
	if duration < 1 {
		return nil, ErrInvalidDuration
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if moveIn.UTC().Truncate(24 * time.Hour).Before(today) {
		return nil, ErrMoveInPast
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the user row first: every per-user precondition below is
	// serialized behind this lock.
	user, err := s.users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if user.RoomID != nil {
		return nil, ErrAlreadyAssigned
	}
	hasPending, err := s.bookings.HasPendingTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, ErrPendingBookingExists
	}
	owes, err := s.fees.HasOutstandingTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if owes {
		return nil, ErrOutstandingFee
	}

	// Capacity check and pending increment as one conditional write.
	if err := s.rooms.ReserveSlotTx(ctx, tx, roomID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRoomUnavailable
		}
		return nil, err
	}
	room, err := s.rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	moveIn = moveIn.UTC().Truncate(24 * time.Hour)
	endDate := moveIn.AddDate(0, int(duration), 0)

	fee := &model.Fee{
		UserID:    userID,
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		AmountDue: room.PricePerCycle,
		Status:    model.FeePending,
		DueDate:   moveIn,
	}
	if err := s.fees.CreateTx(ctx, tx, fee); err != nil {
		return nil, fmt.Errorf("create fee: %w", err)
	}

	booking := &model.Booking{
		UserID:      userID,
		RoomID:      room.ID,
		Duration:    duration,
		MoveInDate:  moveIn,
		EndDate:     endDate,
		TotalAmount: room.PricePerCycle,
		Status:      model.BookingPending,
	}
	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := s.users.AssignRoomTx(ctx, tx, userID, room.ID,
		moveIn.Format("2006-01-02"), endDate.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("assign room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve tx: %w", err)
	}
	committed = true
	return &ReservationResult{Booking: booking, Fee: fee}, nil
}

// Cancel aborts a PENDING booking: it releases the room slot, deletes
// the booking's fee, marks the booking CANCELLED and clears the user's
// assignment.  Cancellation is rejected when the booking has left
// PENDING or when the user already holds a CONFIRMED booking under a
// different record.  callerID must be the booking's user unless the
// caller is an admin.
func (s *ReservationService) Cancel(ctx context.Context, bookingID, callerID uint64, callerRole string) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleAdmin && booking.UserID != callerID {
		return nil, repository.ErrForbidden
	}
	if booking.Status != model.BookingPending {
		return nil, ErrBookingNotPending
	}
	confirmed, err := s.bookings.HasConfirmedTx(ctx, tx, booking.UserID)
	if err != nil {
		return nil, err
	}
	if confirmed {
		return nil, ErrConfirmedBookingExists
	}

	if err := s.rooms.ReleaseSlotTx(ctx, tx, booking.RoomID); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	fee, err := s.fees.OutstandingByUserTx(ctx, tx, booking.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if fee != nil {
		if err := s.fees.DeleteTx(ctx, tx, fee.ID); err != nil {
			return nil, fmt.Errorf("delete fee: %w", err)
		}
	}
	if err := s.bookings.UpdateStatusTx(ctx, tx, booking.ID, model.BookingCancelled); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if err := s.users.ClearAssignmentTx(ctx, tx, booking.UserID); err != nil {
		return nil, fmt.Errorf("clear assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}
	committed = true
	booking.Status = model.BookingCancelled
	return booking, nil
}

// Leave checks a confirmed occupant out of their room: the confirmed
// occupancy counter comes down by one and the user's assignment is
// cleared.  The confirmed booking itself stays CONFIRMED; it is a
// terminal state and the historical record of the stay.
func (s *ReservationService) Leave(ctx context.Context, userID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leave tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	user, err := s.users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.RoomID == nil {
		return sql.ErrNoRows
	}
	if err := s.rooms.ReleaseOccupancyTx(ctx, tx, *user.RoomID); err != nil {
		return fmt.Errorf("release occupancy: %w", err)
	}
	if err := s.users.ClearAssignmentTx(ctx, tx, userID); err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit leave tx: %w", err)
	}
	committed = true
	return nil
}
