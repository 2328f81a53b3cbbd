package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/service"
)

// ReservationHandler exposes the booking workflow: creating a
// reservation, cancelling a pending one and checking an occupant out.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	if reservations == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// CreateBooking handles POST /v1/bookings.  The body carries the room,
// the stay length in billing cycles and the move-in date.  On success
// it returns 201 with the PENDING booking and the fee that must be
// settled before the booking confirms.
func (h *ReservationHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RoomID     uint64 `json:"room_id"`
		Duration   uint32 `json:"duration"`
		MoveInDate string `json:"move_in_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	moveIn, err := time.Parse("2006-01-02", body.MoveInDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "move_in_date must be YYYY-MM-DD"})
	}

	res, err := h.Reservations.Reserve(c.Request().Context(), userID, body.RoomID, body.Duration, moveIn)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDuration), errors.Is(err, service.ErrMoveInPast):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyAssigned),
			errors.Is(err, service.ErrPendingBookingExists),
			errors.Is(err, service.ErrOutstandingFee),
			errors.Is(err, service.ErrRoomUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking": res.Booking,
		"fee":     res.Fee,
	})
}

// CancelBooking handles DELETE /v1/bookings/:id.  Students may cancel
// only their own pending booking; admins may cancel anyone's.
func (h *ReservationHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	booking, err := h.Reservations.Cancel(c.Request().Context(), bookingID, userID, getRole(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		case errors.Is(err, service.ErrBookingNotPending),
			errors.Is(err, service.ErrConfirmedBookingExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// Leave handles POST /v1/users/:id/leave.  An admin checks a confirmed
// occupant out of their room, freeing the occupancy slot.
func (h *ReservationHandler) Leave(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Reservations.Leave(c.Request().Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user has no room assignment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
