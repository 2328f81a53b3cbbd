package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/service"
)

// DisbursementHandler exposes the payout ledger: previewing what a
// hostel can draw, opening a disbursement and settling it.
type DisbursementHandler struct {
	Disbursements *service.DisbursementService
}

// NewDisbursementHandler constructs a DisbursementHandler.
func NewDisbursementHandler(disbursements *service.DisbursementService) *DisbursementHandler {
	if disbursements == nil {
		panic("nil service passed to NewDisbursementHandler")
	}
	return &DisbursementHandler{Disbursements: disbursements}
}

// GetDisbursable handles GET /v1/hostels/:id/disbursable.  It reports
// the fees a payout would cover right now and the resulting totals.
func (h *DisbursementHandler) GetDisbursable(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hostelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}

	preview, err := h.Disbursements.ComputeDisbursable(c.Request().Context(), hostelID, userID, getRole(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hostel"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"fees":            preview.Fees,
		"total_collected": preview.TotalCollected,
		"service_fee":     preview.ServiceFee,
		"net_amount":      preview.NetAmount,
	})
}

// CreateDisbursement handles POST /v1/hostels/:id/disbursements.  It
// opens a PENDING payout covering every currently eligible fee.
func (h *DisbursementHandler) CreateDisbursement(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hostelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}

	d, err := h.Disbursements.Create(c.Request().Context(), hostelID, userID, getRole(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hostel"})
		case errors.Is(err, service.ErrNothingToDisburse),
			errors.Is(err, service.ErrDisbursementPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"disbursement": d})
}

// SettleDisbursement handles POST /v1/disbursements/:id/settle.  The
// body carries the admin's decision; rejection requires a reason.
func (h *DisbursementHandler) SettleDisbursement(c echo.Context) error {
	disbursementID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid disbursement id"})
	}
	var body struct {
		Approve bool    `json:"approve"`
		Reason  *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	d, err := h.Disbursements.Settle(c.Request().Context(), disbursementID, body.Approve, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReasonRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrDisbursementNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "disbursement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"disbursement": d})
}
