package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/payment"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/service"
)

// PaymentHandler exposes fee settlement: starting a gateway payment,
// verifying its outcome on return, and admin corrections.
type PaymentHandler struct {
	Payments *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	if payments == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments}
}

// InitiatePayment handles POST /v1/fees/:id/initiate-payment.  It
// creates a payment intent for the fee's outstanding amount and
// returns the URL the payer is redirected to.
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	feeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fee id"})
	}

	res, err := h.Payments.Initiate(c.Request().Context(), feeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your fee"})
		case errors.Is(err, service.ErrFeeSettled):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
		case errors.Is(err, payment.ErrGateway):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"fee_id":       res.FeeID,
		"pidx":         res.CorrelationID,
		"payment_url":  res.RedirectURL,
		"amount_minor": res.AmountMinor,
	})
}

// VerifyPayment handles GET /v1/payments/verify, the return URL the
// gateway redirects payers back to.  The query carries the gateway's
// correlation id (pidx) and either an explicit fee_id or the
// purchase_order_id reference of the form fee-<id>-<uuid> that was
// sent at initiation.  Only the gateway lookup decides the outcome;
// query parameters alone never settle a fee.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	pidx := c.QueryParam("pidx")
	if pidx == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pidx is required"})
	}
	feeID, err := feeIDFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	res, err := h.Payments.Verify(c.Request().Context(), pidx, feeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotCompleted),
			errors.Is(err, service.ErrExternalRefMismatch):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
		case errors.Is(err, payment.ErrGateway):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := echo.Map{"fee": res.Fee}
	if res.Booking != nil {
		out["booking"] = res.Booking
	}
	return c.JSON(http.StatusOK, out)
}

// feeIDFromQuery resolves the fee being verified from the return-URL
// query: an explicit fee_id wins, otherwise the id is parsed out of
// the purchase_order_id reference.
func feeIDFromQuery(c echo.Context) (uint64, error) {
	if raw := c.QueryParam("fee_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return 0, errors.New("invalid fee_id")
		}
		return id, nil
	}
	ref := c.QueryParam("purchase_order_id")
	if rest, found := strings.CutPrefix(ref, "fee-"); found {
		if idx := strings.IndexByte(rest, '-'); idx > 0 {
			if id, err := strconv.ParseUint(rest[:idx], 10, 64); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, errors.New("fee_id or purchase_order_id is required")
}

// AdjustFee handles PATCH /v1/fees/:id.  Admins correct a fee's paid
// amount, for example after a cash payment or a gateway refund.
func (h *PaymentHandler) AdjustFee(c echo.Context) error {
	feeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fee id"})
	}
	var body struct {
		AmountPaid string `json:"amount_paid"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	newPaid, err := decimal.NewFromString(body.AmountPaid)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_paid must be a decimal string"})
	}

	fee, err := h.Payments.AdjustFee(c.Request().Context(), feeID, newPaid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAdjustment):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fee": fee})
}
