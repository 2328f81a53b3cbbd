package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/handler"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/middleware"
)

// RegisterAdmin registers admin-only endpoints: correcting fee
// records, checking occupants out and deciding disbursements.
func RegisterAdmin(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, d *handler.DisbursementHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.PATCH("/fees/:id", p.AdjustFee)
	g.POST("/users/:id/leave", r.Leave)
	g.POST("/disbursements/:id/settle", d.SettleDisbursement)
}
