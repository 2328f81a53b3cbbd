package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/handler"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/middleware"
)

// RegisterOwner registers the payout endpoints.  Owners act on their
// own hostels; admins may act on any, so both roles are admitted and
// ownership is enforced in the service layer.
func RegisterOwner(e *echo.Echo, d *handler.DisbursementHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER", "ADMIN"),
	)
	g.GET("/hostels/:id/disbursable", d.GetDisbursable)
	g.POST("/hostels/:id/disbursements", d.CreateDisbursement)
}
