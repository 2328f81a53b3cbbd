package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/handler"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/middleware"
)

// RegisterStudent registers the endpoints a student calls to book a
// room and settle their fees.  Initiation is rate limited so a single
// client cannot flood the gateway with intents; the verify return URL
// is registered without JWT because the gateway redirect carries no
// token, and it is limited by client IP instead.
func RegisterStudent(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT", "ADMIN"),
	)
	g.POST("/bookings", r.CreateBooking)
	g.DELETE("/bookings/:id", r.CancelBooking)
	g.POST("/fees/:id/initiate-payment", p.InitiatePayment, limit)

	e.GET("/v1/payments/verify", p.VerifyPayment, limit)
}
