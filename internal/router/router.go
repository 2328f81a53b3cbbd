// Package router maps the HTTP surface onto handlers and middleware.
// Routes are grouped by the role allowed to call them; the payment
// verify endpoint is the one unauthenticated business route because
// the gateway redirects the payer's browser there without a token.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/handler"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
