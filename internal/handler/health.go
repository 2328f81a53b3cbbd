package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes with a plain "ok".  It deliberately
// touches no dependency so a sick database never fails the probe.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
