// Package handler exposes the transaction engine over HTTP.  Handlers
// validate and decode the request, delegate every state change to the
// service layer, and translate the sentinel errors coming back into
// status codes: validation failures map to 400, broken workflow
// preconditions to 409, missing records to 404, gateway trouble to 502
// and everything unexpected to 500.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user id from the context and
// converts it to uint64.  JWT claims decode as float64, so the type
// switch accepts the numeric shapes a claim value can arrive in.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the caller's role claim as a string.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// pathID parses the named path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
