package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/verify?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestFeeIDFromQuery(t *testing.T) {
	id, err := feeIDFromQuery(verifyContext(t, "fee_id=42"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	// The gateway echoes back the purchase_order_id reference sent at
	// initiation; the fee id is parsed out of it.
	id, err = feeIDFromQuery(verifyContext(t, "purchase_order_id=fee-7-1f6e9c1a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	// Explicit fee_id wins over the reference.
	id, err = feeIDFromQuery(verifyContext(t, "fee_id=42&purchase_order_id=fee-7-1f6e9c1a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	_, err = feeIDFromQuery(verifyContext(t, "fee_id=abc"))
	assert.Error(t, err)

	_, err = feeIDFromQuery(verifyContext(t, "purchase_order_id=order-9"))
	assert.Error(t, err)

	_, err = feeIDFromQuery(verifyContext(t, ""))
	assert.Error(t, err)
}

func TestGetUserID(t *testing.T) {
	c := verifyContext(t, "")
	c.Set("user_id", float64(12)) // JWT numeric claims decode as float64
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	c.Set("user_id", "34")
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(34), id)

	c.Set("user_id", nil)
	_, err = getUserID(c)
	assert.Error(t, err)
}
