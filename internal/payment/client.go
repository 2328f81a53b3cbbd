// Package payment implements the client side of the external payment
// gateway contract: creating a payment intent and looking up the
// authoritative status of a correlation id.  The gateway is the only
// authority on whether money moved; callbacks from the browser are
// never trusted on their own.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrGateway wraps every failure of the gateway itself: unreachable
// host, non-2xx answer or a malformed body.  Callers match on it to
// distinguish "the provider is down" from their own mistakes.
var ErrGateway = errors.New("payment gateway error")

// StatusCompleted is the gateway's terminal success status.  Any other
// lookup status means the money has not (yet) moved.
const StatusCompleted = "Completed"

// minorUnitsPerUnit is the fixed divisor between the gateway's integer
// minor-unit amounts and the ledger's currency amounts.
const minorUnitsPerUnit = 100

// Client talks to the payment gateway over HTTP.  It performs no
// retries itself; transient failures surface to the caller, which owns
// the retry decision at the initiate/verify boundary.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient constructs a gateway client.  timeout bounds each outbound
// call so a slow gateway cannot stall request handling; these calls
// always happen outside any open database transaction.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// InitiateResult is the gateway's answer to a new payment intent.
type InitiateResult struct {
	CorrelationID string `json:"pidx"`
	RedirectURL   string `json:"payment_url"`
	ExpiresIn     int64  `json:"expires_in"`
}

// LookupResult is the gateway's authoritative view of one intent.
type LookupResult struct {
	Status           string `json:"status"`
	TotalAmountMinor int64  `json:"total_amount"`
}

// Initiate creates a payment intent for the given minor-unit amount
// and returns the correlation id and the URL the payer is redirected
// to.  reference is an opaque idempotency tag echoed back by the
// gateway in reports.
func (c *Client) Initiate(ctx context.Context, amountMinor int64, returnURL, reference string) (*InitiateResult, error) {
	body := map[string]any{
		"amount":              amountMinor,
		"return_url":          returnURL,
		"purchase_order_id":   reference,
		"purchase_order_name": "hostel-fee",
	}
	var out InitiateResult
	if err := c.post(ctx, "/epayment/initiate/", body, &out); err != nil {
		return nil, err
	}
	if out.CorrelationID == "" || out.RedirectURL == "" {
		return nil, fmt.Errorf("%w: initiate returned incomplete response", ErrGateway)
	}
	return &out, nil
}

// Lookup queries the authoritative status of a correlation id.
func (c *Client) Lookup(ctx context.Context, correlationID string) (*LookupResult, error) {
	body := map[string]any{"pidx": correlationID}
	var out LookupResult
	if err := c.post(ctx, "/epayment/lookup/", body, &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, fmt.Errorf("%w: lookup returned incomplete response", ErrGateway)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.secretKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: unreachable: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}
	return nil
}

// ToMinorUnits converts a ledger amount to the gateway's integer minor
// units, truncating any sub-minor fraction so the payer is never asked
// for more than the ledger records.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(minorUnitsPerUnit)).IntPart()
}

// FromMinorUnits converts a gateway minor-unit amount back into a
// ledger amount.  The division by 100 is exact at two decimal places,
// and results are truncated rather than rounded up so a stray fraction
// is never credited in the provider's favour.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(minorUnitsPerUnit)).Truncate(2)
}
