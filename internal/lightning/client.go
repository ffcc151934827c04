package lightning

import (
	"bytes"         // Request body buffers
	"context"       // Request-scoped cancellation
	"encoding/base64" // LND encodes hashes and preimages as base64
	"encoding/hex"  // Payment hashes travel as hex on our API
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel errors
	"fmt"           // Error formatting
	"io"            // Response body reading
	"net/http"      // HTTP client
	"net/url"       // Path escaping
	"strconv"       // LND returns sat amounts as strings
	"strings"       // URL normalization
	"time"          // Request timeouts

	"github.com/sirupsen/logrus" // Logging library
)

// ErrNotConfigured is returned when the LND connection settings are missing
var ErrNotConfigured = errors.New("lightning configuration missing")

// Client talks to an LND node over its REST API
type Client struct {
	baseURL  string       // Normalized REST base URL
	macaroon string       // Hex-encoded admin macaroon
	http     *http.Client // Underlying HTTP client
}

// NewClient creates a Lightning client for the given LND REST endpoint
func NewClient(restURL, macaroon string) *Client {
	// Ensure the URL carries a protocol
	if restURL != "" && !strings.HasPrefix(restURL, "http://") && !strings.HasPrefix(restURL, "https://") {
		restURL = "https://" + restURL
	}
	// Remove trailing slash if present
	restURL = strings.TrimSuffix(restURL, "/")
	return &Client{
		baseURL:  restURL,
		macaroon: macaroon,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether the client has connection settings
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.macaroon != ""
}

// request performs an authenticated call against the LND REST API
func (c *Client) request(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var reqBody io.Reader // Request body, if any
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Grpc-Metadata-macaroon", c.macaroon) // Macaroon auth header
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to communicate with lightning node: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// Non-2xx responses carry an LND error payload
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.WithFields(logrus.Fields{
			"status":   resp.StatusCode, // HTTP status from LND
			"endpoint": endpoint,        // Which REST endpoint failed
		}).Error("LND API error")
		return nil, fmt.Errorf("LND API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return json.RawMessage(data), nil
}

// Invoice is the result of creating a Lightning invoice
type Invoice struct {
	PaymentRequest string `json:"payment_request"` // BOLT11 payment request
	RHash          string `json:"r_hash"`          // Payment hash, hex-encoded
	AddIndex       string `json:"add_index"`       // LND add index
}

// CreateInvoice creates an invoice for the given amount in sats
func (c *Client) CreateInvoice(ctx context.Context, value int64, memo string) (*Invoice, error) {
	raw, err := c.request(ctx, http.MethodPost, "/v1/invoices", map[string]string{
		"value":  strconv.FormatInt(value, 10), // LND expects string sats
		"memo":   memo,                         // Invoice description
		"expiry": "3600",                       // 1 hour expiry
	})
	if err != nil {
		return nil, err
	}
	var res struct {
		PaymentRequest string `json:"payment_request"` // BOLT11 payment request
		RHash          string `json:"r_hash"`          // Base64 payment hash
		RHashStr       string `json:"r_hash_str"`      // Hex payment hash (older LND)
		AddIndex       string `json:"add_index"`       // LND add index
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	rHash := res.RHashStr // Prefer the hex form when present
	if rHash == "" {
		decoded, err := base64.StdEncoding.DecodeString(res.RHash)
		if err != nil {
			return nil, fmt.Errorf("invalid r_hash in LND response: %w", err)
		}
		rHash = hex.EncodeToString(decoded)
	}
	return &Invoice{
		PaymentRequest: res.PaymentRequest, // BOLT11 payment request
		RHash:          rHash,              // Hex payment hash
		AddIndex:       res.AddIndex,       // LND add index
	}, nil
}

// InvoiceStatus is the result of checking an invoice
type InvoiceStatus struct {
	Settled    bool   `json:"settled"`     // Whether the invoice has been paid
	Preimage   string `json:"preimage"`    // Hex proof of payment once settled
	AmountPaid int64  `json:"amount_paid"` // Sats received
	State      string `json:"state"`       // LND invoice state
}

// CheckInvoice looks up the settlement state of an invoice by payment hash
func (c *Client) CheckInvoice(ctx context.Context, rHash string) (*InvoiceStatus, error) {
	// The lookup endpoint wants the hash base64-encoded; our API carries hex
	param := rHash
	if decoded, err := hex.DecodeString(rHash); err == nil && len(decoded) == 32 {
		param = base64.StdEncoding.EncodeToString(decoded)
	}
	raw, err := c.request(ctx, http.MethodGet, "/v1/invoice/"+url.PathEscape(param), nil)
	if err != nil {
		return nil, err
	}
	var res struct {
		Settled    bool   `json:"settled"`      // Settlement flag
		RPreimage  string `json:"r_preimage"`   // Base64 preimage
		AmtPaidSat string `json:"amt_paid_sat"` // Sats received, as a string
		State      string `json:"state"`        // Invoice state
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	status := &InvoiceStatus{
		Settled: res.Settled, // Settlement flag
		State:   res.State,   // Invoice state
	}
	status.AmountPaid, _ = strconv.ParseInt(res.AmtPaidSat, 10, 64)
	// Only expose the preimage once the invoice has settled
	if res.Settled && res.RPreimage != "" {
		if decoded, err := base64.StdEncoding.DecodeString(res.RPreimage); err == nil {
			status.Preimage = hex.EncodeToString(decoded)
		}
	}
	return status, nil
}

// Payment is the result of paying an invoice
type Payment struct {
	PaymentHash string `json:"payment_hash"` // Hex payment hash
	Preimage    string `json:"preimage"`     // Hex proof of payment
	FeeSats     int64  `json:"fee_sats"`     // Routing fee paid
}

// PayInvoice pays a BOLT11 payment request. For zero-amount invoices the
// amount must be supplied in sats.
func (c *Client) PayInvoice(ctx context.Context, paymentRequest string, amount int64) (*Payment, error) {
	body := map[string]any{"payment_request": paymentRequest}
	if amount > 0 {
		body["amt"] = strconv.FormatInt(amount, 10) // LND expects 'amt' in sats
	}
	raw, err := c.request(ctx, http.MethodPost, "/v1/channels/transactions", body)
	if err != nil {
		return nil, err
	}
	var res struct {
		PaymentError    string `json:"payment_error"`    // Non-empty on failed payments
		PaymentHash     string `json:"payment_hash"`     // Base64 payment hash
		PaymentPreimage string `json:"payment_preimage"` // Base64 preimage
		PaymentRoute    struct {
			TotalFees string `json:"total_fees"` // Routing fee, as a string
		} `json:"payment_route"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	// A 200 with a payment_error still means the payment failed
	if res.PaymentError != "" {
		return nil, fmt.Errorf("payment failed: %s", res.PaymentError)
	}
	payment := &Payment{}
	if decoded, err := base64.StdEncoding.DecodeString(res.PaymentHash); err == nil {
		payment.PaymentHash = hex.EncodeToString(decoded)
	}
	if decoded, err := base64.StdEncoding.DecodeString(res.PaymentPreimage); err == nil {
		payment.Preimage = hex.EncodeToString(decoded)
	}
	payment.FeeSats, _ = strconv.ParseInt(res.PaymentRoute.TotalFees, 10, 64)
	return payment, nil
}
