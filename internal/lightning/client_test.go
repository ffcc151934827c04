package lightning

import (
	"context"           // Request contexts
	"encoding/base64"   // LND wire encoding
	"encoding/hex"      // API-side hash encoding
	"net/http"          // Status codes
	"net/http/httptest" // Fake LND server
	"strings"           // Path checks
	"testing"           // Testing package

	"github.com/stretchr/testify/assert"  // Assertion library
	"github.com/stretchr/testify/require" // Hard assertions
)

// testHash is a 32-byte payment hash in both encodings
var (
	testHashHex    = strings.Repeat("01", 32)
	testHashBase64 = base64.StdEncoding.EncodeToString(mustHex(strings.Repeat("01", 32)))
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// TestNewClientNormalizesURL checks protocol and trailing-slash handling
func TestNewClientNormalizesURL(t *testing.T) {
	assert.Equal(t, "https://node.example:8080", NewClient("node.example:8080", "mac").baseURL)
	assert.Equal(t, "https://node.example:8080", NewClient("https://node.example:8080/", "mac").baseURL)
	assert.Equal(t, "http://node.example:8080", NewClient("http://node.example:8080", "mac").baseURL)
}

// TestConfigured checks the configuration guard
func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", "").Configured())
	assert.False(t, NewClient("node.example", "").Configured())
	assert.True(t, NewClient("node.example", "abc").Configured())

	_, err := NewClient("", "").CreateInvoice(context.Background(), 100, "memo")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// TestCreateInvoice checks the invoice request and hash normalization
func TestCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Equal(t, "hexmacaroon", r.Header.Get("Grpc-Metadata-macaroon"))
		// LND answers with a base64 hash only
		w.Write([]byte(`{"payment_request":"lnbc1500n1...","r_hash":"` + testHashBase64 + `","add_index":"42"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	inv, err := c.CreateInvoice(context.Background(), 1500, "deposit")
	require.NoError(t, err)
	assert.Equal(t, "lnbc1500n1...", inv.PaymentRequest)
	assert.Equal(t, testHashHex, inv.RHash) // Converted to hex
	assert.Equal(t, "42", inv.AddIndex)
}

// TestCheckInvoiceSettled checks hash conversion and preimage exposure
func TestCheckInvoiceSettled(t *testing.T) {
	preimage := strings.Repeat("02", 32)
	preimageB64 := base64.StdEncoding.EncodeToString(mustHex(preimage))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		// The hex hash must arrive base64-encoded on the lookup path
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1/invoice/"))
		assert.Equal(t, testHashBase64, strings.TrimPrefix(r.URL.Path, "/v1/invoice/"))
		w.Write([]byte(`{"settled":true,"r_preimage":"` + preimageB64 + `","amt_paid_sat":"1500","state":"SETTLED"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	status, err := c.CheckInvoice(context.Background(), testHashHex)
	require.NoError(t, err)
	assert.True(t, status.Settled)
	assert.Equal(t, preimage, status.Preimage) // Converted to hex
	assert.Equal(t, int64(1500), status.AmountPaid)
	assert.Equal(t, "SETTLED", status.State)
}

// TestCheckInvoiceUnsettledHidesPreimage checks that an open invoice never
// leaks its preimage
func TestCheckInvoiceUnsettledHidesPreimage(t *testing.T) {
	preimageB64 := base64.StdEncoding.EncodeToString(mustHex(strings.Repeat("02", 32)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"settled":false,"r_preimage":"` + preimageB64 + `","amt_paid_sat":"0","state":"OPEN"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	status, err := c.CheckInvoice(context.Background(), testHashHex)
	require.NoError(t, err)
	assert.False(t, status.Settled)
	assert.Empty(t, status.Preimage)
}

// TestPayInvoice checks a successful payment
func TestPayInvoice(t *testing.T) {
	preimage := strings.Repeat("03", 32)
	preimageB64 := base64.StdEncoding.EncodeToString(mustHex(preimage))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/channels/transactions", r.URL.Path)
		w.Write([]byte(`{"payment_error":"","payment_hash":"` + testHashBase64 + `","payment_preimage":"` + preimageB64 + `","payment_route":{"total_fees":"3"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	payment, err := c.PayInvoice(context.Background(), "lnbc1500n1...", 0)
	require.NoError(t, err)
	assert.Equal(t, testHashHex, payment.PaymentHash)
	assert.Equal(t, preimage, payment.Preimage)
	assert.Equal(t, int64(3), payment.FeeSats)
}

// TestPayInvoicePaymentError checks that a 200 carrying payment_error fails
func TestPayInvoicePaymentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payment_error":"no route to destination"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	_, err := c.PayInvoice(context.Background(), "lnbc1500n1...", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route to destination")
}

// TestNon2xxStatus checks the error path for LND failures
func TestNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"wallet locked"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hexmacaroon")
	_, err := c.CreateInvoice(context.Background(), 100, "memo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LND API error")
}
