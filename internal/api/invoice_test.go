package api

import (
	"encoding/json"     // Response decoding
	"net/http"          // Status codes
	"net/http/httptest" // Fake LND server and recorders
	"testing"           // Testing package

	"github.com/gin-gonic/gin"            // Gin web framework
	"github.com/stretchr/testify/assert"  // Assertion library
	"github.com/stretchr/testify/require" // Hard assertions

	"ganamos/internal/lightning" // LND client
)

// newInvoiceRouter wires the status endpoint against the given node URL
func newInvoiceRouter(nodeURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ln := lightning.NewClient(nodeURL, "hexmacaroon")
	r.GET("/api/invoice-status", InvoiceStatusHandler(ln))
	return r
}

func getStatus(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

// TestInvoiceStatusMissingHash checks the one rejected input
func TestInvoiceStatusMissingHash(t *testing.T) {
	r := newInvoiceRouter("http://node.invalid")

	code, resp := getStatus(t, r, "/api/invoice-status")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, resp["success"])
}

// TestInvoiceStatusSettled checks the settled envelope
func TestInvoiceStatusSettled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"settled":true,"amt_paid_sat":"2500","state":"SETTLED"}`))
	}))
	defer srv.Close()
	r := newInvoiceRouter(srv.URL)

	code, resp := getStatus(t, r, "/api/invoice-status?r_hash=abc123")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["settled"])
	assert.Equal(t, "abc123", resp["r_hash"])
	assert.Equal(t, float64(2500), resp["amount_paid"])
}

// TestInvoiceStatusLookupErrorStays200 checks that node failures ride
// inside the envelope instead of becoming a 5xx
func TestInvoiceStatusLookupErrorStays200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	r := newInvoiceRouter(srv.URL)

	code, resp := getStatus(t, r, "/api/invoice-status?r_hash=abc123")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, false, resp["settled"])
	assert.NotEmpty(t, resp["error"])
}

// TestInvoiceStatusUnconfiguredStays200 checks the missing-node answer
func TestInvoiceStatusUnconfiguredStays200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/invoice-status", InvoiceStatusHandler(lightning.NewClient("", "")))

	code, resp := getStatus(t, r, "/api/invoice-status?r_hash=abc123")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, false, resp["settled"])
}
