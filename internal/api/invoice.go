package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"ganamos/internal/lightning" // LND client
)

// InvoiceStatusHandler reports whether a Lightning invoice has settled.
// It is polled by payment screens and paired devices, so it always
// answers HTTP 200 with an envelope; errors ride inside the body.
func InvoiceStatusHandler(ln *lightning.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		rHash := c.Query("r_hash") // Payment hash, hex-encoded
		if rHash == "" {
			// The only non-200 answer: the caller forgot the hash entirely
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "r_hash is required"})
			return
		}
		if !ln.Configured() {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"settled": false,
				"r_hash":  rHash,
				"error":   "Lightning node not configured",
			})
			return
		}
		status, err := ln.CheckInvoice(c.Request.Context(), rHash)
		if err != nil {
			// Pollers retry on their own schedule; never make them handle a 5xx
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"settled": false,
				"r_hash":  rHash,
				"error":   err.Error(),
			})
			return
		}
		resp := gin.H{
			"success": true,           // Lookup worked
			"settled": status.Settled, // Whether the invoice was paid
			"r_hash":  rHash,          // Echoed for correlation
			"state":   status.State,   // LND invoice state
		}
		// The preimage is proof of payment; only expose it once settled
		if status.Settled {
			resp["preimage"] = status.Preimage
			resp["amount_paid"] = status.AmountPaid
		}
		c.JSON(http.StatusOK, resp)
	}
}
