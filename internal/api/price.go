package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"ganamos/internal/price" // Price service
)

// BitcoinPriceHandler returns the current BTC/USD price with staleness
// flags. The underlying service never fails, so neither does this.
func BitcoinPriceHandler(svc *price.Service, allowCORS bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Outside production the dev frontend runs on another origin
		if allowCORS {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		quote := svc.Current(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"price":    quote.Price,    // BTC price in USD
			"fresh":    quote.Fresh,    // Fetched within the freshness window
			"cached":   quote.Cached,   // Served from an expired cache
			"fallback": quote.Fallback, // Hardcoded last-resort price
			"error":    quote.Error,    // Fetch error, if any
		})
	}
}
