package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"ganamos/internal/summary" // Daily digest service
)

// DailySummaryHandler builds and emails the last-24h activity digest.
// Internal-only; the scheduler calls the service directly, this endpoint
// exists for manual triggering.
func DailySummaryHandler(svc *summary.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, stats, err := svc.Run(c.Request.Context())
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to send daily summary")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send daily summary"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message_id": id,    // Provider message ID
			"stats":      stats, // What the digest reported
		})
	}
}
