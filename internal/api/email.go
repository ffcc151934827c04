package api

import (
	"net/http" // HTTP status codes
	"time"     // Notification timestamps

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library

	"ganamos/internal/email" // Transactional email
)

// TransferNotificationRequest describes a completed transfer to announce
type TransferNotificationRequest struct {
	FromUserID string `json:"from_user_id" binding:"required"` // Sender profile
	ToUserID   string `json:"to_user_id" binding:"required"`   // Recipient profile
	Amount     int64  `json:"amount" binding:"required,gt=0"`  // Transferred sats
}

// TransferNotificationHandler sends the sent/received emails for an
// internal transfer. Internal-only; delivery failures are logged, not
// surfaced, so callers always get a success answer for a valid request.
func TransferNotificationHandler(db *gorm.DB, sender *email.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferNotificationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		notifyTransfer(db, sender, req.FromUserID, req.ToUserID, req.Amount, time.Now())
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
