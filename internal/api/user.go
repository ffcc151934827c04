package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
)

// GetBalanceHandler returns the authenticated profile's balance in sats
func GetBalanceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authenticated"})
			return
		}
		var profile domain.Profile // Fetch the profile
		if err := db.Select("balance").Where("id = ?", userID).First(&profile).Error; err != nil {
			// If the profile is missing, report a generic failure
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch balance"})
			return
		}
		// Return the balance
		c.JSON(http.StatusOK, gin.H{"success": true, "balance": profile.Balance})
	}
}
