package api

import (
	"net/http" // HTTP status codes
	"strings"  // Internal address check
	"time"     // Soft-delete timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // UUID primary keys
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
)

// CreateChildAccountRequest is the managed child profile payload
type CreateChildAccountRequest struct {
	Name string `json:"name" binding:"required"` // Display name must be provided
}

// CreateChildAccountHandler creates a managed child profile linked to the
// caller. The child gets an internal address that never receives email and
// a throwaway password; it is only ever used through the parent's session.
func CreateChildAccountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateChildAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		childID := uuid.NewString() // Child profile ID, also part of the internal address
		// A random password; child accounts never log in directly
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create child account"})
			return
		}
		child := domain.Profile{
			ID:       childID,                            // UUID primary key
			Name:     strings.TrimSpace(req.Name),        // Display name
			Email:    "child-" + childID + "@ganamos.app", // Internal address, never mailed
			Password: string(hash),                       // Unusable random password
			Status:   domain.ProfileStatusActive,         // Active immediately
		}
		link := domain.ConnectedAccount{
			ID:              uuid.NewString(), // UUID primary key
			PrimaryUserID:   userID.(string),  // Parent profile
			ConnectedUserID: childID,          // Child profile
		}
		// Create the profile and the parent link atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&child).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Create(&link).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"error":   err.Error(), // Error message
			}).Error("Failed to create child account")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create child account"})
			return
		}
		// Log the creation
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,  // Parent profile
			"child_id": childID, // New child profile
		}).Info("Child account created")
		c.JSON(http.StatusCreated, gin.H{
			"message": "Child account created successfully",
			"profile": child, // Password is never serialized
		})
	}
}

// ConnectedAccountRequest names the linked profile being acted on
type ConnectedAccountRequest struct {
	ConnectedUserID string `json:"connected_user_id" binding:"required"` // Linked profile
}

// DisconnectAccountHandler removes a parent-child link owned by the caller.
// The child profile itself is untouched.
func DisconnectAccountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ConnectedAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "connected_user_id is required"})
			return
		}
		// Only delete a link the caller owns; anything else looks like not-found
		res := db.Where("primary_user_id = ? AND connected_user_id = ?", userID, req.ConnectedUserID).
			Delete(&domain.ConnectedAccount{})
		if res.Error != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,            // Caller profile
				"error":   res.Error.Error(), // Error message
			}).Error("Failed to disconnect account")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect account"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connected account not found"})
			return
		}
		// Log the disconnect
		logrus.WithFields(logrus.Fields{
			"user_id":           userID,              // Caller profile
			"connected_user_id": req.ConnectedUserID, // Unlinked profile
		}).Info("Account disconnected")
		c.JSON(http.StatusOK, gin.H{"message": "Account disconnected"})
	}
}

// DeleteChildAccountHandler soft-deletes a managed child profile. The
// caller must hold the parent link and the child must carry an internal
// address; real accounts are never deletable this way.
func DeleteChildAccountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ConnectedAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "connected_user_id is required"})
			return
		}
		// The caller must actually be linked to this child
		var link domain.ConnectedAccount
		if err := db.Where("primary_user_id = ? AND connected_user_id = ?", userID, req.ConnectedUserID).
			First(&link).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connected account not found"})
			return
		}
		// Only managed child profiles may be deleted by a parent
		var child domain.Profile
		if err := db.Where("id = ?", req.ConnectedUserID).First(&child).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connected account not found"})
			return
		}
		if !strings.Contains(child.Email, "@ganamos.app") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only child accounts can be deleted"})
			return
		}
		deleterID := userID.(string)
		now := time.Now()
		// Soft-delete the profile and drop the link atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.Profile{}).
				Where("id = ?", child.ID).
				Updates(map[string]any{
					"status":     domain.ProfileStatusDeleted, // Hidden from login and lookups
					"deleted_at": now,                         // When
					"deleted_by": deleterID,                   // Who
				}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&link).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":  userID,      // Caller profile
				"child_id": child.ID,    // Child profile
				"error":    err.Error(), // Error message
			}).Error("Failed to delete child account")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete child account"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,   // Caller profile
			"child_id": child.ID, // Child profile
		}).Info("Child account deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Child account deleted"})
	}
}
