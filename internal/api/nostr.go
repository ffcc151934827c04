package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
	"ganamos/internal/nostr"  // Nostr publisher
)

// NostrPublishRequest identifies the post to mirror to the relays
type NostrPublishRequest struct {
	PostID string `json:"post_id" binding:"required"` // Post to publish
}

// PublishPostHandler mirrors an existing post to the Nostr relays.
// Internal-only; the public path publishes on post creation.
func PublishPostHandler(db *gorm.DB, publisher *nostr.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NostrPublishRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "post_id is required"})
			return
		}
		var post domain.Post // Find the post
		if err := db.Where("id = ?", req.PostID).First(&post).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		result, err := publisher.PublishPost(c.Request.Context(), nostr.PostParams{
			PostID:      post.ID,          // Post identifier
			Title:       post.Title,       // Short title
			Description: post.Description, // Full description
			City:        post.City,        // City name
			Latitude:    post.Latitude,    // Location latitude
			Longitude:   post.Longitude,   // Location longitude
			Reward:      post.Reward,      // Reward in sats
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"post_id": post.ID,     // Which post failed
				"error":   err.Error(), // Publish error
			}).Error("Failed to publish post to Nostr")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"event_id":         result.EventID,         // Signed event ID
			"relays_published": result.RelaysPublished, // How many relays accepted it
		})
	}
}

// SetupProfileHandler publishes the application's Nostr profile metadata
func SetupProfileHandler(publisher *nostr.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nostr.ProfileParams // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		result, err := publisher.SetupProfile(c.Request.Context(), req)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to publish Nostr profile")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"event_id":         result.EventID,         // Signed event ID
			"relays_published": result.RelaysPublished, // How many relays accepted it
		})
	}
}
