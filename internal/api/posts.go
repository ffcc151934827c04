package api

import (
	"context"  // Context for cache and Nostr operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Date filters

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // UUID primary keys
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Ordering expressions

	"ganamos/internal/dashcache" // Session-scoped listing cache
	"ganamos/internal/domain"    // Importing domain models
	"ganamos/internal/nostr"     // Relay publishing
)

// filtersFromQuery builds the listing filter set from query parameters
func filtersFromQuery(c *gin.Context) *dashcache.Filters {
	f := &dashcache.Filters{
		DateFilter:  c.Query("date_filter"), // today, week or month
		Location:    c.Query("city"),        // City filter
		SearchQuery: c.Query("search"),      // Free-text search
		SortBy:      c.DefaultQuery("sort", "recency"),
	}
	if v, err := strconv.ParseInt(c.Query("reward_min"), 10, 64); err == nil {
		f.RewardMin = v // Lower reward bound
	}
	if v, err := strconv.ParseInt(c.Query("reward_max"), 10, 64); err == nil {
		f.RewardMax = v // Upper reward bound
	}
	// Viewer location, needed by the proximity sort
	if v, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
		f.Latitude = v
	}
	if v, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
		f.Longitude = v
	}
	return f
}

// filtersEqual reports whether two filter sets match
func filtersEqual(a, b *dashcache.Filters) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ListPostsHandler returns the paginated, filtered dashboard listing. A
// fresh session-scoped snapshot with matching page and filters is served
// without touching the database.
func ListPostsHandler(db *gorm.DB, cache *dashcache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		sessionID := userID.(string) // Cache scope: never shared across sessions
		ctx := context.Background()  // Context for cache operations

		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		filters := filtersFromQuery(c) // Requested filter set

		// An explicit refresh resets the snapshot
		if c.Query("refresh") == "true" {
			cache.Clear(ctx, sessionID)
		}

		// Serve the snapshot when it is fresh and matches the request
		snap := cache.Read(ctx, sessionID)
		if cache.IsFresh(snap) && snap.CurrentPage == page && filtersEqual(snap.Filters, filters) {
			c.JSON(http.StatusOK, gin.H{
				"posts":    snap.Posts,   // Cached posts
				"page":     snap.CurrentPage,
				"has_more": snap.HasMore, // Whether more pages exist
				"cached":   true,         // Served from the session cache
			})
			return
		}

		offset := (page - 1) * pageSize    // Calculate offset
		query := db.Model(&domain.Post{}). // Start building the query
							Where("fixed = ?", false) // Dashboard shows open issues
		if filters.Location != "" {
			query = query.Where("city = ?", filters.Location) // Filter by city
		}
		if filters.SearchQuery != "" {
			like := "%" + filters.SearchQuery + "%"
			query = query.Where("title LIKE ? OR description LIKE ?", like, like) // Free-text search
		}
		if filters.RewardMin > 0 {
			query = query.Where("reward >= ?", filters.RewardMin) // Lower reward bound
		}
		if filters.RewardMax > 0 {
			query = query.Where("reward <= ?", filters.RewardMax) // Upper reward bound
		}
		// Date range filter
		switch filters.DateFilter {
		case "today":
			query = query.Where("created_at >= ?", time.Now().Add(-24*time.Hour))
		case "week":
			query = query.Where("created_at >= ?", time.Now().AddDate(0, 0, -7))
		case "month":
			query = query.Where("created_at >= ?", time.Now().AddDate(0, -1, 0))
		}
		var total int64 // Total count for the has-more flag
		if err := query.Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
			return
		}
		listing := query.Offset(offset).Limit(pageSize) // Paginated page query
		// Sort order; recency is the default
		switch {
		case filters.SortBy == "proximity" && (filters.Latitude != 0 || filters.Longitude != 0):
			// Nearest first by squared coordinate distance; exact geodesic
			// distance does not change the ordering at city scale
			listing = listing.Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:  "POW(latitude - ?, 2) + POW(longitude - ?, 2)",
				Vars: []any{filters.Latitude, filters.Longitude},
			}})
		case filters.SortBy == "reward":
			listing = listing.Order("reward desc, created_at desc")
		default:
			listing = listing.Order("created_at desc")
		}
		var posts []domain.Post // Slice to hold posts
		// Fetch the paginated page
		if err := listing.Find(&posts).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
			return
		}
		hasMore := int64(offset+len(posts)) < total // More pages available

		// Replace the session snapshot; failures degrade silently
		cache.Write(ctx, sessionID, posts, page, hasMore, filters)

		c.JSON(http.StatusOK, gin.H{
			"posts":    posts,   // Fetched posts
			"page":     page,    // Current page
			"has_more": hasMore, // Whether more pages exist
			"cached":   false,   // Not from cache
		})
	}
}

// CreatePostRequest is the new-issue payload
type CreatePostRequest struct {
	Title       string  `json:"title" binding:"required"`       // Title must be provided
	Description string  `json:"description" binding:"required"` // Description must be provided
	Latitude    float64 `json:"latitude"`                       // Location latitude
	Longitude   float64 `json:"longitude"`                      // Location longitude
	City        string  `json:"city"`                           // City name
	Reward      int64   `json:"reward"`                         // Reward in sats, escrowed from the creator
	ImageURL    string  `json:"image_url"`                      // Optional image link
}

// CreatePostHandler creates a post, escrows the reward from the creator's
// balance and mirrors the issue to Nostr on a best-effort basis
func CreatePostHandler(db *gorm.DB, publisher *nostr.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreatePostRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Reward < 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		post := domain.Post{
			ID:          uuid.NewString(),  // UUID primary key
			Title:       req.Title,         // Short title
			Description: req.Description,   // Full description
			Latitude:    req.Latitude,      // Location latitude
			Longitude:   req.Longitude,     // Location longitude
			City:        req.City,          // City name
			Reward:      req.Reward,        // Reward in sats
			CreatedBy:   userID.(string),   // Creator profile
		}
		// Escrow the reward and create the post atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if req.Reward > 0 {
				// Deduct from the creator, guarded against overdraft
				res := tx.Model(&domain.Profile{}).
					Where("id = ? AND balance >= ?", userID, req.Reward).
					Update("balance", gorm.Expr("balance - ?", req.Reward))
				if res.Error != nil {
					return res.Error // Return error to rollback
				}
				if res.RowsAffected == 0 {
					return gorm.ErrInvalidValue // Insufficient funds
				}
				// Record the escrow
				t := domain.Transaction{
					ID:     uuid.NewString(),                  // UUID primary key
					UserID: userID.(string),                   // Creator profile
					Type:   domain.TransactionTypePostFunding, // Escrowed post reward
					Amount: -req.Reward,                       // Debit
					Status: domain.TransactionStatusCompleted, // Settled immediately
					Memo:   "Reward for: " + req.Title,        // Display memo
				}
				if err := tx.Create(&t).Error; err != nil {
					return err // Return error to rollback
				}
			}
			// Save the post
			if err := tx.Create(&post).Error; err != nil {
				return err // Return error to rollback
			}
			return nil // Commit transaction
		})
		// Handle transaction result
		if err != nil {
			if err == gorm.ErrInvalidValue {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
				return
			}
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Creator profile
				"error":   err.Error(), // Error message
			}).Error("Failed to create post")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
			return
		}
		// Log successful creation
		logrus.WithFields(logrus.Fields{
			"post_id": post.ID,    // New post ID
			"user_id": userID,     // Creator profile
			"reward":  req.Reward, // Escrowed reward
		}).Info("Post created")

		// Mirror to Nostr; failure never affects the response
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			_, err := publisher.PublishPost(ctx, nostr.PostParams{
				PostID:      post.ID,          // Post identifier
				Title:       post.Title,       // Short title
				Description: post.Description, // Full description
				City:        post.City,        // City name
				Latitude:    post.Latitude,    // Location latitude
				Longitude:   post.Longitude,   // Location longitude
				Reward:      post.Reward,      // Reward in sats
				ImageURL:    req.ImageURL,     // Optional image link
			})
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"post_id": post.ID,     // Which post failed to mirror
					"error":   err.Error(), // Publish error
				}).Warn("Failed to publish post to Nostr")
			}
		}()

		// Return the new post
		c.JSON(http.StatusCreated, gin.H{"message": "Post created", "post": post})
	}
}

// FixRequest identifies the post being fixed or verified
type FixRequest struct {
	PostID string `json:"post_id" binding:"required"` // Post must be provided
}

// SubmitFixHandler lets a user claim they fixed an open post, moving it
// under review until the creator verifies
func SubmitFixHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req FixRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var post domain.Post // Resolve the post first
		if err := db.Where("id = ?", req.PostID).First(&post).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		// Only open posts can be claimed
		if post.Fixed || post.UnderReview {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Post is not open"})
			return
		}
		// Creators cannot claim their own reward
		if post.CreatedBy == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot fix your own post"})
			return
		}
		fixer := userID.(string)
		// Move the post under review with the claimer recorded
		if err := db.Model(&post).Updates(map[string]any{
			"under_review": true,   // Awaiting creator verification
			"fixed_by":     &fixer, // Who claims the fix
		}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"post_id": req.PostID,  // Which post failed
				"error":   err.Error(), // Error message
			}).Error("Failed to submit fix")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit fix"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Fix submitted for review"})
	}
}

// VerifyFixHandler lets the post creator accept a claimed fix, marking the
// post fixed and crediting the reward to the fixer atomically
func VerifyFixHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req FixRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var post domain.Post // Resolve the post first
		if err := db.Where("id = ?", req.PostID).First(&post).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		// Explicit ownership check: only the creator verifies, and a
		// mismatch looks identical to a missing post
		if post.CreatedBy != userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		// Only posts under review with a recorded claimer can be verified
		if post.Fixed || !post.UnderReview || post.FixedBy == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Post is not under review"})
			return
		}
		fixerID := *post.FixedBy // Who gets the reward
		creator := userID.(string)
		// Mark fixed and pay the reward atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			// A fixed post is immutable afterwards
			if err := tx.Model(&post).Updates(map[string]any{
				"fixed":        true,  // Issue resolved
				"under_review": false, // Review finished
			}).Error; err != nil {
				return err // Return error to rollback
			}
			if post.Reward > 0 {
				// Credit the fixer
				if err := tx.Model(&domain.Profile{}).
					Where("id = ?", fixerID).
					Update("balance", gorm.Expr("balance + ?", post.Reward)).Error; err != nil {
					return err // Return error to rollback
				}
				// Record the reward payout
				t := domain.Transaction{
					ID:     uuid.NewString(),                  // UUID primary key
					UserID: fixerID,                           // Fixer profile
					Type:   domain.TransactionTypeReward,      // Reward payout
					Amount: post.Reward,                       // Credit
					Status: domain.TransactionStatusCompleted, // Settled immediately
					Memo:   "Reward for fixing: " + post.Title,
				}
				if err := tx.Create(&t).Error; err != nil {
					return err // Return error to rollback
				}
				// Feed entry with a structured counterparty reference
				a := domain.Activity{
					ID:                 uuid.NewString(),             // UUID primary key
					UserID:             fixerID,                      // Fixer profile
					Type:               domain.TransactionTypeReward, // Reward payout
					Amount:             post.Reward,                  // Credit
					Memo:               t.Memo,                       // Display memo
					CounterpartyUserID: &creator,                     // Post creator
					TransactionID:      &t.ID,                        // Related transaction
					PostID:             &post.ID,                     // Related post
				}
				if err := tx.Create(&a).Error; err != nil {
					return err // Return error to rollback
				}
			}
			return nil // Commit transaction
		})
		// Handle transaction result
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"post_id": post.ID,     // Which post failed
				"fixer":   fixerID,     // Intended payee
				"error":   err.Error(), // Error message
			}).Error("Failed to verify fix")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify fix"})
			return
		}
		// Log successful payout
		logrus.WithFields(logrus.Fields{
			"post_id": post.ID,     // Fixed post
			"fixer":   fixerID,     // Rewarded profile
			"reward":  post.Reward, // Paid amount
		}).Info("Fix verified")
		c.JSON(http.StatusOK, gin.H{"message": "Fix verified", "reward": post.Reward})
	}
}
