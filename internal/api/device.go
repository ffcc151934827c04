package api

import (
	"context"  // Context for price lookups
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Last-seen stamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // UUID primary keys
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
	"ganamos/internal/price"  // Market price lookups
)

// devicePollInterval is how often paired devices should poll for config
const devicePollInterval = 30 // seconds

// RegisterDeviceRequest is the pairing payload
type RegisterDeviceRequest struct {
	DeviceCode string `json:"device_code" binding:"required"` // 6-char pairing code
	PetName    string `json:"pet_name" binding:"required"`    // Display name of the pet
	PetType    string `json:"pet_type" binding:"required"`    // One of the allowed pet types
}

// RegisterDeviceHandler pairs a device to the authenticated profile via its
// pairing code. A code held by a paired device of another user conflicts;
// a code freed by unpairing is reusable.
func RegisterDeviceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req RegisterDeviceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
			return
		}
		code := strings.ToUpper(strings.TrimSpace(req.DeviceCode)) // Codes compare case-insensitively
		if len(code) != 6 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Pairing code must be 6 characters"})
			return
		}
		// Validate pet type
		if !domain.IsValidPetType(req.PetType) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid pet type"})
			return
		}
		// Check whether a currently-paired device already holds this code
		var existing domain.Device
		err := db.Where("pairing_code = ? AND status = ?", code, domain.DeviceStatusPaired).
			First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
			return
		}
		now := time.Now()
		if err == nil {
			// Paired to someone else: conflict
			if existing.UserID != userID {
				c.JSON(http.StatusConflict, gin.H{
					"success": false,
					"error":   "This device is already connected to another user",
				})
				return
			}
			// Paired to the caller: reconnect with the new metadata
			if err := db.Model(&existing).Updates(map[string]any{
				"pet_name":     req.PetName,               // New display name
				"pet_type":     req.PetType,               // New pet type
				"status":       domain.DeviceStatusPaired, // Stay paired
				"last_seen_at": &now,                      // Touch last seen
			}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update device"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"success":   true,
				"message":   req.PetName + " has been reconnected!",
				"device_id": existing.ID,
			})
			return
		}
		// Create a new paired device
		device := domain.Device{
			ID:          uuid.NewString(),          // UUID primary key
			UserID:      userID.(string),           // Owning profile
			PairingCode: code,                      // Uppercased pairing code
			PetName:     req.PetName,               // Display name
			PetType:     req.PetType,               // Pet type
			Status:      domain.DeviceStatusPaired, // Paired immediately
			LastSeenAt:  &now,                      // Touch last seen
		}
		if err := db.Create(&device).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"error":   err.Error(), // Error message
			}).Error("Failed to register device")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to register device"})
			return
		}
		// Log successful pairing
		logrus.WithFields(logrus.Fields{
			"device_id": device.ID, // New device
			"user_id":   userID,    // Owning profile
		}).Info("Device paired")
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   req.PetName + " has been connected successfully!",
			"device_id": device.ID,
		})
	}
}

// ListDevicesHandler returns the caller's paired devices, newest first.
// A primary account may also view a connected child account's devices.
func ListDevicesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		// Viewing a child account's devices requires a connection
		activeUserID := c.DefaultQuery("active_user_id", userID.(string))
		if activeUserID != userID {
			var connection domain.ConnectedAccount
			if err := db.Where("primary_user_id = ? AND connected_user_id = ?", userID, activeUserID).
				First(&connection).Error; err != nil {
				c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Unauthorized to view this account's devices"})
				return
			}
		}
		var devices []domain.Device // Slice to hold devices
		// Paired devices only, most recent first
		if err := db.Where("user_id = ? AND status = ?", activeUserID, domain.DeviceStatusPaired).
			Order("created_at desc").
			Find(&devices).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch devices"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "devices": devices})
	}
}

// UpdateDeviceRequest is the rename/retype payload
type UpdateDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required"` // Device must be provided
	PetName  string `json:"pet_name" binding:"required"`  // New display name
	PetType  string `json:"pet_type" binding:"required"`  // New pet type
}

// UpdateDeviceHandler updates the pet metadata on a device the caller
// owns. The record is resolved first and its owner compared to the caller;
// a mismatch is indistinguishable from a missing device.
func UpdateDeviceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req UpdateDeviceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
			return
		}
		// Validate pet type
		if !domain.IsValidPetType(req.PetType) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid pet type"})
			return
		}
		// Resolve the device, then check ownership explicitly
		var device domain.Device
		if err := db.Where("id = ?", req.DeviceID).First(&device).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Device not found"})
			return
		}
		if device.UserID != userID {
			// Same answer as a missing device: never leak existence
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Device not found"})
			return
		}
		// Apply the update
		if err := db.Model(&device).Updates(map[string]any{
			"pet_name": strings.TrimSpace(req.PetName), // New display name
			"pet_type": req.PetType,                    // New pet type
		}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"device_id": req.DeviceID, // Which device failed
				"error":     err.Error(),  // Error message
			}).Error("Failed to update device")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update device"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "device": device, "message": "Pet settings updated successfully"})
	}
}

// RemoveDeviceRequest identifies the device to unpair
type RemoveDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required"` // Device must be provided
}

// RemoveDeviceHandler unpairs a device the caller owns, freeing its
// pairing code. Ownership mismatches look identical to a missing device.
func RemoveDeviceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		var req RemoveDeviceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Device ID is required"})
			return
		}
		// Resolve the device, then check ownership explicitly
		var device domain.Device
		if err := db.Where("id = ?", req.DeviceID).First(&device).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Device not found"})
			return
		}
		if device.UserID != userID {
			// Same answer as a missing device: never leak existence
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Device not found"})
			return
		}
		// Delete the record, freeing the pairing code
		if err := db.Delete(&device).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"device_id": req.DeviceID, // Which device failed
				"error":     err.Error(),  // Error message
			}).Error("Failed to remove device")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to remove device"})
			return
		}
		// Log the unpairing
		logrus.WithFields(logrus.Fields{
			"device_id": device.ID, // Removed device
			"user_id":   userID,    // Owning profile
		}).Info("Device unpaired")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Device unpaired successfully"})
	}
}

// DeviceConfigHandler is the unauthenticated device-facing endpoint: it
// resolves a paired device by id or pairing code, attaches the owner's
// name and balance plus a best-effort price quote, and stamps last-seen.
func DeviceConfigHandler(db *gorm.DB, priceService *price.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.Query("device_id")      // Device identifier, if known
		pairingCode := c.Query("pairing_code") // Pairing code fallback
		// Require either a device id or a pairing code
		if deviceID == "" && pairingCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "device_id or pairing_code is required"})
			return
		}
		// Find the paired device
		query := db.Where("status = ?", domain.DeviceStatusPaired)
		if deviceID != "" {
			query = query.Where("id = ?", deviceID)
		} else {
			query = query.Where("pairing_code = ?", strings.ToUpper(pairingCode))
		}
		var device domain.Device
		if err := query.First(&device).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Device not found or not paired"})
			return
		}
		// Fetch the owner's profile
		var profile domain.Profile
		if err := db.Select("id, name, balance").Where("id = ?", device.UserID).First(&profile).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User profile not found"})
			return
		}
		// Stamp last seen; a failure here never fails the request
		now := time.Now()
		if err := db.Model(&device).Update("last_seen_at", &now).Error; err != nil {
			logrus.WithField("device_id", device.ID).Warn("Failed to stamp device last seen")
		}
		// Best-effort price quote from the stored observations
		var btcPrice any
		if p, ok := priceService.Latest(context.Background()); ok {
			btcPrice = p
		}
		userName := profile.Name // Owner display name
		if userName == "" {
			userName = "User"
		}
		// Return the device configuration and owner snapshot
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"config": gin.H{
				"device_id":     device.ID,          // Device identifier
				"pet_name":      device.PetName,     // Display name of the pet
				"pet_type":      device.PetType,     // Pet type
				"user_id":       device.UserID,      // Owning profile
				"user_name":     userName,           // Owner display name
				"balance":       profile.Balance,    // Owner balance in sats
				"btc_price":     btcPrice,           // Best-effort quote, null if unknown
				"poll_interval": devicePollInterval, // Seconds between polls
			},
		})
	}
}
