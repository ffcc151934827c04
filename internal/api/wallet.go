package api

import (
	"context"  // Context for external calls
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Email timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // UUID primary keys
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library

	"ganamos/internal/domain"    // Importing domain models
	"ganamos/internal/email"     // Transactional email
	"ganamos/internal/lightning" // LND client
)

// DepositRequest asks for a Lightning invoice to top up the balance
type DepositRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"` // Deposit amount in sats
	Memo   string `json:"memo"`                           // Optional invoice memo
}

// DepositHandler creates a Lightning invoice and a pending deposit
// transaction. The balance is credited once the invoice settles.
func DepositHandler(db *gorm.DB, ln *lightning.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DepositRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		memo := req.Memo // Invoice description
		if memo == "" {
			memo = "Ganamos deposit"
		}
		// Ask the node for an invoice
		invoice, err := ln.CreateInvoice(c.Request.Context(), req.Amount, memo)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"amount":  req.Amount,  // Requested amount
				"error":   err.Error(), // Error message
			}).Error("Failed to create invoice")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
			return
		}
		// Record the pending deposit
		t := domain.Transaction{
			ID:          uuid.NewString(),                // UUID primary key
			UserID:      userID.(string),                 // Caller profile
			Type:        domain.TransactionTypeDeposit,   // Lightning deposit
			Amount:      req.Amount,                      // Credit once settled
			Status:      domain.TransactionStatusPending, // Awaiting settlement
			Memo:        memo,                            // Display memo
			PaymentHash: invoice.RHash,                   // Settlement lookup key
		}
		if err := db.Create(&t).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"error":   err.Error(), // Error message
			}).Error("Failed to record deposit")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record deposit"})
			return
		}
		// Return the invoice for the client to pay and poll
		c.JSON(http.StatusOK, gin.H{
			"payment_request": invoice.PaymentRequest, // BOLT11 payment request
			"r_hash":          invoice.RHash,          // Payment hash for polling
			"transaction_id":  t.ID,                   // Pending transaction
		})
	}
}

// ConfirmDepositRequest identifies the invoice being confirmed
type ConfirmDepositRequest struct {
	RHash string `json:"r_hash" binding:"required"` // Payment hash must be provided
}

// ConfirmDepositHandler completes a pending deposit once its invoice has
// settled, crediting the balance exactly once
func ConfirmDepositHandler(db *gorm.DB, ln *lightning.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ConfirmDepositRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Find the caller's pending deposit for this hash
		var t domain.Transaction
		if err := db.Where("user_id = ? AND payment_hash = ? AND type = ?",
			userID, req.RHash, domain.TransactionTypeDeposit).
			First(&t).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Deposit not found"})
			return
		}
		// Already completed: idempotent success
		if t.Status == domain.TransactionStatusCompleted {
			c.JSON(http.StatusOK, gin.H{"settled": true, "message": "Deposit already completed"})
			return
		}
		// Ask the node whether the invoice settled
		status, err := ln.CheckInvoice(c.Request.Context(), req.RHash)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"r_hash": req.RHash,   // Which invoice failed
				"error":  err.Error(), // Error message
			}).Error("Failed to check invoice")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check invoice"})
			return
		}
		if !status.Settled {
			// Not paid yet; the client keeps polling
			c.JSON(http.StatusOK, gin.H{"settled": false})
			return
		}
		// Complete the deposit and credit the balance atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			// Guard against double-crediting: only a pending row completes
			res := tx.Model(&domain.Transaction{}).
				Where("id = ? AND status = ?", t.ID, domain.TransactionStatusPending).
				Update("status", domain.TransactionStatusCompleted)
			if res.Error != nil {
				return res.Error // Return error to rollback
			}
			if res.RowsAffected == 0 {
				return nil // Another request completed it first
			}
			// Credit the balance
			if err := tx.Model(&domain.Profile{}).
				Where("id = ?", userID).
				Update("balance", gorm.Expr("balance + ?", t.Amount)).Error; err != nil {
				return err // Return error to rollback
			}
			// Feed entry
			a := domain.Activity{
				ID:            uuid.NewString(),              // UUID primary key
				UserID:        t.UserID,                      // Caller profile
				Type:          domain.TransactionTypeDeposit, // Lightning deposit
				Amount:        t.Amount,                      // Credited amount
				Memo:          t.Memo,                        // Display memo
				TransactionID: &t.ID,                         // Related transaction
			}
			return tx.Create(&a).Error
		})
		// Handle transaction result
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"r_hash":  req.RHash,   // Which invoice failed
				"error":   err.Error(), // Error message
			}).Error("Deposit failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Deposit failed"})
			return
		}
		// Log successful deposit
		logrus.WithFields(logrus.Fields{
			"user_id": userID,   // Caller profile
			"amount":  t.Amount, // Credited amount
			"type":    "deposit",
		}).Info("Deposit completed")
		c.JSON(http.StatusOK, gin.H{"settled": true, "amount": t.Amount})
	}
}

// WithdrawRequest pays sats out of the balance over Lightning
type WithdrawRequest struct {
	PaymentRequest string `json:"payment_request" binding:"required"` // BOLT11 invoice to pay
	Amount         int64  `json:"amount" binding:"required,gt=0"`     // Withdrawal amount in sats
}

// WithdrawHandler debits the balance and pays the given invoice. A failed
// payment refunds the debit and marks the transaction failed.
func WithdrawHandler(db *gorm.DB, ln *lightning.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WithdrawRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		t := domain.Transaction{
			ID:     uuid.NewString(),                 // UUID primary key
			UserID: userID.(string),                  // Caller profile
			Type:   domain.TransactionTypeWithdrawal, // Lightning withdrawal
			Amount: -req.Amount,                      // Debit
			Status: domain.TransactionStatusPending,  // Until the payment clears
			Memo:   "Lightning withdrawal",           // Display memo
		}
		// Debit the balance and record the pending withdrawal atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			// Deduct, guarded against overdraft
			res := tx.Model(&domain.Profile{}).
				Where("id = ? AND balance >= ?", userID, req.Amount).
				Update("balance", gorm.Expr("balance - ?", req.Amount))
			if res.Error != nil {
				return res.Error // Return error to rollback
			}
			if res.RowsAffected == 0 {
				return gorm.ErrInvalidValue // Insufficient funds
			}
			return tx.Create(&t).Error
		})
		if err != nil {
			if err == gorm.ErrInvalidValue {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller profile
				"error":   err.Error(), // Error message
			}).Error("Withdrawal failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdrawal failed"})
			return
		}
		// Pay the invoice
		payment, payErr := ln.PayInvoice(c.Request.Context(), req.PaymentRequest, req.Amount)
		if payErr != nil {
			// Refund the debit and mark the withdrawal failed
			refundErr := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&domain.Profile{}).
					Where("id = ?", userID).
					Update("balance", gorm.Expr("balance + ?", req.Amount)).Error; err != nil {
					return err // Return error to rollback
				}
				return tx.Model(&domain.Transaction{}).
					Where("id = ?", t.ID).
					Update("status", domain.TransactionStatusFailed).Error
			})
			logrus.WithFields(logrus.Fields{
				"user_id":      userID,                // Caller profile
				"amount":       req.Amount,            // Attempted amount
				"error":        payErr.Error(),        // Payment error
				"refund_error": refundErr != nil,      // Whether the refund also failed
			}).Error("Withdrawal payment failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
			return
		}
		// Mark the withdrawal completed with its payment hash
		if err := db.Model(&domain.Transaction{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{
				"status":       domain.TransactionStatusCompleted, // Settled
				"payment_hash": payment.PaymentHash,               // Proof reference
			}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"transaction_id": t.ID,        // Which row failed
				"error":          err.Error(), // Error message
			}).Error("Failed to finalize withdrawal")
		}
		// Feed entry; best-effort
		a := domain.Activity{
			ID:            uuid.NewString(),                 // UUID primary key
			UserID:        t.UserID,                         // Caller profile
			Type:          domain.TransactionTypeWithdrawal, // Lightning withdrawal
			Amount:        -req.Amount,                      // Debited amount
			Memo:          t.Memo,                           // Display memo
			TransactionID: &t.ID,                            // Related transaction
		}
		if err := db.Create(&a).Error; err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to record withdrawal activity")
		}
		// Log successful withdrawal
		logrus.WithFields(logrus.Fields{
			"user_id": userID,     // Caller profile
			"amount":  req.Amount, // Paid amount
			"type":    "withdrawal",
		}).Info("Withdrawal completed")
		c.JSON(http.StatusOK, gin.H{
			"message":  "Withdrawal successful",
			"preimage": payment.Preimage, // Proof of payment
			"fee_sats": payment.FeeSats,  // Routing fee
		})
	}
}

// TransferRequest moves sats between two profiles
type TransferRequest struct {
	ToUsername string `json:"to_username" binding:"required"` // Target username
	Amount     int64  `json:"amount" binding:"required,gt=0"` // Transfer amount in sats
	Memo       string `json:"memo"`                           // Optional display memo
}

// TransferHandler moves sats from the caller to another profile. Both
// sides get a transaction and an activity with a structured counterparty
// reference; email notifications are best-effort.
func TransferHandler(db *gorm.DB, sender *email.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromUserID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req TransferRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var toProfile domain.Profile // Find target profile
		// Query by username, active accounts only
		if err := db.Where("username = ? AND status = ?", strings.ToLower(req.ToUsername), domain.ProfileStatusActive).
			First(&toProfile).Error; err != nil {
			// If profile not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
			return
		}
		// Prevent transferring to self
		if toProfile.ID == fromUserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot transfer to yourself"})
			return
		}
		fromID := fromUserID.(string)
		// Atomic transfer
		err := db.Transaction(func(tx *gorm.DB) error {
			// Deduct from sender, guarded against overdraft
			res := tx.Model(&domain.Profile{}).
				Where("id = ? AND balance >= ?", fromID, req.Amount).
				Update("balance", gorm.Expr("balance - ?", req.Amount))
			if res.Error != nil {
				return res.Error // Return error to rollback
			}
			if res.RowsAffected == 0 {
				return gorm.ErrInvalidValue // Insufficient funds
			}
			// Add to recipient
			if err := tx.Model(&domain.Profile{}).
				Where("id = ?", toProfile.ID).
				Update("balance", gorm.Expr("balance + ?", req.Amount)).Error; err != nil {
				return err // Return error to rollback
			}
			// One transaction row per side, signed
			out := domain.Transaction{
				ID:     uuid.NewString(),                  // UUID primary key
				UserID: fromID,                            // Sender
				Type:   domain.TransactionTypeTransfer,    // Internal transfer
				Amount: -req.Amount,                       // Debit
				Status: domain.TransactionStatusCompleted, // Settled immediately
				Memo:   req.Memo,                          // Display memo
			}
			in := domain.Transaction{
				ID:     uuid.NewString(),                  // UUID primary key
				UserID: toProfile.ID,                      // Recipient
				Type:   domain.TransactionTypeTransfer,    // Internal transfer
				Amount: req.Amount,                        // Credit
				Status: domain.TransactionStatusCompleted, // Settled immediately
				Memo:   req.Memo,                          // Display memo
			}
			if err := tx.Create(&out).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Create(&in).Error; err != nil {
				return err // Return error to rollback
			}
			// Feed entries carry the counterparty as a structured reference
			outActivity := domain.Activity{
				ID:                 uuid.NewString(),               // UUID primary key
				UserID:             fromID,                         // Sender
				Type:               domain.TransactionTypeTransfer, // Internal transfer
				Amount:             -req.Amount,                    // Debit
				Memo:               req.Memo,                       // Display memo
				CounterpartyUserID: &toProfile.ID,                  // Recipient
				TransactionID:      &out.ID,                        // Related transaction
			}
			inActivity := domain.Activity{
				ID:                 uuid.NewString(),               // UUID primary key
				UserID:             toProfile.ID,                   // Recipient
				Type:               domain.TransactionTypeTransfer, // Internal transfer
				Amount:             req.Amount,                     // Credit
				Memo:               req.Memo,                       // Display memo
				CounterpartyUserID: &outActivity.UserID,            // Sender
				TransactionID:      &in.ID,                         // Related transaction
			}
			if err := tx.Create(&outActivity).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Create(&inActivity).Error
		})
		// Handle transaction result
		if err != nil {
			if err == gorm.ErrInvalidValue {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
				return
			}
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"from_user_id": fromUserID,   // Sender profile
				"to_user_id":   toProfile.ID, // Recipient profile
				"amount":       req.Amount,   // Transfer amount
				"error":        err.Error(),  // Error message
			}).Error("Transfer failed")
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Transfer failed"})
			return
		}
		// Log successful transfer
		logrus.WithFields(logrus.Fields{
			"from_user_id": fromUserID,   // Sender profile
			"to_user_id":   toProfile.ID, // Recipient profile
			"amount":       req.Amount,   // Transfer amount
			"type":         "transfer",   // Transaction type
		}).Info("Transfer transaction")

		// Notify both sides by email; failures are logged and swallowed
		go notifyTransfer(db, sender, fromID, toProfile.ID, req.Amount, time.Now())

		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Transfer successful"})
	}
}

// notifyTransfer sends the sent/received emails for an internal transfer.
// Managed child addresses are skipped; nothing here reaches the caller.
func notifyTransfer(db *gorm.DB, sender *email.Sender, fromID, toID string, amount int64, date time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var from, to domain.Profile // Look up both sides
	if err := db.Select("id, name, email").Where("id = ?", fromID).First(&from).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Error sending transfer notifications")
		return
	}
	if err := db.Select("id, name, email").Where("id = ?", toID).First(&to).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Error sending transfer notifications")
		return
	}
	// Sender side, only for real inboxes
	if email.Deliverable(from.Email) {
		_ = sender.SendBitcoinSent(ctx, email.TransferParams{
			ToEmail:    from.Email, // Sender address
			UserName:   from.Name,  // Sender display name
			AmountSats: amount,     // Transferred amount
			OtherName:  to.Name,    // Recipient display name
			Date:       date,       // When the transfer happened
		})
	}
	// Receiver side, only for real inboxes
	if email.Deliverable(to.Email) {
		_ = sender.SendBitcoinReceived(ctx, email.TransferParams{
			ToEmail:    to.Email,  // Recipient address
			UserName:   to.Name,   // Recipient display name
			AmountSats: amount,    // Transferred amount
			OtherName:  from.Name, // Sender display name
			Date:       date,      // When the transfer happened
		})
	}
}
