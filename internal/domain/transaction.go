package domain

import "time"

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"    // Lightning deposit into the balance
	TransactionTypeWithdrawal = "withdrawal" // Lightning withdrawal out of the balance
	TransactionTypeTransfer   = "transfer"   // Internal transfer between profiles
	TransactionTypeReward     = "reward"     // Reward credited for fixing a post
	TransactionTypePostFunding = "post_funding" // Reward escrowed when creating a post
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"   // Awaiting settlement
	TransactionStatusCompleted = "completed" // Settled and reflected in the balance
	TransactionStatusFailed    = "failed"    // Never settled
)

// Transaction Model
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`    // UUID primary key
	UserID      string    `gorm:"size:36;index" json:"user_id"`    // Owning profile
	Type        string    `gorm:"not null" json:"type"`            // deposit, withdrawal, transfer, reward
	Amount      int64     `gorm:"not null" json:"amount"`          // Signed amount in sats
	Status      string    `gorm:"not null" json:"status"`          // pending, completed, failed
	Memo        string    `json:"memo"`                            // Free-text memo
	PaymentHash string    `gorm:"index" json:"payment_hash"`       // Lightning payment hash, if any
	CreatedAt   time.Time `json:"created_at"`                      // Creation timestamp
	UpdatedAt   time.Time `json:"updated_at"`                      // Last update timestamp
}
