package domain

import "time"

// Activity Model: a denormalized per-user feed entry. The counterparty is a
// structured reference, never derived from the memo text.
type Activity struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`               // UUID primary key
	UserID             string    `gorm:"size:36;index" json:"user_id"`               // Owning profile
	Type               string    `gorm:"not null" json:"type"`                       // Mirrors the transaction type
	Amount             int64     `json:"amount"`                                     // Copied amount in sats
	Memo               string    `json:"memo"`                                       // Copied memo for display
	CounterpartyUserID *string   `gorm:"size:36" json:"counterparty_user_id"`        // Other side of a transfer
	TransactionID      *string   `gorm:"size:36" json:"transaction_id,omitempty"`    // Related transaction
	PostID             *string   `gorm:"size:36" json:"post_id,omitempty"`           // Related post
	CreatedAt          time.Time `json:"created_at"`                                 // Creation timestamp
}
