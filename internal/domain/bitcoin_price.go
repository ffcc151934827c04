package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact decimal USD values
)

// BitcoinPrice Model: one market price observation
type BitcoinPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                  // Auto-increment primary key
	Price     decimal.Decimal `gorm:"type:decimal(16,2)" json:"price"`       // Price in the given currency
	Currency  string          `gorm:"size:8;default:USD" json:"currency"`    // Quote currency
	Source    string          `json:"source"`                                // Where the price came from
	CreatedAt time.Time       `gorm:"index" json:"created_at"`               // Observation timestamp
}
