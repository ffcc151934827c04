package summary

import (
	"context" // Request-scoped cancellation
	"time"    // Reporting window

	"gorm.io/gorm" // GORM ORM library

	"ganamos/internal/domain" // Importing domain models
	"ganamos/internal/email"  // Transactional email
)

// Stats is the activity of the last reporting window
type Stats struct {
	NewPosts     int64 `json:"new_posts"`    // Posts created
	FixedPosts   int64 `json:"fixed_posts"`  // Posts marked fixed
	Transactions int64 `json:"transactions"` // Completed transactions
	SatsMoved    int64 `json:"sats_moved"`   // Total sats across those transactions
}

// Service builds and sends the daily activity digest
type Service struct {
	db     *gorm.DB      // Activity source
	sender *email.Sender // Email delivery
	to     string        // Digest recipient
}

// NewService creates a summary service
func NewService(db *gorm.DB, sender *email.Sender, to string) *Service {
	return &Service{db: db, sender: sender, to: to}
}

// Collect gathers the last 24 hours of activity
func (s *Service) Collect(ctx context.Context) (Stats, error) {
	since := time.Now().Add(-24 * time.Hour)
	var stats Stats

	if err := s.db.WithContext(ctx).Model(&domain.Post{}).
		Where("created_at >= ?", since).
		Count(&stats.NewPosts).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&domain.Post{}).
		Where("fixed = ? AND updated_at >= ?", true, since).
		Count(&stats.FixedPosts).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("status = ? AND created_at >= ?", domain.TransactionStatusCompleted, since).
		Count(&stats.Transactions).Error; err != nil {
		return stats, err
	}
	// Sum of absolute amounts across completed transactions in the window
	var satsMoved *int64
	if err := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("status = ? AND created_at >= ?", domain.TransactionStatusCompleted, since).
		Select("SUM(ABS(amount))").
		Scan(&satsMoved).Error; err != nil {
		return stats, err
	}
	if satsMoved != nil {
		stats.SatsMoved = *satsMoved
	}
	return stats, nil
}

// Run collects the stats and emails the digest, returning the message ID
func (s *Service) Run(ctx context.Context) (string, Stats, error) {
	stats, err := s.Collect(ctx)
	if err != nil {
		return "", stats, err
	}
	id, err := s.sender.SendDailySummary(ctx, email.SummaryParams{
		ToEmail:      s.to,               // Digest recipient
		NewPosts:     stats.NewPosts,     // Posts created
		FixedPosts:   stats.FixedPosts,   // Posts marked fixed
		Transactions: stats.Transactions, // Completed transactions
		SatsMoved:    stats.SatsMoved,    // Total sats moved
	})
	return id, stats, err
}
