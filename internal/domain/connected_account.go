package domain

import "time"

// ConnectedAccount Model: a parent-child account link
type ConnectedAccount struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`          // UUID primary key
	PrimaryUserID   string    `gorm:"size:36;index" json:"primary_user_id"`  // Parent profile
	ConnectedUserID string    `gorm:"size:36;index" json:"connected_user_id"` // Child profile
	CreatedAt       time.Time `json:"created_at"`                            // Creation timestamp
}
