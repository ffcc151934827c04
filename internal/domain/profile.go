package domain

import "time"

// Profile statuses
const (
	ProfileStatusActive  = "active"  // Normal account
	ProfileStatusDeleted = "deleted" // Soft-deleted account
)

// Profile Model
type Profile struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`        // UUID primary key
	Name      string     `json:"name"`                                // Display name
	Username  *string    `gorm:"unique" json:"username"`              // Unique username, optional
	Email     string     `gorm:"not null" json:"email"`               // Email address
	Password  string     `gorm:"not null" json:"-"`                   // Hashed password
	Balance   int64      `gorm:"not null;default:0" json:"balance"`   // Balance in sats
	Status    string     `gorm:"default:active" json:"status"`        // active or deleted
	DeletedAt *time.Time `json:"deleted_at,omitempty"`                // When the profile was soft-deleted
	DeletedBy *string    `gorm:"size:36" json:"deleted_by,omitempty"` // Who soft-deleted the profile
	CreatedAt time.Time  `json:"created_at"`                          // Creation timestamp
	UpdatedAt time.Time  `json:"updated_at"`                          // Last update timestamp
}
