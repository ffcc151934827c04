package domain

import "time"

// Post Model
type Post struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`     // UUID primary key
	Title       string    `gorm:"not null" json:"title"`            // Short title of the issue
	Description string    `gorm:"type:text" json:"description"`     // Full description
	Latitude    float64   `json:"latitude"`                         // Location latitude
	Longitude   float64   `json:"longitude"`                        // Location longitude
	City        string    `json:"city"`                             // City name
	Reward      int64     `gorm:"not null;default:0" json:"reward"` // Reward in sats
	Fixed       bool      `gorm:"default:false" json:"fixed"`       // Whether the issue has been fixed
	FixedBy     *string   `gorm:"size:36" json:"fixed_by"`          // Profile that fixed the issue
	UnderReview bool      `gorm:"default:false" json:"under_review"` // Whether a fix is awaiting review
	CreatedBy   string    `gorm:"size:36;index" json:"created_by"`  // Profile that created the post
	CreatedAt   time.Time `json:"created_at"`                       // Creation timestamp
	UpdatedAt   time.Time `json:"updated_at"`                       // Last update timestamp
}
