package domain

import "time"

// Device statuses
const (
	DeviceStatusPaired   = "paired"   // Bound to a profile
	DeviceStatusUnpaired = "unpaired" // Released pairing code
)

// ValidPetTypes is the enumerated set of companion pet types
var ValidPetTypes = []string{"cat", "dog", "rabbit", "squirrel", "turtle"}

// IsValidPetType reports whether t is one of the allowed pet types
func IsValidPetType(t string) bool {
	for _, v := range ValidPetTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Device Model
type Device struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`       // UUID primary key
	UserID      string     `gorm:"size:36;index" json:"user_id"`       // Owning profile
	PairingCode string     `gorm:"size:6;index" json:"pairing_code"`   // 6-char code, stored uppercase
	PetName     string     `gorm:"not null" json:"pet_name"`           // Display name of the pet
	PetType     string     `gorm:"not null" json:"pet_type"`           // One of ValidPetTypes
	Status      string     `gorm:"default:paired" json:"status"`       // paired or unpaired
	LastSeenAt  *time.Time `json:"last_seen_at"`                       // Last config fetch by the device
	CreatedAt   time.Time  `json:"created_at"`                         // Creation timestamp
	UpdatedAt   time.Time  `json:"updated_at"`                         // Last update timestamp
}
