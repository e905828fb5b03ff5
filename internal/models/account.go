package models

import "time"

// Account represents a company or organization the hotel sells to.
type Account struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name          string `gorm:"type:varchar(200);not null;index"` // Company/organization name.
	AccountType   string `gorm:"type:varchar(30)"`                 // Segment (corporate, travel agent, government...).
	City          string `gorm:"type:varchar(200)"`                // Primary city location.
	ContactPerson string `gorm:"type:varchar(100)"`                // Main contact name.
	Position      string `gorm:"type:text"`                        // Contact person's position/title.
	Phone         string `gorm:"type:varchar(20)"`                 // Contact phone.
	Email         string `gorm:"type:varchar(254)"`                // Contact email.
	Address       string `gorm:"type:text"`                        // Complete address.
	Website       string `gorm:"type:varchar(200)"`                // Company website URL.
	Notes         string `gorm:"type:text"`                        // Additional notes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
