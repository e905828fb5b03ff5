package models

import "time"

// RoomType is an admin-configurable room category.
type RoomType struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"` // Unique identifier (e.g. SUP, DLX).
	Name        string `gorm:"type:varchar(100);not null"`            // Display name.
	Description string `gorm:"type:text"`                             // Optional description.
	Active      bool   `gorm:"not null;default:true"`                 // Available for selection.
	SortOrder   uint   `gorm:"not null;default:0"`                    // Display order.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// RoomOccupancy is an admin-configurable occupancy type.
type RoomOccupancy struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code      string `gorm:"type:varchar(50);not null;uniqueIndex"` // Unique identifier (e.g. SGL, DBL).
	Label     string `gorm:"type:varchar(100);not null"`            // Display label.
	PaxCount  uint   `gorm:"not null"`                              // Number of guests.
	Active    bool   `gorm:"not null;default:true"`                 // Available for selection.
	SortOrder uint   `gorm:"not null;default:0"`                    // Display order.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// CancellationReason is an admin-configurable cancellation reason.
type CancellationReason struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code         string `gorm:"type:varchar(50);not null;uniqueIndex"` // Unique identifier.
	Label        string `gorm:"type:varchar(200);not null"`            // Reason description.
	IsRefundable bool   `gorm:"not null;default:false"`                // Allows refund.
	Active       bool   `gorm:"not null;default:true"`                 // Available for selection.
	SortOrder    uint   `gorm:"not null;default:0"`                    // Display order.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
