package models

import "time"

// SectionDefinition groups field definitions for either an existing entity
// type (core section) or a freestanding custom form (custom section).
type SectionDefinition struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:varchar(255);not null;uniqueIndex"` // Internal section name.
	DisplayName string `gorm:"type:varchar(255);not null"`             // Name shown to operators.
	Description string `gorm:"type:text"`                              // Purpose of the section.
	Order       int    `gorm:"not null;default:100"`                   // Display order.

	IsCoreSection    bool   `gorm:"not null;default:false"`   // True when backed by an existing entity type.
	SourceEntityType string `gorm:"type:varchar(255);index"`  // Form type of the backing entity, core sections only.

	Active bool `gorm:"not null;default:true"` // Soft-delete flag.

	Fields []FieldDefinition `gorm:"foreignKey:SectionID"` // Owned field definitions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
