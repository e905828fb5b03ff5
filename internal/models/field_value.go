package models

import (
	"time"

	"gorm.io/datatypes"
)

// FieldValue stores one generic value for one (entity instance, field) pair.
// Exactly one typed slot is populated, chosen by the field's type.
type FieldValue struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EntityType string `gorm:"type:varchar(100);not null;uniqueIndex:idx_field_values_identity;index:idx_field_values_entity"` // Kind of owning entity.
	EntityID   uint64 `gorm:"not null;uniqueIndex:idx_field_values_identity;index:idx_field_values_entity"`                   // Owning entity instance.
	FieldID    uint64 `gorm:"not null;uniqueIndex:idx_field_values_identity;index"`                                           // Field definition reference.

	ValueText     *string        `gorm:"type:text"`            // Text-family and single-choice values.
	ValueInteger  *int64         `gorm:""`                     // Integer values.
	ValueDecimal  *float64       `gorm:"type:decimal(20,10)"`  // Decimal values.
	ValueFloat    *float64       `gorm:""`                     // Float values.
	ValueBoolean  *bool          `gorm:""`                     // Boolean values.
	ValueDate     *time.Time     `gorm:"type:date"`            // Date values.
	ValueDatetime *time.Time     `gorm:""`                     // Datetime values.
	ValueTime     *string        `gorm:"type:varchar(16)"`     // Time-of-day values (HH:MM:SS).
	ValueFile     *string        `gorm:"type:varchar(255)"`    // File/image references.
	ValueJSON     datatypes.JSON `gorm:"type:jsonb"`           // JSON, multi-choice and multi-relationship values.

	Field FieldDefinition `gorm:"foreignKey:FieldID"` // Field definition relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
