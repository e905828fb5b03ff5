package models

import "time"

// FieldRequirement overrides requiredness and placement of a native field
// for one form type.
type FieldRequirement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FormType   string `gorm:"type:varchar(50);not null;uniqueIndex:idx_field_requirements_form_field"` // Target form type.
	FieldName  string `gorm:"type:varchar(100);not null;uniqueIndex:idx_field_requirements_form_field"` // Native attribute name.
	FieldLabel string `gorm:"type:varchar(200);not null"` // Display label.

	Required bool `gorm:"not null;default:false"` // Field must be filled.
	Enabled  bool `gorm:"not null;default:true"`  // Field is visible.

	SectionName string `gorm:"type:varchar(100);not null;default:'Basic Information'"` // Grouping section.
	SortOrder   uint   `gorm:"not null;default:0"`                                     // Order within the section.
	HelpText    string `gorm:"type:text"`                                              // Custom help text.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
