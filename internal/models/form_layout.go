package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// LayoutSection is one ordered group of fields within a form layout.
type LayoutSection struct {
	Name      string   `json:"name"`      // Section heading.
	Fields    []string `json:"fields"`    // Field names in display order.
	Order     int      `json:"order"`     // Section order.
	Collapsed bool     `json:"collapsed"` // Rendered collapsed by default.
}

// FormLayout stores the configured section layout for one form type.
type FormLayout struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FormType string         `gorm:"type:varchar(50);not null;uniqueIndex"` // Target form type.
	Sections datatypes.JSON `gorm:"type:jsonb"`                            // Ordered layout sections.

	Active    bool   `gorm:"not null;default:true"` // Layout is in effect.
	UpdatedBy string `gorm:"type:varchar(100)"`     // Operator who last changed it.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// SectionList decodes the layout sections, returning nil when unset or invalid.
func (l *FormLayout) SectionList() []LayoutSection {
	if len(l.Sections) == 0 {
		return nil
	}
	var sections []LayoutSection
	if err := json.Unmarshal(l.Sections, &sections); err != nil {
		return nil
	}
	return sections
}
