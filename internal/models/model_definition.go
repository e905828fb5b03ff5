package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ModelDefinition describes a brand-new entity type backed by a real table.
type ModelDefinition struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name             string `gorm:"type:varchar(100);not null;uniqueIndex"` // Entity type name (e.g. Invoice).
	Namespace        string `gorm:"type:varchar(100);not null;default:'custom'"` // Grouping namespace.
	BackingTableName string `gorm:"type:varchar(100);not null;uniqueIndex"` // Database table name.
	DisplayName      string `gorm:"type:varchar(100);not null"`             // Human-readable name.
	Description      string `gorm:"type:text"`                              // Purpose of the model.

	OrderingFields datatypes.JSON `gorm:"type:jsonb"`            // Default ordering field names.
	Active         bool           `gorm:"not null;default:true"` // Soft-delete flag.

	Fields []FieldDefinition `gorm:"foreignKey:ModelID"` // Owned field definitions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// FormType returns the namespaced identifier used to key resolved configurations.
func (m *ModelDefinition) FormType() string {
	return m.Namespace + "." + m.Name
}

// OrderingFieldList decodes the stored default ordering.
func (m *ModelDefinition) OrderingFieldList() ([]string, error) {
	if len(m.OrderingFields) == 0 {
		return nil, nil
	}
	var ordering []string
	if err := json.Unmarshal(m.OrderingFields, &ordering); err != nil {
		return nil, err
	}
	return ordering, nil
}

// SetOrderingFields encodes and stores the default ordering.
func (m *ModelDefinition) SetOrderingFields(ordering []string) error {
	raw, err := json.Marshal(ordering)
	if err != nil {
		return err
	}
	m.OrderingFields = raw
	return nil
}
