package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FieldType identifies the abstract type of a configurable field.
type FieldType string

// Supported field types.
const (
	FieldTypeShortText         FieldType = "short-text"
	FieldTypeLongText          FieldType = "long-text"
	FieldTypeEmail             FieldType = "email"
	FieldTypeURL               FieldType = "url"
	FieldTypeSlug              FieldType = "slug"
	FieldTypeInteger           FieldType = "integer"
	FieldTypeDecimal           FieldType = "decimal"
	FieldTypeFloat             FieldType = "float"
	FieldTypeDate              FieldType = "date"
	FieldTypeDatetime          FieldType = "datetime"
	FieldTypeTime              FieldType = "time"
	FieldTypeBoolean           FieldType = "boolean"
	FieldTypeSingleChoice      FieldType = "single-choice"
	FieldTypeMultiChoice       FieldType = "multi-choice"
	FieldTypeFile              FieldType = "file"
	FieldTypeImage             FieldType = "image"
	FieldTypeRelationship      FieldType = "relationship"
	FieldTypeMultiRelationship FieldType = "multi-relationship"
	FieldTypeJSON              FieldType = "json"
)

// OverrideMode describes how a field relates to its owner's native attributes.
type OverrideMode string

// Override modes.
const (
	// OverrideModeExisting replaces the presentation of a native attribute.
	OverrideModeExisting OverrideMode = "override-existing"
	// OverrideModeCreateNew adds a field stored in the generic value store.
	OverrideModeCreateNew OverrideMode = "create-new"
	// OverrideModePlainCustom adds a field with no native counterpart.
	OverrideModePlainCustom OverrideMode = "plain-custom"
)

// StorageMode selects where a field's values live.
type StorageMode string

// Storage modes.
const (
	// StorageModeNativeColumn writes through the owner entity's own column.
	StorageModeNativeColumn StorageMode = "native-column"
	// StorageModeValueStore writes rows in the generic value store.
	StorageModeValueStore StorageMode = "generic-value-store"
)

// Choice is one ordered value/label pair of a choice field.
type Choice struct {
	Value string `json:"value"` // Stored value.
	Label string `json:"label"` // Display label.
}

// FieldDefinition describes one configurable attribute owned by a section or model.
type FieldDefinition struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SectionID *uint64 `gorm:"index"` // Owning section, exclusive with ModelID.
	ModelID   *uint64 `gorm:"index"` // Owning dynamic model, exclusive with SectionID.

	Name        string    `gorm:"type:varchar(100);not null"` // Machine identifier, unique within the owner.
	DisplayName string    `gorm:"type:varchar(100);not null"` // Label shown in forms.
	Type        FieldType `gorm:"type:varchar(20);not null"`  // Abstract field type.

	Required     bool   `gorm:"not null;default:false"` // Whether a value must be supplied.
	DefaultValue string `gorm:"type:text"`              // Default value, JSON for complex types.
	HelpText     string `gorm:"type:varchar(200)"`      // Short hint shown with the control.

	MaxLength *int `gorm:""` // Max length for text-family fields.
	Precision *int `gorm:""` // Total digits for decimal fields.
	Scale     *int `gorm:""` // Fractional digits for decimal fields.

	Choices      datatypes.JSON `gorm:"type:jsonb"`        // Ordered value/label pairs for choice fields.
	TargetEntity string         `gorm:"type:varchar(100)"` // Form type a relationship field points at.

	OverrideMode        OverrideMode `gorm:"type:varchar(20);not null;default:'plain-custom'"` // Relation to native attributes.
	NativeAttributeName string       `gorm:"type:varchar(100)"`                                // Overridden native attribute, override-existing only.
	StorageMode         StorageMode  `gorm:"type:varchar(20);not null;default:'generic-value-store'"` // Value routing.

	Order  uint `gorm:"not null;default:0"`    // Order within the owning section.
	Active bool `gorm:"not null;default:true"` // Soft-delete flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsNativeOverride reports whether the field represents an existing native attribute.
func (f *FieldDefinition) IsNativeOverride() bool {
	return f.OverrideMode == OverrideModeExisting
}

// ChoiceList decodes the ordered choice pairs, returning nil when unset.
func (f *FieldDefinition) ChoiceList() []Choice {
	if len(f.Choices) == 0 {
		return nil
	}
	var choices []Choice
	if err := json.Unmarshal(f.Choices, &choices); err != nil {
		return nil
	}
	return choices
}

// SetChoiceList encodes ordered choice pairs into the JSON column.
func (f *FieldDefinition) SetChoiceList(choices []Choice) error {
	encoded, err := json.Marshal(choices)
	if err != nil {
		return err
	}
	f.Choices = datatypes.JSON(encoded)
	return nil
}
