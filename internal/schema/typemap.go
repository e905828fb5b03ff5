package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/datatypes"
)

// Slot identifies which typed column of a FieldValue row holds a value.
type Slot string

// Value store slots.
const (
	SlotText     Slot = "text"
	SlotInteger  Slot = "integer"
	SlotDecimal  Slot = "decimal"
	SlotFloat    Slot = "float"
	SlotBoolean  Slot = "boolean"
	SlotDate     Slot = "date"
	SlotDatetime Slot = "datetime"
	SlotTime     Slot = "time"
	SlotFile     Slot = "file"
	SlotJSON     Slot = "json"
)

// ControlKind identifies the input control rendered for a field.
type ControlKind string

// Input control kinds.
const (
	ControlTextInput      ControlKind = "text-input"
	ControlTextarea       ControlKind = "textarea"
	ControlEmailInput     ControlKind = "email-input"
	ControlURLInput       ControlKind = "url-input"
	ControlSlugInput      ControlKind = "slug-input"
	ControlIntegerInput   ControlKind = "integer-input"
	ControlDecimalInput   ControlKind = "decimal-input"
	ControlFloatInput     ControlKind = "float-input"
	ControlDatePicker     ControlKind = "date-picker"
	ControlDatetimePicker ControlKind = "datetime-picker"
	ControlTimePicker     ControlKind = "time-picker"
	ControlCheckbox       ControlKind = "checkbox"
	ControlSelect         ControlKind = "select"
	ControlMultiSelect    ControlKind = "multi-select"
	ControlFileUpload     ControlKind = "file-upload"
	ControlImageUpload    ControlKind = "image-upload"
	ControlRelationPicker ControlKind = "relation-picker"
	ControlMultiRelation  ControlKind = "multi-relation-picker"
	ControlJSONEditor     ControlKind = "json-editor"
)

// ColumnSpec describes the storage column a field materializes into.
type ColumnSpec struct {
	Name     string       // Column name.
	DataType string       // Engine column type (varchar(n), decimal(p,s), date...).
	GoType   reflect.Type // Go type the column scans through.
	NotNull  bool         // Whether the column rejects NULL.
}

// ControlSpec describes the live input control for a field.
type ControlSpec struct {
	Name         string          `json:"name"`                    // Field machine name.
	Label        string          `json:"label"`                   // Display label.
	Kind         ControlKind     `json:"kind"`                    // Control kind.
	Required     bool            `json:"required"`                // Whether a value must be supplied.
	HelpText     string          `json:"help_text,omitempty"`     // Hint shown with the control.
	DefaultValue string          `json:"default_value,omitempty"` // Initial value for new records.
	MaxLength    int             `json:"max_length,omitempty"`    // Max length for text-family controls.
	Precision    int             `json:"precision,omitempty"`     // Total digits, decimal controls only.
	Scale        int             `json:"scale,omitempty"`         // Fractional digits, decimal controls only.
	Choices      []models.Choice `json:"choices,omitempty"`       // Ordered options, choice controls only.
	TargetEntity string          `json:"target_entity,omitempty"` // Target form type, relationship controls only.
}

// Mapper defaults matching the metadata store's accepted ranges.
const (
	defaultMaxLength        = 255
	defaultChoiceMaxLength  = 100
	defaultSlugMaxLength    = 50
	defaultEmailMaxLength   = 254
	defaultURLMaxLength     = 200
	defaultDecimalPrecision = 10
	defaultDecimalScale     = 2
)

// textMaxLength resolves the effective max length for a text-family field.
func textMaxLength(f *models.FieldDefinition, fallback int) int {
	if f.MaxLength != nil && *f.MaxLength > 0 {
		return *f.MaxLength
	}
	return fallback
}

// decimalPrecisionScale resolves the effective precision and scale.
func decimalPrecisionScale(f *models.FieldDefinition) (int, int) {
	precision, scale := defaultDecimalPrecision, defaultDecimalScale
	if f.Precision != nil && *f.Precision > 0 {
		precision = *f.Precision
	}
	if f.Scale != nil && *f.Scale >= 0 {
		scale = *f.Scale
	}
	return precision, scale
}

// SlotFor selects the value-store slot for a field type. The selection is the
// single authority shared with column and control mapping; the three views
// never disagree on type family.
func SlotFor(ft models.FieldType) (Slot, error) {
	switch ft {
	case models.FieldTypeShortText, models.FieldTypeLongText, models.FieldTypeEmail,
		models.FieldTypeURL, models.FieldTypeSlug, models.FieldTypeSingleChoice:
		return SlotText, nil
	case models.FieldTypeInteger, models.FieldTypeRelationship:
		return SlotInteger, nil
	case models.FieldTypeDecimal:
		return SlotDecimal, nil
	case models.FieldTypeFloat:
		return SlotFloat, nil
	case models.FieldTypeBoolean:
		return SlotBoolean, nil
	case models.FieldTypeDate:
		return SlotDate, nil
	case models.FieldTypeDatetime:
		return SlotDatetime, nil
	case models.FieldTypeTime:
		return SlotTime, nil
	case models.FieldTypeFile, models.FieldTypeImage:
		return SlotFile, nil
	case models.FieldTypeMultiChoice, models.FieldTypeMultiRelationship, models.FieldTypeJSON:
		return SlotJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, ft)
	}
}

// ColumnSpecFor builds the storage column spec for a field definition.
// Unknown types fail closed; they are never coerced to text.
func ColumnSpecFor(f *models.FieldDefinition) (ColumnSpec, error) {
	if _, err := SlotFor(f.Type); err != nil {
		return ColumnSpec{}, err
	}

	spec := ColumnSpec{Name: f.Name, NotNull: false}
	switch f.Type {
	case models.FieldTypeShortText:
		spec.DataType = fmt.Sprintf("varchar(%d)", textMaxLength(f, defaultMaxLength))
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeLongText:
		spec.DataType = "text"
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeEmail:
		spec.DataType = fmt.Sprintf("varchar(%d)", textMaxLength(f, defaultEmailMaxLength))
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeURL:
		spec.DataType = fmt.Sprintf("varchar(%d)", textMaxLength(f, defaultURLMaxLength))
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeSlug:
		spec.DataType = fmt.Sprintf("varchar(%d)", textMaxLength(f, defaultSlugMaxLength))
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeInteger:
		spec.DataType = "bigint"
		spec.GoType = reflect.TypeOf((*int64)(nil))
	case models.FieldTypeDecimal:
		precision, scale := decimalPrecisionScale(f)
		spec.DataType = fmt.Sprintf("decimal(%d,%d)", precision, scale)
		spec.GoType = reflect.TypeOf((*float64)(nil))
	case models.FieldTypeFloat:
		spec.DataType = "double precision"
		spec.GoType = reflect.TypeOf((*float64)(nil))
	case models.FieldTypeDate:
		spec.DataType = "date"
		spec.GoType = reflect.TypeOf((*time.Time)(nil))
	case models.FieldTypeDatetime:
		spec.DataType = "timestamp"
		spec.GoType = reflect.TypeOf((*time.Time)(nil))
	case models.FieldTypeTime:
		spec.DataType = "varchar(16)"
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeBoolean:
		spec.DataType = "boolean"
		spec.GoType = reflect.TypeOf((*bool)(nil))
	case models.FieldTypeSingleChoice:
		if len(f.ChoiceList()) == 0 {
			return ColumnSpec{}, fmt.Errorf("%w: field %q", ErrMissingChoices, f.Name)
		}
		spec.DataType = fmt.Sprintf("varchar(%d)", textMaxLength(f, defaultChoiceMaxLength))
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeMultiChoice:
		if len(f.ChoiceList()) == 0 {
			return ColumnSpec{}, fmt.Errorf("%w: field %q", ErrMissingChoices, f.Name)
		}
		spec.DataType = "jsonb"
		spec.GoType = reflect.TypeOf(datatypes.JSON{})
	case models.FieldTypeFile, models.FieldTypeImage:
		spec.DataType = "varchar(255)"
		spec.GoType = reflect.TypeOf((*string)(nil))
	case models.FieldTypeRelationship:
		if f.TargetEntity == "" {
			return ColumnSpec{}, fmt.Errorf("%w: field %q", ErrMissingTarget, f.Name)
		}
		spec.DataType = "bigint"
		spec.GoType = reflect.TypeOf((*int64)(nil))
	case models.FieldTypeMultiRelationship:
		if f.TargetEntity == "" {
			return ColumnSpec{}, fmt.Errorf("%w: field %q", ErrMissingTarget, f.Name)
		}
		spec.DataType = "jsonb"
		spec.GoType = reflect.TypeOf(datatypes.JSON{})
	case models.FieldTypeJSON:
		spec.DataType = "jsonb"
		spec.GoType = reflect.TypeOf(datatypes.JSON{})
	}
	// Columns stay nullable even for required fields; requiredness is
	// enforced at the form boundary so pre-existing rows keep loading.
	return spec, nil
}

// ControlSpecFor builds the live input control spec for a field definition.
func ControlSpecFor(f *models.FieldDefinition) (ControlSpec, error) {
	if _, err := SlotFor(f.Type); err != nil {
		return ControlSpec{}, err
	}

	spec := ControlSpec{
		Name:         f.Name,
		Label:        f.DisplayName,
		Required:     f.Required,
		HelpText:     f.HelpText,
		DefaultValue: f.DefaultValue,
	}
	switch f.Type {
	case models.FieldTypeShortText:
		spec.Kind = ControlTextInput
		spec.MaxLength = textMaxLength(f, defaultMaxLength)
	case models.FieldTypeLongText:
		spec.Kind = ControlTextarea
	case models.FieldTypeEmail:
		spec.Kind = ControlEmailInput
		spec.MaxLength = textMaxLength(f, defaultEmailMaxLength)
	case models.FieldTypeURL:
		spec.Kind = ControlURLInput
		spec.MaxLength = textMaxLength(f, defaultURLMaxLength)
	case models.FieldTypeSlug:
		spec.Kind = ControlSlugInput
		spec.MaxLength = textMaxLength(f, defaultSlugMaxLength)
	case models.FieldTypeInteger:
		spec.Kind = ControlIntegerInput
	case models.FieldTypeDecimal:
		spec.Kind = ControlDecimalInput
		spec.Precision, spec.Scale = decimalPrecisionScale(f)
	case models.FieldTypeFloat:
		spec.Kind = ControlFloatInput
	case models.FieldTypeDate:
		spec.Kind = ControlDatePicker
	case models.FieldTypeDatetime:
		spec.Kind = ControlDatetimePicker
	case models.FieldTypeTime:
		spec.Kind = ControlTimePicker
	case models.FieldTypeBoolean:
		spec.Kind = ControlCheckbox
	case models.FieldTypeSingleChoice, models.FieldTypeMultiChoice:
		choices := f.ChoiceList()
		if len(choices) == 0 {
			return ControlSpec{}, fmt.Errorf("%w: field %q", ErrMissingChoices, f.Name)
		}
		spec.Choices = choices
		spec.Kind = ControlSelect
		if f.Type == models.FieldTypeMultiChoice {
			spec.Kind = ControlMultiSelect
		}
	case models.FieldTypeFile:
		spec.Kind = ControlFileUpload
	case models.FieldTypeImage:
		spec.Kind = ControlImageUpload
	case models.FieldTypeRelationship, models.FieldTypeMultiRelationship:
		if f.TargetEntity == "" {
			return ControlSpec{}, fmt.Errorf("%w: field %q", ErrMissingTarget, f.Name)
		}
		spec.TargetEntity = f.TargetEntity
		spec.Kind = ControlRelationPicker
		if f.Type == models.FieldTypeMultiRelationship {
			spec.Kind = ControlMultiRelation
		}
	case models.FieldTypeJSON:
		spec.Kind = ControlJSONEditor
	}
	return spec, nil
}

// KnownFieldType reports whether ft is part of the supported taxonomy.
func KnownFieldType(ft models.FieldType) bool {
	_, err := SlotFor(ft)
	return err == nil
}
