// Package valuestore persists dynamic field values in a shared typed-slot
// table. Each value occupies exactly one typed column of its row; writing a
// value clears every other slot first so type changes never leave stale data.
package valuestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/schema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound indicates no stored value exists for the requested pair.
var ErrNotFound = errors.New("field value not found")

// CoercionError reports a submitted value that does not fit its field's type.
type CoercionError struct {
	FieldName string           // Field machine name.
	FieldType models.FieldType // Declared field type.
	Value     any              // Rejected value.
	Reason    string           // Human-readable cause.
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("valuestore: field %q (%s): %s", e.FieldName, e.FieldType, e.Reason)
}

// Store reads and writes generic field values.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a value store over the given connection.
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// WithTx returns a store bound to the given transaction so dynamic values
// commit or roll back together with the owning entity.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Set writes one value for (entityType, entityID, field). A nil value removes
// the stored row entirely.
func (s *Store) Set(field *models.FieldDefinition, entityType string, entityID uint64, value any) error {
	if value == nil {
		return s.delete(field.ID, entityType, entityID)
	}

	row := models.FieldValue{
		EntityType: entityType,
		EntityID:   entityID,
		FieldID:    field.ID,
	}
	if err := populateSlot(&row, field, value); err != nil {
		return err
	}

	var existing models.FieldValue
	errFind := s.db.Where("entity_type = ? AND entity_id = ? AND field_id = ?",
		entityType, entityID, field.ID).First(&existing).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			if errCreate := s.db.Create(&row).Error; errCreate != nil {
				return fmt.Errorf("valuestore: create: %w", errCreate)
			}
			return nil
		}
		return fmt.Errorf("valuestore: lookup: %w", errFind)
	}

	// Full-row save clears the previously populated slot.
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	if errSave := s.db.Save(&row).Error; errSave != nil {
		return fmt.Errorf("valuestore: update: %w", errSave)
	}
	return nil
}

// Get returns the stored value for (entityType, entityID, field), decoded to
// the field type's natural Go representation. Missing rows return ErrNotFound.
func (s *Store) Get(field *models.FieldDefinition, entityType string, entityID uint64) (any, error) {
	var row models.FieldValue
	err := s.db.Where("entity_type = ? AND entity_id = ? AND field_id = ?",
		entityType, entityID, field.ID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("valuestore: lookup: %w", err)
	}
	return extractSlot(&row, field)
}

// GetAll loads every stored value for an entity keyed by field ID.
func (s *Store) GetAll(entityType string, entityID uint64, fields []models.FieldDefinition) (map[uint64]any, error) {
	var rows []models.FieldValue
	err := s.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("valuestore: load: %w", err)
	}

	byID := make(map[uint64]*models.FieldDefinition, len(fields))
	for i := range fields {
		byID[fields[i].ID] = &fields[i]
	}

	values := make(map[uint64]any, len(rows))
	for i := range rows {
		field, ok := byID[rows[i].FieldID]
		if !ok {
			continue
		}
		value, errExtract := extractSlot(&rows[i], field)
		if errExtract != nil {
			return nil, errExtract
		}
		values[field.ID] = value
	}
	return values, nil
}

// DeleteForEntity removes every stored value for one entity instance.
// Called when the owning entity is deleted.
func (s *Store) DeleteForEntity(entityType string, entityID uint64) error {
	err := s.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Delete(&models.FieldValue{}).Error
	if err != nil {
		return fmt.Errorf("valuestore: delete for entity: %w", err)
	}
	return nil
}

// DeleteForField removes every stored value of one field definition.
// Called when a field definition is removed.
func (s *Store) DeleteForField(fieldID uint64) error {
	err := s.db.Where("field_id = ?", fieldID).Delete(&models.FieldValue{}).Error
	if err != nil {
		return fmt.Errorf("valuestore: delete for field: %w", err)
	}
	return nil
}

func (s *Store) delete(fieldID uint64, entityType string, entityID uint64) error {
	err := s.db.Where("entity_type = ? AND entity_id = ? AND field_id = ?",
		entityType, entityID, fieldID).Delete(&models.FieldValue{}).Error
	if err != nil {
		return fmt.Errorf("valuestore: delete: %w", err)
	}
	return nil
}

// Coerce normalizes a raw value to the natural Go representation of the
// field's type: string, int64, float64, bool, time.Time or datatypes.JSON.
// Choice values are validated against the configured choice list.
func Coerce(field *models.FieldDefinition, value any) (any, error) {
	slot, err := schema.SlotFor(field.Type)
	if err != nil {
		return nil, &CoercionError{FieldName: field.Name, FieldType: field.Type, Value: value, Reason: err.Error()}
	}

	switch slot {
	case schema.SlotText:
		text, errText := coerceString(value)
		if errText != nil {
			return nil, coercionErr(field, value, "expected text")
		}
		if field.Type == models.FieldTypeSingleChoice && !validChoice(field, text) {
			return nil, coercionErr(field, value, "value is not one of the configured choices")
		}
		return text, nil
	case schema.SlotInteger:
		n, errInt := coerceInt(value)
		if errInt != nil {
			return nil, coercionErr(field, value, "expected an integer")
		}
		return n, nil
	case schema.SlotDecimal:
		f, errFloat := coerceFloat(value)
		if errFloat != nil {
			return nil, coercionErr(field, value, "expected a decimal number")
		}
		return f, nil
	case schema.SlotFloat:
		f, errFloat := coerceFloat(value)
		if errFloat != nil {
			return nil, coercionErr(field, value, "expected a number")
		}
		return f, nil
	case schema.SlotBoolean:
		b, errBool := coerceBool(value)
		if errBool != nil {
			return nil, coercionErr(field, value, "expected a boolean")
		}
		return b, nil
	case schema.SlotDate:
		d, errDate := coerceTime(value, "2006-01-02")
		if errDate != nil {
			return nil, coercionErr(field, value, "expected a date (YYYY-MM-DD)")
		}
		return d, nil
	case schema.SlotDatetime:
		d, errDate := coerceTime(value, time.RFC3339)
		if errDate != nil {
			return nil, coercionErr(field, value, "expected a datetime (RFC 3339)")
		}
		return d, nil
	case schema.SlotTime:
		text, errText := coerceString(value)
		if errText != nil || !validClockTime(text) {
			return nil, coercionErr(field, value, "expected a time of day (HH:MM or HH:MM:SS)")
		}
		return text, nil
	case schema.SlotFile:
		text, errText := coerceString(value)
		if errText != nil {
			return nil, coercionErr(field, value, "expected a file reference")
		}
		return text, nil
	case schema.SlotJSON:
		return coerceJSON(field, value)
	}
	return nil, coercionErr(field, value, "unsupported value")
}

// populateSlot coerces value into the single slot selected by the field type.
func populateSlot(row *models.FieldValue, field *models.FieldDefinition, value any) error {
	slot, err := schema.SlotFor(field.Type)
	if err != nil {
		return &CoercionError{FieldName: field.Name, FieldType: field.Type, Value: value, Reason: err.Error()}
	}
	coerced, err := Coerce(field, value)
	if err != nil {
		return err
	}

	switch slot {
	case schema.SlotText:
		text := coerced.(string)
		row.ValueText = &text
	case schema.SlotInteger:
		n := coerced.(int64)
		row.ValueInteger = &n
	case schema.SlotDecimal:
		f := coerced.(float64)
		row.ValueDecimal = &f
	case schema.SlotFloat:
		f := coerced.(float64)
		row.ValueFloat = &f
	case schema.SlotBoolean:
		b := coerced.(bool)
		row.ValueBoolean = &b
	case schema.SlotDate:
		d := coerced.(time.Time)
		row.ValueDate = &d
	case schema.SlotDatetime:
		d := coerced.(time.Time)
		row.ValueDatetime = &d
	case schema.SlotTime:
		text := coerced.(string)
		row.ValueTime = &text
	case schema.SlotFile:
		text := coerced.(string)
		row.ValueFile = &text
	case schema.SlotJSON:
		row.ValueJSON = coerced.(datatypes.JSON)
	}
	return nil
}

// extractSlot decodes the populated slot back to the field's natural Go value.
func extractSlot(row *models.FieldValue, field *models.FieldDefinition) (any, error) {
	slot, err := schema.SlotFor(field.Type)
	if err != nil {
		return nil, err
	}

	switch slot {
	case schema.SlotText:
		if row.ValueText == nil {
			return nil, nil
		}
		return *row.ValueText, nil
	case schema.SlotInteger:
		if row.ValueInteger == nil {
			return nil, nil
		}
		return *row.ValueInteger, nil
	case schema.SlotDecimal:
		if row.ValueDecimal == nil {
			return nil, nil
		}
		return *row.ValueDecimal, nil
	case schema.SlotFloat:
		if row.ValueFloat == nil {
			return nil, nil
		}
		return *row.ValueFloat, nil
	case schema.SlotBoolean:
		if row.ValueBoolean == nil {
			return nil, nil
		}
		return *row.ValueBoolean, nil
	case schema.SlotDate:
		if row.ValueDate == nil {
			return nil, nil
		}
		return *row.ValueDate, nil
	case schema.SlotDatetime:
		if row.ValueDatetime == nil {
			return nil, nil
		}
		return *row.ValueDatetime, nil
	case schema.SlotTime:
		if row.ValueTime == nil {
			return nil, nil
		}
		return *row.ValueTime, nil
	case schema.SlotFile:
		if row.ValueFile == nil {
			return nil, nil
		}
		return *row.ValueFile, nil
	case schema.SlotJSON:
		if len(row.ValueJSON) == 0 {
			return nil, nil
		}
		var decoded any
		if errDecode := json.Unmarshal(row.ValueJSON, &decoded); errDecode != nil {
			return nil, fmt.Errorf("valuestore: decode json value: %w", errDecode)
		}
		return decoded, nil
	}
	return nil, nil
}

func coercionErr(field *models.FieldDefinition, value any, reason string) error {
	return &CoercionError{FieldName: field.Name, FieldType: field.Type, Value: value, Reason: reason}
}

func coerceString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("not a string")
	}
	return s, nil
}

func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("fractional")
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("not an integer")
	}
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("not a number")
	}
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("not a boolean")
	}
}

func coerceTime(value any, layout string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return time.Parse(layout, v)
	default:
		return time.Time{}, fmt.Errorf("not a time value")
	}
}

func validClockTime(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func validChoice(field *models.FieldDefinition, value string) bool {
	for _, c := range field.ChoiceList() {
		if c.Value == value {
			return true
		}
	}
	return false
}

// coerceJSON encodes multi-choice, multi-relationship and json values,
// validating multi-choice elements against the configured choice list.
func coerceJSON(field *models.FieldDefinition, value any) (datatypes.JSON, error) {
	if field.Type == models.FieldTypeMultiChoice {
		selected, err := coerceStringSlice(value)
		if err != nil {
			return nil, coercionErr(field, value, "expected a list of choice values")
		}
		for _, v := range selected {
			if !validChoice(field, v) {
				return nil, coercionErr(field, value, fmt.Sprintf("%q is not one of the configured choices", v))
			}
		}
		value = selected
	}
	if field.Type == models.FieldTypeMultiRelationship {
		ids, err := coerceIntSlice(value)
		if err != nil {
			return nil, coercionErr(field, value, "expected a list of record identifiers")
		}
		value = ids
	}

	encoded, errEncode := json.Marshal(value)
	if errEncode != nil {
		return nil, coercionErr(field, value, "value is not serializable")
	}
	return datatypes.JSON(encoded), nil
}

func coerceStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("not a string list")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a string list")
	}
}

func coerceIntSlice(value any) ([]int64, error) {
	switch v := value.(type) {
	case []int64:
		return v, nil
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			n, err := coerceInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not an integer list")
	}
}
