package dynmodel

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/lumenhotels/salescrm/internal/models"
)

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// EntityDescriptor describes one materialized model at runtime: its form
// type, backing table and the fields rows may carry.
type EntityDescriptor struct {
	FormType    string
	DisplayName string
	Table       string

	fields map[string]*models.FieldDefinition
	order  []string
	model  *models.ModelDefinition
}

func newDescriptor(model *models.ModelDefinition, fields []models.FieldDefinition) *EntityDescriptor {
	d := &EntityDescriptor{
		FormType:    model.FormType(),
		DisplayName: model.DisplayName,
		Table:       model.BackingTableName,
		fields:      make(map[string]*models.FieldDefinition, len(fields)),
		model:       model,
	}
	for i := range fields {
		d.fields[fields[i].Name] = &fields[i]
		d.order = append(d.order, fields[i].Name)
	}
	return d
}

// Field returns the definition of a named field.
func (d *EntityDescriptor) Field(name string) (*models.FieldDefinition, bool) {
	field, ok := d.fields[name]
	return field, ok
}

// FieldNames returns field names in display order.
func (d *EntityDescriptor) FieldNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// Ordering returns the model's default ordering columns.
func (d *EntityDescriptor) Ordering() []string {
	return orderingColumns(d.model)
}

// Record is one row of a materialized model. Values come back from the
// driver in engine-dependent shapes; the typed accessors normalize them.
type Record map[string]any

// ID returns the row's primary key, 0 when absent.
func (r Record) ID() uint64 {
	n, _ := toInt(r["id"])
	return uint64(n)
}

// String returns a text column value.
func (r Record) String(name string) (string, bool) {
	switch v := r[name].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// Int returns an integer column value.
func (r Record) Int(name string) (int64, bool) {
	return toInt(r[name])
}

// Float returns a numeric column value.
func (r Record) Float(name string) (float64, bool) {
	switch v := r[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns a boolean column value. SQLite stores booleans as integers.
func (r Record) Bool(name string) (bool, bool) {
	switch v := r[name].(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	default:
		return false, false
	}
}

// Time returns a temporal column value.
func (r Record) Time(name string) (time.Time, bool) {
	switch v := r[name].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
