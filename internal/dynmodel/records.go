package dynmodel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/valuestore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecordNotFound indicates no row exists with the requested identifier.
var ErrRecordNotFound = errors.New("record not found")

// ErrUnknownField indicates a submitted key that is not part of the model.
type ErrUnknownField struct {
	Name string
}

// Error implements the error interface.
func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("dynmodel: unknown field %q", e.Name)
}

// CreateRecord inserts one row for the model behind formType and returns its
// identifier. Values are coerced per field type; unknown keys are rejected.
func (f *Factory) CreateRecord(formType string, values map[string]any) (uint64, error) {
	descriptor, err := f.Descriptor(formType)
	if err != nil {
		return 0, err
	}

	row, errRow := descriptor.rowValues(values)
	if errRow != nil {
		return 0, errRow
	}
	now := time.Now().UTC()
	row["created_at"] = now
	row["updated_at"] = now

	// The map-based create path does not report the generated key. The
	// transaction pins one connection, so the session-scoped key functions
	// return this insert's id even under concurrent writers.
	var id uint64
	errTx := f.db.Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Table(descriptor.Table).Create(row).Error; errCreate != nil {
			return fmt.Errorf("dynmodel: create record: %w", errCreate)
		}
		idQuery := "SELECT last_insert_rowid()"
		if !internaldb.IsSQLite(tx) {
			idQuery = fmt.Sprintf("SELECT currval(pg_get_serial_sequence('%s', 'id'))", descriptor.Table)
		}
		if errID := tx.Raw(idQuery).Scan(&id).Error; errID != nil {
			return fmt.Errorf("dynmodel: resolve new record id: %w", errID)
		}
		return nil
	})
	if errTx != nil {
		return 0, errTx
	}
	return id, nil
}

// GetRecord loads one row by identifier.
func (f *Factory) GetRecord(formType string, id uint64) (Record, error) {
	descriptor, err := f.Descriptor(formType)
	if err != nil {
		return nil, err
	}

	row := map[string]any{}
	errFind := f.db.Table(descriptor.Table).Where("id = ?", id).Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("dynmodel: get record: %w", errFind)
	}
	return Record(row), nil
}

// UpdateRecord applies a partial update to one row.
func (f *Factory) UpdateRecord(formType string, id uint64, values map[string]any) error {
	descriptor, err := f.Descriptor(formType)
	if err != nil {
		return err
	}

	row, errRow := descriptor.rowValues(values)
	if errRow != nil {
		return errRow
	}
	if len(row) == 0 {
		return nil
	}
	row["updated_at"] = time.Now().UTC()

	result := f.db.Table(descriptor.Table).Where("id = ?", id).Updates(row)
	if result.Error != nil {
		return fmt.Errorf("dynmodel: update record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteRecord removes one row.
func (f *Factory) DeleteRecord(formType string, id uint64) error {
	descriptor, err := f.Descriptor(formType)
	if err != nil {
		return err
	}

	result := f.db.Table(descriptor.Table).Where("id = ?", id).Delete(nil)
	if result.Error != nil {
		return fmt.Errorf("dynmodel: delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListRecords pages through rows in the model's default ordering.
func (f *Factory) ListRecords(formType string, limit, offset int) ([]Record, error) {
	return f.SearchRecords(formType, "", limit, offset)
}

// SearchRecords pages through rows matching the search term on the model's
// admin surface search columns. An empty term lists everything.
func (f *Factory) SearchRecords(formType, term string, limit, offset int) ([]Record, error) {
	descriptor, err := f.Descriptor(formType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := f.db.Table(descriptor.Table)
	term = strings.TrimSpace(term)
	if term != "" {
		surface, ok := f.admin.Get(formType)
		if !ok || len(surface.Search) == 0 {
			return nil, fmt.Errorf("dynmodel: no search columns for %s", formType)
		}
		pattern := internaldb.TextMatchPattern(f.db, term)
		matcher := f.db.Session(&gorm.Session{NewDB: true})
		for _, column := range surface.Search {
			matcher = matcher.Or(internaldb.TextMatchExpr(f.db, column), pattern)
		}
		query = query.Where(matcher)
	}
	for _, column := range descriptor.Ordering() {
		desc := strings.HasPrefix(column, "-")
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Name: strings.TrimPrefix(column, "-")},
			Desc:   desc,
		})
	}

	var rows []map[string]any
	errFind := query.Limit(limit).Offset(offset).Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("dynmodel: list records: %w", errFind)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record(row))
	}
	return records, nil
}

// rowValues validates and coerces submitted values into column values.
func (d *EntityDescriptor) rowValues(values map[string]any) (map[string]any, error) {
	row := make(map[string]any, len(values))
	for name, value := range values {
		field, ok := d.fields[name]
		if !ok {
			return nil, &ErrUnknownField{Name: name}
		}
		if value == nil {
			row[name] = nil
			continue
		}
		coerced, err := valuestore.Coerce(field, value)
		if err != nil {
			return nil, err
		}
		row[name] = coerced
	}
	return row, nil
}
