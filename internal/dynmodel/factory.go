// Package dynmodel materializes dynamic model definitions into real tables
// and serves record access over them without generated code. Rows travel as
// descriptor-checked maps; the descriptor is the runtime stand-in for a
// compiled model type.
package dynmodel

import (
	"errors"
	"fmt"

	"github.com/lumenhotels/salescrm/internal/admin"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/schema"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotMaterialized indicates the model's backing table does not exist yet.
var ErrNotMaterialized = errors.New("model not materialized")

// Derived admin surface limits.
const (
	maxListColumns  = 4
	maxFilters      = 5
	maxSearchFields = 3
)

// Factory turns model definitions into live tables and entity descriptors.
type Factory struct {
	db     *gorm.DB
	meta   *metadata.Store
	schema *schema.Manager
	admin  *admin.Registry
}

// New constructs a factory.
func New(conn *gorm.DB, meta *metadata.Store, manager *schema.Manager, registry *admin.Registry) *Factory {
	return &Factory{db: conn, meta: meta, schema: manager, admin: registry}
}

// Materialize brings the backing table of a model definition up to date with
// its field definitions and registers the derived admin surface. Safe to call
// repeatedly; existing tables gain missing columns only.
func (f *Factory) Materialize(modelID uint64) (*EntityDescriptor, error) {
	model, err := f.meta.GetModel(modelID)
	if err != nil {
		return nil, err
	}

	columns, activeFields, errColumns := f.columnSpecs(model)
	if errColumns != nil {
		return nil, errColumns
	}

	if !f.schema.TableExists(model.BackingTableName) {
		if _, errCreate := f.schema.CreateTable(model.Name, model.BackingTableName, columns); errCreate != nil {
			return nil, errCreate
		}
	} else {
		for _, column := range columns {
			if f.schema.ColumnExists(model.BackingTableName, column.Name) {
				continue
			}
			if _, errAdd := f.schema.AddColumn(model.Name, model.BackingTableName, column); errAdd != nil {
				return nil, errAdd
			}
		}
	}

	f.admin.Register(deriveSurface(model, activeFields))
	log.WithFields(log.Fields{"model": model.Name, "table": model.BackingTableName}).
		Info("dynmodel: model materialized")
	return newDescriptor(model, activeFields), nil
}

// Descriptor loads the entity descriptor for an already materialized model.
func (f *Factory) Descriptor(formType string) (*EntityDescriptor, error) {
	model, err := f.meta.GetModelByFormType(formType)
	if err != nil {
		return nil, err
	}
	if !f.schema.TableExists(model.BackingTableName) {
		return nil, fmt.Errorf("%w: %s", ErrNotMaterialized, formType)
	}

	active := make([]models.FieldDefinition, 0, len(model.Fields))
	for _, field := range model.Fields {
		if field.Active {
			active = append(active, field)
		}
	}
	return newDescriptor(model, active), nil
}

// Destroy deactivates a model definition, removes its admin surface and,
// when dropTable is set, drops the backing table with its data.
func (f *Factory) Destroy(modelID uint64, dropTable bool) error {
	model, err := f.meta.DeactivateModel(modelID)
	if err != nil {
		return err
	}
	f.admin.Unregister(model.FormType())

	if dropTable && f.schema.TableExists(model.BackingTableName) {
		if _, errDrop := f.schema.DropTable(model.Name, model.BackingTableName); errDrop != nil {
			return errDrop
		}
	}
	log.WithFields(log.Fields{"model": model.Name, "dropped": dropTable}).
		Info("dynmodel: model destroyed")
	return nil
}

// AlterField brings the backing column of a model-owned field in line with
// its current definition. A model that was never materialized is a no-op;
// a column missing from an existing table is added instead.
func (f *Factory) AlterField(modelID uint64, field *models.FieldDefinition) error {
	model, err := f.meta.GetModel(modelID)
	if err != nil {
		return err
	}
	if !f.schema.TableExists(model.BackingTableName) {
		return nil
	}

	column, errSpec := schema.ColumnSpecFor(field)
	if errSpec != nil {
		return fmt.Errorf("dynmodel: field %s: %w", field.Name, errSpec)
	}
	if !f.schema.ColumnExists(model.BackingTableName, column.Name) {
		_, errAdd := f.schema.AddColumn(model.Name, model.BackingTableName, column)
		return errAdd
	}
	_, errAlter := f.schema.AlterColumn(model.Name, model.BackingTableName, column)
	return errAlter
}

// RemoveField drops a deactivated field's column from the backing table.
func (f *Factory) RemoveField(modelID uint64, fieldName string) error {
	model, err := f.meta.GetModel(modelID)
	if err != nil {
		return err
	}
	if _, errDrop := f.schema.DropColumn(model.Name, model.BackingTableName, fieldName); errDrop != nil {
		return errDrop
	}
	return nil
}

// columnSpecs maps a model's active fields to storage columns.
func (f *Factory) columnSpecs(model *models.ModelDefinition) ([]schema.ColumnSpec, []models.FieldDefinition, error) {
	columns := make([]schema.ColumnSpec, 0, len(model.Fields))
	active := make([]models.FieldDefinition, 0, len(model.Fields))
	for i := range model.Fields {
		field := &model.Fields[i]
		if !field.Active {
			continue
		}
		column, err := schema.ColumnSpecFor(field)
		if err != nil {
			return nil, nil, fmt.Errorf("dynmodel: field %s: %w", field.Name, err)
		}
		columns = append(columns, column)
		active = append(active, *field)
	}
	return columns, active, nil
}

// deriveSurface builds the default admin surface from a model's fields:
// the first short displayable fields for the list view, filterable types as
// filters, text-like fields for search.
func deriveSurface(model *models.ModelDefinition, fields []models.FieldDefinition) admin.Surface {
	surface := admin.Surface{
		FormType:    model.FormType(),
		DisplayName: model.DisplayName,
		Table:       model.BackingTableName,
		ListDisplay: []string{"id"},
	}

	for _, field := range fields {
		if len(surface.ListDisplay)-1 < maxListColumns && isListDisplayable(field.Type) {
			surface.ListDisplay = append(surface.ListDisplay, field.Name)
		}
		if len(surface.ListFilter) < maxFilters && isFilterable(field.Type) {
			surface.ListFilter = append(surface.ListFilter, field.Name)
		}
		if len(surface.Search) < maxSearchFields && isSearchable(field.Type) {
			surface.Search = append(surface.Search, field.Name)
		}
	}
	surface.ListDisplay = append(surface.ListDisplay, "created_at", "updated_at")

	surface.Ordering = orderingColumns(model)
	return surface
}

func isListDisplayable(ft models.FieldType) bool {
	switch ft {
	case models.FieldTypeLongText, models.FieldTypeJSON, models.FieldTypeFile,
		models.FieldTypeImage, models.FieldTypeMultiChoice, models.FieldTypeMultiRelationship:
		return false
	}
	return true
}

func isFilterable(ft models.FieldType) bool {
	switch ft {
	case models.FieldTypeBoolean, models.FieldTypeSingleChoice, models.FieldTypeDate,
		models.FieldTypeDatetime, models.FieldTypeRelationship:
		return true
	}
	return false
}

func isSearchable(ft models.FieldType) bool {
	switch ft {
	case models.FieldTypeShortText, models.FieldTypeEmail, models.FieldTypeSlug:
		return true
	}
	return false
}

func orderingColumns(model *models.ModelDefinition) []string {
	raw := model.OrderingFields
	if len(raw) == 0 {
		return []string{"-id"}
	}
	var ordering []string
	if err := jsonUnmarshal(raw, &ordering); err != nil || len(ordering) == 0 {
		return []string{"-id"}
	}
	return ordering
}
