package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/schema"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormschema "gorm.io/gorm/schema"
)

// orderByPosition sorts by the display order column, quoted per dialect
// because "order" is a reserved word.
func orderByPosition(tx *gorm.DB) *gorm.DB {
	return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).Order("id asc")
}

// Machine identifiers start with a letter and continue with lowercase
// letters, digits and underscores. Model names are CamelCase type names.
var (
	identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	modelNamePattern  = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// Columns every backing table owns; field names may never shadow them.
var reservedNames = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// Store persists definitions and validates every change before writing.
type Store struct {
	db       *gorm.DB
	registry *Registry
}

// NewStore constructs a metadata store.
func NewStore(conn *gorm.DB, registry *Registry) *Store {
	return &Store{db: conn, registry: registry}
}

// Registry exposes the native entity registry backing validation.
func (s *Store) Registry() *Registry { return s.registry }

// --- Sections ---

// CreateSection validates and persists a section definition.
func (s *Store) CreateSection(section *models.SectionDefinition) error {
	if err := s.validateSection(section); err != nil {
		return err
	}
	if err := s.db.Create(section).Error; err != nil {
		return fmt.Errorf("metadata: create section: %w", err)
	}
	return nil
}

// UpdateSection validates and persists changes to an existing section.
func (s *Store) UpdateSection(section *models.SectionDefinition) error {
	if section.ID == 0 {
		return ErrNotFound
	}
	if err := s.validateSection(section); err != nil {
		return err
	}
	if err := s.db.Save(section).Error; err != nil {
		return fmt.Errorf("metadata: update section: %w", err)
	}
	return nil
}

// GetSection loads one section with its field definitions.
func (s *Store) GetSection(id uint64) (*models.SectionDefinition, error) {
	var section models.SectionDefinition
	err := s.db.Preload("Fields", orderByPosition).First(&section, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: get section: %w", err)
	}
	return &section, nil
}

// GetSectionByName loads one active section by internal name with its
// active field definitions.
func (s *Store) GetSectionByName(name string) (*models.SectionDefinition, error) {
	var section models.SectionDefinition
	err := s.db.Where("active = ? AND name = ?", true, name).
		Preload("Fields", func(tx *gorm.DB) *gorm.DB {
			return orderByPosition(tx.Where("active = ?", true))
		}).
		First(&section).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: section %s: %w", name, err)
	}
	return &section, nil
}

// ListSections returns active sections in display order.
func (s *Store) ListSections() ([]models.SectionDefinition, error) {
	var sections []models.SectionDefinition
	err := orderByPosition(s.db.Where("active = ?", true)).Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("metadata: list sections: %w", err)
	}
	return sections, nil
}

// SectionsForFormType returns active core sections bound to one form type.
func (s *Store) SectionsForFormType(formType string) ([]models.SectionDefinition, error) {
	var sections []models.SectionDefinition
	err := orderByPosition(s.db.Where("active = ? AND is_core_section = ? AND source_entity_type = ?",
		true, true, formType)).
		Preload("Fields", func(tx *gorm.DB) *gorm.DB {
			return orderByPosition(tx.Where("active = ?", true))
		}).
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("metadata: sections for %s: %w", formType, err)
	}
	return sections, nil
}

// DeactivateSection soft-deletes a section. Its fields stop resolving but
// stored values stay untouched.
func (s *Store) DeactivateSection(id uint64) (string, error) {
	section, err := s.GetSection(id)
	if err != nil {
		return "", err
	}
	section.Active = false
	if errSave := s.db.Save(section).Error; errSave != nil {
		return "", fmt.Errorf("metadata: deactivate section: %w", errSave)
	}
	return s.sectionFormType(section), nil
}

// SyncCoreSections ensures one core section exists per registered native
// entity type so operators can attach fields without creating the section
// first. Existing sections, active or deactivated, are left alone.
func (s *Store) SyncCoreSections() error {
	for _, formType := range s.registry.FormTypes() {
		var count int64
		err := s.db.Model(&models.SectionDefinition{}).
			Where("is_core_section = ? AND source_entity_type = ?", true, formType).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("metadata: sync core sections: %w", err)
		}
		if count > 0 {
			continue
		}

		section := models.SectionDefinition{
			Name:             strings.ReplaceAll(formType, ".", "_"),
			DisplayName:      coreSectionDisplayName(formType),
			Description:      "Additional fields for " + formType,
			IsCoreSection:    true,
			SourceEntityType: formType,
			Active:           true,
		}
		if errCreate := s.CreateSection(&section); errCreate != nil {
			return errCreate
		}
		log.WithFields(log.Fields{"section": section.Name, "form_type": formType}).
			Info("metadata: core section created")
	}
	return nil
}

// coreSectionDisplayName derives an operator-facing label from a form type.
func coreSectionDisplayName(formType string) string {
	name := formType
	if idx := strings.LastIndex(formType, "."); idx >= 0 && idx+1 < len(formType) {
		name = formType[idx+1:]
	}
	return strings.ToUpper(name[:1]) + name[1:] + " Details"
}

func (s *Store) validateSection(section *models.SectionDefinition) error {
	verr := &ValidationError{}
	if !identifierPattern.MatchString(section.Name) {
		verr.Add("name", "must start with a lowercase letter and contain only lowercase letters, digits and underscores")
	}
	if section.DisplayName == "" {
		verr.Add("display_name", "must not be empty")
	}
	if section.IsCoreSection {
		if section.SourceEntityType == "" {
			verr.Add("source_entity_type", "core sections must name their backing entity type")
		} else if !s.registry.HasFormType(section.SourceEntityType) {
			verr.Add("source_entity_type", fmt.Sprintf("unknown entity type %q", section.SourceEntityType))
		}
	} else if section.SourceEntityType != "" {
		verr.Add("source_entity_type", "custom sections must not name an entity type")
	}
	return verr.errOrNil()
}

// --- Models ---

// CreateModel validates and persists a dynamic model definition. Table
// creation is the dynamic model factory's job, not the metadata store's.
func (s *Store) CreateModel(model *models.ModelDefinition) error {
	verr := &ValidationError{}
	if !modelNamePattern.MatchString(model.Name) {
		verr.Add("name", "must be a CamelCase type name")
	}
	if model.Namespace == "" {
		model.Namespace = "custom"
	}
	if !identifierPattern.MatchString(model.Namespace) {
		verr.Add("namespace", "must start with a lowercase letter and contain only lowercase letters, digits and underscores")
	}
	if model.BackingTableName == "" && modelNamePattern.MatchString(model.Name) {
		namer := gormschema.NamingStrategy{}
		model.BackingTableName = model.Namespace + "_" + namer.TableName(model.Name)
	}
	if model.BackingTableName == "" {
		verr.Add("backing_table_name", "must not be empty")
	} else if !identifierPattern.MatchString(model.BackingTableName) {
		verr.Add("backing_table_name", "must start with a lowercase letter and contain only lowercase letters, digits and underscores")
	}
	if model.DisplayName == "" {
		verr.Add("display_name", "must not be empty")
	}
	if s.registry.HasFormType(model.Namespace + "." + model.Name) {
		verr.Add("name", "collides with a native entity type")
	}
	if err := verr.errOrNil(); err != nil {
		return err
	}

	if err := s.db.Create(model).Error; err != nil {
		return fmt.Errorf("metadata: create model: %w", err)
	}
	return nil
}

// GetModel loads one model definition with its field definitions.
func (s *Store) GetModel(id uint64) (*models.ModelDefinition, error) {
	var model models.ModelDefinition
	err := s.db.Preload("Fields", orderByPosition).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: get model: %w", err)
	}
	return &model, nil
}

// GetModelByFormType loads an active model definition by namespaced name.
func (s *Store) GetModelByFormType(formType string) (*models.ModelDefinition, error) {
	var model models.ModelDefinition
	err := s.db.Where("active = ?", true).
		Preload("Fields", func(tx *gorm.DB) *gorm.DB {
			return orderByPosition(tx.Where("active = ?", true))
		}).
		Where("namespace || '.' || name = ?", formType).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: model for %s: %w", formType, err)
	}
	return &model, nil
}

// ListModels returns active model definitions.
func (s *Store) ListModels() ([]models.ModelDefinition, error) {
	var defs []models.ModelDefinition
	err := s.db.Where("active = ?", true).Order("namespace asc, name asc").Find(&defs).Error
	if err != nil {
		return nil, fmt.Errorf("metadata: list models: %w", err)
	}
	return defs, nil
}

// DeactivateModel soft-deletes a model definition. The backing table is left
// in place; dropping it is an explicit separate operation.
func (s *Store) DeactivateModel(id uint64) (*models.ModelDefinition, error) {
	model, err := s.GetModel(id)
	if err != nil {
		return nil, err
	}
	model.Active = false
	if errSave := s.db.Save(model).Error; errSave != nil {
		return nil, fmt.Errorf("metadata: deactivate model: %w", errSave)
	}
	return model, nil
}

// --- Fields ---

// CreateField validates and persists a field definition, returning the form
// type whose resolved configuration it affects.
func (s *Store) CreateField(field *models.FieldDefinition) (string, error) {
	formType, err := s.validateField(field, 0)
	if err != nil {
		return "", err
	}
	if errCreate := s.db.Create(field).Error; errCreate != nil {
		return "", fmt.Errorf("metadata: create field: %w", errCreate)
	}
	log.WithFields(log.Fields{"field": field.Name, "form_type": formType}).
		Info("metadata: field definition created")
	return formType, nil
}

// UpdateField validates and persists changes to an existing field definition.
func (s *Store) UpdateField(field *models.FieldDefinition) (string, error) {
	if field.ID == 0 {
		return "", ErrNotFound
	}
	formType, err := s.validateField(field, field.ID)
	if err != nil {
		return "", err
	}
	if errSave := s.db.Save(field).Error; errSave != nil {
		return "", fmt.Errorf("metadata: update field: %w", errSave)
	}
	return formType, nil
}

// GetField loads one field definition.
func (s *Store) GetField(id uint64) (*models.FieldDefinition, error) {
	var field models.FieldDefinition
	err := s.db.First(&field, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: get field: %w", err)
	}
	return &field, nil
}

// DeactivateField soft-deletes a field definition, returning the affected
// form type. Stored values survive and reappear if the field is reactivated.
func (s *Store) DeactivateField(id uint64) (string, error) {
	field, err := s.GetField(id)
	if err != nil {
		return "", err
	}
	field.Active = false
	if errSave := s.db.Save(field).Error; errSave != nil {
		return "", fmt.Errorf("metadata: deactivate field: %w", errSave)
	}
	return s.fieldFormType(field)
}

// FormTypeForField resolves the form type a field definition belongs to.
func (s *Store) FormTypeForField(field *models.FieldDefinition) (string, error) {
	return s.fieldFormType(field)
}

func (s *Store) validateField(field *models.FieldDefinition, selfID uint64) (string, error) {
	verr := &ValidationError{}

	if !identifierPattern.MatchString(field.Name) {
		verr.Add("name", "must start with a lowercase letter and contain only lowercase letters, digits and underscores")
	}
	if reservedNames[field.Name] {
		verr.Add("name", fmt.Sprintf("%q is reserved", field.Name))
	}
	if field.DisplayName == "" {
		verr.Add("display_name", "must not be empty")
	}
	if !schema.KnownFieldType(field.Type) {
		verr.Add("type", fmt.Sprintf("unknown field type %q", field.Type))
	}

	// Exactly one owner.
	if (field.SectionID == nil) == (field.ModelID == nil) {
		verr.Add("owner", "exactly one of section and model must be set")
		return "", verr.errOrNil()
	}

	formType, owner, errOwner := s.resolveOwner(field)
	if errOwner != nil {
		verr.Add("owner", errOwner.Error())
		return "", verr.errOrNil()
	}

	s.validateTypeRequirements(field, verr)
	s.validateOverride(field, formType, owner, selfID, verr)
	s.validateStorageMode(field, verr)
	s.validateNameUnique(field, selfID, verr)

	if err := verr.errOrNil(); err != nil {
		return "", err
	}
	return formType, nil
}

// resolveOwner loads the owning section or model and derives the form type.
func (s *Store) resolveOwner(field *models.FieldDefinition) (string, *models.SectionDefinition, error) {
	if field.ModelID != nil {
		model, err := s.GetModel(*field.ModelID)
		if err != nil {
			return "", nil, fmt.Errorf("model %d not found", *field.ModelID)
		}
		return model.FormType(), nil, nil
	}

	var section models.SectionDefinition
	if err := s.db.First(&section, *field.SectionID).Error; err != nil {
		return "", nil, fmt.Errorf("section %d not found", *field.SectionID)
	}
	return s.sectionFormType(&section), &section, nil
}

func (s *Store) validateTypeRequirements(field *models.FieldDefinition, verr *ValidationError) {
	switch field.Type {
	case models.FieldTypeSingleChoice, models.FieldTypeMultiChoice:
		if len(field.ChoiceList()) == 0 {
			verr.Add("choices", "choice fields require a non-empty ordered choice list")
		}
	case models.FieldTypeRelationship, models.FieldTypeMultiRelationship:
		if field.TargetEntity == "" {
			verr.Add("target_entity", "relationship fields must name a target entity")
		} else if !s.formTypeExists(field.TargetEntity) {
			verr.Add("target_entity", fmt.Sprintf("unknown target entity %q", field.TargetEntity))
		}
	case models.FieldTypeDecimal:
		if field.Precision != nil && field.Scale != nil && *field.Scale > *field.Precision {
			verr.Add("scale", "must not exceed precision")
		}
	}
}

func (s *Store) validateOverride(field *models.FieldDefinition, formType string, owner *models.SectionDefinition, selfID uint64, verr *ValidationError) {
	switch field.OverrideMode {
	case models.OverrideModeExisting:
		if owner == nil || !owner.IsCoreSection {
			verr.Add("override_mode", "override-existing fields must belong to a core section")
			return
		}
		if field.NativeAttributeName == "" {
			verr.Add("native_attribute_name", "override-existing fields must name the attribute they override")
			return
		}
		if _, ok := s.registry.NativeAttribute(formType, field.NativeAttributeName); !ok {
			verr.Add("native_attribute_name",
				fmt.Sprintf("%q does not exist on %s", field.NativeAttributeName, formType))
			return
		}
		// The field may share a native attribute's name only when it is the
		// attribute being overridden.
		if field.Name != field.NativeAttributeName {
			if _, ok := s.registry.NativeAttribute(formType, field.Name); ok {
				verr.Add("name",
					fmt.Sprintf("%q collides with a native attribute of %s other than the one overridden", field.Name, formType))
			}
		}

		// At most one active override per native attribute.
		var count int64
		query := s.db.Model(&models.FieldDefinition{}).
			Where("section_id = ? AND override_mode = ? AND native_attribute_name = ? AND active = ?",
				owner.ID, models.OverrideModeExisting, field.NativeAttributeName, true)
		if selfID != 0 {
			query = query.Where("id <> ?", selfID)
		}
		if err := query.Count(&count).Error; err == nil && count > 0 {
			verr.Add("native_attribute_name",
				fmt.Sprintf("%q is already overridden in this section", field.NativeAttributeName))
		}
	case models.OverrideModeCreateNew:
		// New fields must not shadow a native attribute of the owner's entity.
		if owner != nil && owner.IsCoreSection {
			if _, ok := s.registry.NativeAttribute(formType, field.Name); ok {
				verr.Add("name", fmt.Sprintf("%q collides with a native attribute of %s", field.Name, formType))
			}
		}
		if field.NativeAttributeName != "" {
			verr.Add("native_attribute_name", "create-new fields must not name a native attribute")
		}
	case models.OverrideModePlainCustom:
		if field.NativeAttributeName != "" {
			verr.Add("native_attribute_name", "plain-custom fields must not name a native attribute")
		}
	default:
		verr.Add("override_mode", fmt.Sprintf("unknown override mode %q", field.OverrideMode))
	}
}

// validateStorageMode enforces value routing per owner and override mode.
// Model fields live in backing table columns; section fields route through
// the generic value store unless they override an existing native attribute.
func (s *Store) validateStorageMode(field *models.FieldDefinition, verr *ValidationError) {
	if field.StorageMode == "" {
		if field.ModelID != nil || field.OverrideMode == models.OverrideModeExisting {
			field.StorageMode = models.StorageModeNativeColumn
		} else {
			field.StorageMode = models.StorageModeValueStore
		}
	}
	switch field.StorageMode {
	case models.StorageModeNativeColumn, models.StorageModeValueStore:
	default:
		verr.Add("storage_mode", fmt.Sprintf("unknown storage mode %q", field.StorageMode))
		return
	}

	if field.ModelID != nil {
		if field.StorageMode != models.StorageModeNativeColumn {
			verr.Add("storage_mode", "model fields are stored in backing table columns")
		}
		return
	}
	switch field.OverrideMode {
	case models.OverrideModeExisting:
		if field.StorageMode != models.StorageModeNativeColumn {
			verr.Add("storage_mode", "override-existing fields write through the native column")
		}
	case models.OverrideModeCreateNew, models.OverrideModePlainCustom:
		if field.StorageMode != models.StorageModeValueStore {
			verr.Add("storage_mode", "custom fields are stored in the generic value store")
		}
	}
}

func (s *Store) validateNameUnique(field *models.FieldDefinition, selfID uint64, verr *ValidationError) {
	query := s.db.Model(&models.FieldDefinition{}).Where("name = ? AND active = ?", field.Name, true)
	if field.SectionID != nil {
		query = query.Where("section_id = ?", *field.SectionID)
	} else if field.ModelID != nil {
		query = query.Where("model_id = ?", *field.ModelID)
	}
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	var count int64
	if err := query.Count(&count).Error; err == nil && count > 0 {
		verr.Add("name", fmt.Sprintf("%q already exists in this owner", field.Name))
	}
}

// formTypeExists reports whether formType names a registered native entity
// or an active dynamic model.
func (s *Store) formTypeExists(formType string) bool {
	if s.registry.HasFormType(formType) {
		return true
	}
	_, err := s.GetModelByFormType(formType)
	return err == nil
}

// sectionFormType derives the form type a section contributes fields to.
// Core sections extend their backing entity; custom sections are freestanding.
func (s *Store) sectionFormType(section *models.SectionDefinition) string {
	if section.IsCoreSection {
		return section.SourceEntityType
	}
	return "section." + section.Name
}

func (s *Store) fieldFormType(field *models.FieldDefinition) (string, error) {
	formType, _, err := s.resolveOwner(field)
	if err != nil {
		return "", err
	}
	return formType, nil
}
