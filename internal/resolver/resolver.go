// Package resolver assembles the effective form configuration for a form
// type by merging native field requirements, dynamic field definitions and
// the configured layout, and caches the result until metadata changes.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/schema"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FieldConfig is one resolved dynamic field with everything a form renderer
// and the save path need.
type FieldConfig struct {
	FieldID             uint64              `json:"field_id"`
	Control             schema.ControlSpec  `json:"control"`
	Type                models.FieldType    `json:"type"`
	OverrideMode        models.OverrideMode `json:"override_mode"`
	StorageMode         models.StorageMode  `json:"storage_mode"`
	NativeAttributeName string              `json:"native_attribute_name,omitempty"`
	SectionName         string              `json:"section_name"`
	SortOrder           uint                `json:"sort_order"`
}

// SectionConfig is one ordered group of resolved fields.
type SectionConfig struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Order       int           `json:"order"`
	Collapsed   bool          `json:"collapsed"`
	Fields      []FieldConfig `json:"fields"`
}

// RequirementConfig is one native-field requirement override.
type RequirementConfig struct {
	FieldName   string `json:"field_name"`
	FieldLabel  string `json:"field_label"`
	Required    bool   `json:"required"`
	Enabled     bool   `json:"enabled"`
	SectionName string `json:"section_name"`
	SortOrder   uint   `json:"sort_order"`
	HelpText    string `json:"help_text,omitempty"`
}

// Config is the complete resolved configuration for one form type.
type Config struct {
	FormType     string              `json:"form_type"`
	Sections     []SectionConfig     `json:"sections"`
	Requirements []RequirementConfig `json:"requirements"`
	ResolvedAt   time.Time           `json:"resolved_at"`
}

// Field looks up a resolved field by machine name across all sections.
func (c *Config) Field(name string) (FieldConfig, bool) {
	for _, section := range c.Sections {
		for _, field := range section.Fields {
			if field.Control.Name == name {
				return field, true
			}
		}
	}
	return FieldConfig{}, false
}

// Fields returns every resolved field in display order.
func (c *Config) Fields() []FieldConfig {
	var fields []FieldConfig
	for _, section := range c.Sections {
		fields = append(fields, section.Fields...)
	}
	return fields
}

// MissingRequiredError lists required fields absent from a submission.
type MissingRequiredError struct {
	Fields []string // Machine names of the missing fields.
}

// Error implements the error interface.
func (e *MissingRequiredError) Error() string {
	return "resolver: missing required fields: " + strings.Join(e.Fields, ", ")
}

// Resolver builds and caches form configurations.
type Resolver struct {
	db    *gorm.DB
	meta  *metadata.Store
	cache Cache
}

// New constructs a resolver. A nil cache falls back to an in-process one.
func New(conn *gorm.DB, meta *metadata.Store, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{db: conn, meta: meta, cache: cache}
}

// Resolve returns the effective configuration for formType, from cache when
// possible.
func (r *Resolver) Resolve(formType string) (*Config, error) {
	if cfg, ok := r.cache.Get(formType); ok {
		return cfg, nil
	}

	cfg, err := r.build(formType)
	if err != nil {
		return nil, err
	}
	r.cache.Set(formType, cfg)
	return cfg, nil
}

// Invalidate drops the cached configuration for formType. Metadata writers
// call this synchronously after every definition change.
func (r *Resolver) Invalidate(formType string) {
	r.cache.Invalidate(formType)
	log.WithField("form_type", formType).Debug("resolver: configuration invalidated")
}

// ValidateRequired checks a submission against the resolved configuration.
// Empty strings and nils count as missing.
func (r *Resolver) ValidateRequired(formType string, values map[string]any) error {
	cfg, err := r.Resolve(formType)
	if err != nil {
		return err
	}

	var missing []string
	for _, field := range cfg.Fields() {
		if !field.Control.Required {
			continue
		}
		if isEmpty(values[field.Control.Name]) {
			missing = append(missing, field.Control.Name)
		}
	}
	for _, req := range cfg.Requirements {
		if !req.Required || !req.Enabled {
			continue
		}
		if isEmpty(values[req.FieldName]) {
			missing = append(missing, req.FieldName)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingRequiredError{Fields: missing}
	}
	return nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// build assembles the configuration from metadata.
func (r *Resolver) build(formType string) (*Config, error) {
	cfg := &Config{FormType: formType, ResolvedAt: time.Now().UTC()}

	requirements, err := r.loadRequirements(formType)
	if err != nil {
		return nil, err
	}
	cfg.Requirements = requirements

	sections, err := r.loadSections(formType)
	if err != nil {
		return nil, err
	}

	layout, errLayout := r.loadLayout(formType)
	if errLayout != nil {
		return nil, errLayout
	}
	if layout != nil {
		cfg.Sections = applyLayout(sections, layout)
	} else {
		cfg.Sections = sections
	}
	return cfg, nil
}

func (r *Resolver) loadRequirements(formType string) ([]RequirementConfig, error) {
	var rows []models.FieldRequirement
	err := r.db.Where("form_type = ?", formType).
		Order("section_name asc, sort_order asc, id asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("resolver: load requirements: %w", err)
	}

	requirements := make([]RequirementConfig, 0, len(rows))
	for _, row := range rows {
		requirements = append(requirements, RequirementConfig{
			FieldName:   row.FieldName,
			FieldLabel:  row.FieldLabel,
			Required:    row.Required,
			Enabled:     row.Enabled,
			SectionName: row.SectionName,
			SortOrder:   row.SortOrder,
			HelpText:    row.HelpText,
		})
	}
	return requirements, nil
}

// loadSections gathers dynamic fields for the form type. Core sections extend
// native entities, "section." form types are freestanding custom sections,
// and everything else is tried as a dynamic model.
func (r *Resolver) loadSections(formType string) ([]SectionConfig, error) {
	if name, ok := strings.CutPrefix(formType, "section."); ok {
		section, err := r.meta.GetSectionByName(name)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		resolved, errSection := r.resolveSection(section)
		if errSection != nil {
			return nil, errSection
		}
		return []SectionConfig{resolved}, nil
	}

	sections, err := r.meta.SectionsForFormType(formType)
	if err != nil {
		return nil, err
	}
	resolved := make([]SectionConfig, 0, len(sections))
	for i := range sections {
		sc, errSection := r.resolveSection(&sections[i])
		if errSection != nil {
			return nil, errSection
		}
		resolved = append(resolved, sc)
	}
	if len(resolved) > 0 {
		return resolved, nil
	}

	model, errModel := r.meta.GetModelByFormType(formType)
	if errModel != nil {
		if errors.Is(errModel, metadata.ErrNotFound) {
			return nil, nil
		}
		return nil, errModel
	}
	fields, errFields := r.resolveFields(model.Fields, model.DisplayName)
	if errFields != nil {
		return nil, errFields
	}
	return []SectionConfig{{
		Name:        model.BackingTableName,
		DisplayName: model.DisplayName,
		Fields:      fields,
	}}, nil
}

func (r *Resolver) resolveSection(section *models.SectionDefinition) (SectionConfig, error) {
	fields, err := r.resolveFields(section.Fields, section.DisplayName)
	if err != nil {
		return SectionConfig{}, err
	}
	return SectionConfig{
		Name:        section.Name,
		DisplayName: section.DisplayName,
		Order:       section.Order,
		Fields:      fields,
	}, nil
}

// resolveFields maps definitions to field configs. A definition that no
// longer maps (its type was retired) is skipped with a warning instead of
// breaking the whole form.
func (r *Resolver) resolveFields(defs []models.FieldDefinition, sectionName string) ([]FieldConfig, error) {
	fields := make([]FieldConfig, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		control, err := schema.ControlSpecFor(def)
		if err != nil {
			log.WithFields(log.Fields{"field": def.Name, "type": def.Type}).
				WithError(err).Warn("resolver: skipping unmappable field")
			continue
		}
		fields = append(fields, FieldConfig{
			FieldID:             def.ID,
			Control:             control,
			Type:                def.Type,
			OverrideMode:        def.OverrideMode,
			StorageMode:         def.StorageMode,
			NativeAttributeName: def.NativeAttributeName,
			SectionName:         sectionName,
			SortOrder:           def.Order,
		})
	}
	return fields, nil
}

func (r *Resolver) loadLayout(formType string) (*models.FormLayout, error) {
	var layout models.FormLayout
	err := r.db.Where("form_type = ? AND active = ?", formType, true).First(&layout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolver: load layout: %w", err)
	}
	return &layout, nil
}

// applyLayout regroups resolved fields into the configured layout sections.
// Fields the layout does not mention keep their original grouping, appended
// after the configured sections.
func applyLayout(sections []SectionConfig, layout *models.FormLayout) []SectionConfig {
	layoutSections := layout.SectionList()
	if len(layoutSections) == 0 {
		return sections
	}

	byName := make(map[string]FieldConfig)
	var order []string
	for _, section := range sections {
		for _, field := range section.Fields {
			byName[field.Control.Name] = field
			order = append(order, field.Control.Name)
		}
	}

	sort.SliceStable(layoutSections, func(i, j int) bool {
		return layoutSections[i].Order < layoutSections[j].Order
	})

	placed := make(map[string]bool)
	result := make([]SectionConfig, 0, len(layoutSections)+1)
	for _, ls := range layoutSections {
		sc := SectionConfig{
			Name:        ls.Name,
			DisplayName: ls.Name,
			Order:       ls.Order,
			Collapsed:   ls.Collapsed,
		}
		for _, name := range ls.Fields {
			field, ok := byName[name]
			if !ok {
				continue
			}
			field.SectionName = ls.Name
			sc.Fields = append(sc.Fields, field)
			placed[name] = true
		}
		if len(sc.Fields) > 0 {
			result = append(result, sc)
		}
	}

	var leftovers []FieldConfig
	for _, name := range order {
		if !placed[name] {
			leftovers = append(leftovers, byName[name])
		}
	}
	if len(leftovers) > 0 {
		result = append(result, SectionConfig{
			Name:        "other",
			DisplayName: "Other",
			Order:       len(result),
			Fields:      leftovers,
		})
	}
	return result
}
