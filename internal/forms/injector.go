// Package forms merges resolved dynamic configuration into entity forms and
// routes submitted dynamic values to their storage.
package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"github.com/lumenhotels/salescrm/internal/schema"
	"github.com/lumenhotels/salescrm/internal/valuestore"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Control is one rendered input of a form.
type Control struct {
	Spec        schema.ControlSpec `json:"spec"`
	FieldID     uint64             `json:"field_id,omitempty"` // Dynamic field id, 0 for native controls.
	Native      bool               `json:"native"`             // Backed by a native entity column.
	Overridden  bool               `json:"overridden"`         // Native control replaced by an override field.
	SectionName string             `json:"section_name"`
	Value       any                `json:"value,omitempty"`
}

// Form is an ordered set of controls for one form type and, optionally, one
// existing entity instance.
type Form struct {
	FormType string    `json:"form_type"`
	EntityID uint64    `json:"entity_id,omitempty"`
	Controls []Control `json:"controls"`
}

// Control finds a control by field machine name.
func (f *Form) Control(name string) (*Control, bool) {
	for i := range f.Controls {
		if f.Controls[i].Spec.Name == name {
			return &f.Controls[i], true
		}
	}
	return nil, false
}

// SaveError aggregates per-field failures from a dynamic save.
type SaveError struct {
	Fields map[string]string // Field name to failure message.
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "forms: save failed: " + strings.Join(parts, "; ")
}

// Injector decorates native forms with resolved dynamic fields.
type Injector struct {
	resolver *resolver.Resolver
	values   *valuestore.Store
	meta     *metadata.Store
}

// NewInjector constructs an injector.
func NewInjector(r *resolver.Resolver, values *valuestore.Store, meta *metadata.Store) *Injector {
	return &Injector{resolver: r, values: values, meta: meta}
}

// Inject applies the resolved configuration to a form: requirement overrides
// adjust native controls, override-existing fields replace their native
// counterparts, and custom fields are appended with any stored values loaded.
// Native relationship attributes are never replaced; such overrides are
// logged and ignored.
func (inj *Injector) Inject(form *Form) error {
	cfg, err := inj.resolver.Resolve(form.FormType)
	if err != nil {
		return err
	}

	inj.applyRequirements(form, cfg)

	for _, field := range cfg.Fields() {
		switch field.OverrideMode {
		case models.OverrideModeExisting:
			inj.applyOverride(form, field)
		default:
			control := Control{
				Spec:        field.Control,
				FieldID:     field.FieldID,
				SectionName: field.SectionName,
			}
			if form.EntityID != 0 && field.StorageMode == models.StorageModeValueStore {
				control.Value = inj.loadValue(form, field)
			}
			form.Controls = append(form.Controls, control)
		}
	}
	return nil
}

// applyRequirements adjusts native controls from per-form-type requirements.
// Disabled fields are removed from the form entirely.
func (inj *Injector) applyRequirements(form *Form, cfg *resolver.Config) {
	if len(cfg.Requirements) == 0 {
		return
	}

	byName := make(map[string]resolver.RequirementConfig, len(cfg.Requirements))
	for _, req := range cfg.Requirements {
		byName[req.FieldName] = req
	}

	kept := form.Controls[:0]
	for _, control := range form.Controls {
		req, ok := byName[control.Spec.Name]
		if !ok || !control.Native {
			kept = append(kept, control)
			continue
		}
		if !req.Enabled {
			continue
		}
		control.Spec.Required = req.Required
		if req.FieldLabel != "" {
			control.Spec.Label = req.FieldLabel
		}
		if req.HelpText != "" {
			control.Spec.HelpText = req.HelpText
		}
		control.SectionName = req.SectionName
		kept = append(kept, control)
	}
	form.Controls = kept
}

// applyOverride replaces a native control's presentation with the override
// field's, keeping the native requiredness when the override does not demand
// its own.
func (inj *Injector) applyOverride(form *Form, field resolver.FieldConfig) {
	if attr, ok := inj.meta.Registry().NativeAttribute(form.FormType, field.NativeAttributeName); ok && attr.IsRelationship {
		log.WithFields(log.Fields{
			"form_type": form.FormType,
			"attribute": field.NativeAttributeName,
			"field":     field.Control.Name,
		}).Warn("forms: native relationship attribute cannot be overridden, ignoring")
		return
	}

	control, ok := form.Control(field.NativeAttributeName)
	if !ok {
		log.WithFields(log.Fields{
			"form_type": form.FormType,
			"attribute": field.NativeAttributeName,
		}).Warn("forms: override target not present on form, ignoring")
		return
	}

	nativeRequired := control.Spec.Required
	name := control.Spec.Name
	control.Spec = field.Control
	// The control keeps the native attribute's name so the save path still
	// writes through the native column.
	control.Spec.Name = name
	if !field.Control.Required {
		control.Spec.Required = nativeRequired
	}
	control.FieldID = field.FieldID
	control.Overridden = true
}

func (inj *Injector) loadValue(form *Form, field resolver.FieldConfig) any {
	def := &models.FieldDefinition{ID: field.FieldID, Name: field.Control.Name, Type: field.Type}
	if choices := field.Control.Choices; len(choices) > 0 {
		if err := def.SetChoiceList(choices); err != nil {
			return nil
		}
	}
	value, err := inj.values.Get(def, form.FormType, form.EntityID)
	if err != nil {
		if !errors.Is(err, valuestore.ErrNotFound) {
			log.WithFields(log.Fields{"form_type": form.FormType, "field": field.Control.Name}).
				WithError(err).Warn("forms: stored value unavailable")
		}
		return nil
	}
	return value
}

// SaveDynamicValues persists submitted values of value-store fields inside
// the caller's transaction so they commit with the owning entity. Fields not
// present in submitted are left untouched; explicit nils clear stored values.
// All coercion failures are reported together.
func (inj *Injector) SaveDynamicValues(tx *gorm.DB, formType string, entityID uint64, submitted map[string]any) error {
	cfg, err := inj.resolver.Resolve(formType)
	if err != nil {
		return err
	}

	store := inj.values.WithTx(tx)
	failures := make(map[string]string)
	for _, field := range cfg.Fields() {
		if field.StorageMode != models.StorageModeValueStore {
			continue
		}
		value, present := submitted[field.Control.Name]
		if !present {
			continue
		}

		def, errDef := inj.meta.GetField(field.FieldID)
		if errDef != nil {
			failures[field.Control.Name] = "definition unavailable"
			continue
		}
		if errSet := store.Set(def, formType, entityID, value); errSet != nil {
			var cerr *valuestore.CoercionError
			if errors.As(errSet, &cerr) {
				failures[field.Control.Name] = cerr.Reason
				continue
			}
			return errSet
		}
	}

	if len(failures) > 0 {
		return &SaveError{Fields: failures}
	}
	return nil
}

// DeleteDynamicValues removes every stored value for a deleted entity, inside
// the caller's transaction.
func (inj *Injector) DeleteDynamicValues(tx *gorm.DB, formType string, entityID uint64) error {
	return inj.values.WithTx(tx).DeleteForEntity(formType, entityID)
}
