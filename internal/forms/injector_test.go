package forms

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"github.com/lumenhotels/salescrm/internal/schema"
	"github.com/lumenhotels/salescrm/internal/valuestore"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	conn     *gorm.DB
	meta     *metadata.Store
	resolver *resolver.Resolver
	injector *Injector
	section  *models.SectionDefinition
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:forms_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	registry := metadata.NewRegistry()
	if err := registry.Register("crm.request", &models.Request{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	meta := metadata.NewStore(conn, registry)
	r := resolver.New(conn, meta, nil)
	values := valuestore.NewStore(conn)

	section := &models.SectionDefinition{
		Name:             "request_extras",
		DisplayName:      "Request Extras",
		IsCoreSection:    true,
		SourceEntityType: "crm.request",
		Active:           true,
	}
	if err := meta.CreateSection(section); err != nil {
		t.Fatalf("create section: %v", err)
	}

	return &fixture{
		conn:     conn,
		meta:     meta,
		resolver: r,
		injector: NewInjector(r, values, meta),
		section:  section,
	}
}

func (fx *fixture) createField(t *testing.T, field *models.FieldDefinition) {
	t.Helper()
	field.SectionID = &fx.section.ID
	field.Active = true
	if _, err := fx.meta.CreateField(field); err != nil {
		t.Fatalf("create field %s: %v", field.Name, err)
	}
	fx.resolver.Invalidate("crm.request")
}

func nativeForm() *Form {
	return &Form{
		FormType: "crm.request",
		Controls: []Control{
			{Spec: schema.ControlSpec{Name: "notes", Label: "Notes", Kind: schema.ControlTextarea}, Native: true},
			{Spec: schema.ControlSpec{Name: "account_id", Label: "Account", Kind: schema.ControlRelationPicker, Required: true}, Native: true},
			{Spec: schema.ControlSpec{Name: "meal_plan", Label: "Meal Plan", Kind: schema.ControlTextInput, Required: true}, Native: true},
		},
	}
}

func TestInjectAppendsCustomFields(t *testing.T) {
	fx := newFixture(t)
	fx.createField(t, &models.FieldDefinition{
		Name:         "airport_transfer",
		DisplayName:  "Airport Transfer",
		Type:         models.FieldTypeBoolean,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	})

	form := nativeForm()
	if err := fx.injector.Inject(form); err != nil {
		t.Fatalf("inject: %v", err)
	}

	control, ok := form.Control("airport_transfer")
	if !ok {
		t.Fatal("custom field not injected")
	}
	if control.Native || control.FieldID == 0 {
		t.Fatalf("unexpected control %+v", control)
	}
	if control.Spec.Kind != schema.ControlCheckbox {
		t.Fatalf("unexpected control kind %s", control.Spec.Kind)
	}
}

func TestInjectOverrideReplacesNativeControl(t *testing.T) {
	fx := newFixture(t)
	fx.createField(t, &models.FieldDefinition{
		Name:                "notes_select",
		DisplayName:         "Handling Notes",
		Type:                models.FieldTypeSingleChoice,
		OverrideMode:        models.OverrideModeExisting,
		NativeAttributeName: "notes",
		StorageMode:         models.StorageModeNativeColumn,
		Choices:             mustChoices(t, "standard", "vip"),
	})

	form := nativeForm()
	if err := fx.injector.Inject(form); err != nil {
		t.Fatalf("inject: %v", err)
	}

	control, ok := form.Control("notes")
	if !ok {
		t.Fatal("native control lost")
	}
	if !control.Overridden {
		t.Fatal("control not marked overridden")
	}
	if control.Spec.Kind != schema.ControlSelect {
		t.Fatalf("presentation not replaced: %s", control.Spec.Kind)
	}
	if control.Spec.Label != "Handling Notes" {
		t.Fatalf("label not replaced: %s", control.Spec.Label)
	}
	// Save path identity stays the native column name.
	if control.Spec.Name != "notes" {
		t.Fatalf("control renamed to %s", control.Spec.Name)
	}
}

func TestInjectIgnoresRelationshipOverride(t *testing.T) {
	fx := newFixture(t)
	fx.createField(t, &models.FieldDefinition{
		Name:                "account_picker",
		DisplayName:         "Account Picker",
		Type:                models.FieldTypeShortText,
		OverrideMode:        models.OverrideModeExisting,
		NativeAttributeName: "account_id",
		StorageMode:         models.StorageModeNativeColumn,
	})

	form := nativeForm()
	if err := fx.injector.Inject(form); err != nil {
		t.Fatalf("inject: %v", err)
	}

	control, ok := form.Control("account_id")
	if !ok {
		t.Fatal("native relationship control lost")
	}
	if control.Overridden {
		t.Fatal("relationship control was overridden")
	}
	if control.Spec.Kind != schema.ControlRelationPicker {
		t.Fatalf("relationship presentation changed: %s", control.Spec.Kind)
	}
}

func TestInjectAppliesRequirements(t *testing.T) {
	fx := newFixture(t)
	requirements := []models.FieldRequirement{
		{FormType: "crm.request", FieldName: "notes", FieldLabel: "Internal Notes", Required: true, Enabled: true, SectionName: "Details"},
		{FormType: "crm.request", FieldName: "meal_plan", FieldLabel: "Meal Plan", Enabled: false},
	}
	for i := range requirements {
		if err := fx.conn.Create(&requirements[i]).Error; err != nil {
			t.Fatalf("create requirement: %v", err)
		}
	}

	form := nativeForm()
	if err := fx.injector.Inject(form); err != nil {
		t.Fatalf("inject: %v", err)
	}

	notes, ok := form.Control("notes")
	if !ok {
		t.Fatal("notes control lost")
	}
	if !notes.Spec.Required || notes.Spec.Label != "Internal Notes" || notes.SectionName != "Details" {
		t.Fatalf("requirement not applied: %+v", notes)
	}
	if _, still := form.Control("meal_plan"); still {
		t.Fatal("disabled control still on form")
	}
}

func TestInjectLoadsStoredValues(t *testing.T) {
	fx := newFixture(t)
	field := &models.FieldDefinition{
		Name:         "commission_rate",
		DisplayName:  "Commission Rate",
		Type:         models.FieldTypeDecimal,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	}
	fx.createField(t, field)

	values := valuestore.NewStore(fx.conn)
	if err := values.Set(field, "crm.request", 42, 7.25); err != nil {
		t.Fatalf("seed value: %v", err)
	}

	form := nativeForm()
	form.EntityID = 42
	if err := fx.injector.Inject(form); err != nil {
		t.Fatalf("inject: %v", err)
	}

	control, ok := form.Control("commission_rate")
	if !ok {
		t.Fatal("field not injected")
	}
	if control.Value != 7.25 {
		t.Fatalf("stored value not loaded: %v", control.Value)
	}
}

func TestSaveDynamicValuesEndToEnd(t *testing.T) {
	fx := newFixture(t)
	field := &models.FieldDefinition{
		Name:         "commission_rate",
		DisplayName:  "Commission Rate",
		Type:         models.FieldTypeDecimal,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	}
	fx.createField(t, field)

	err := fx.conn.Transaction(func(tx *gorm.DB) error {
		return fx.injector.SaveDynamicValues(tx, "crm.request", 42, map[string]any{
			"commission_rate": "8.75",
		})
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	values := valuestore.NewStore(fx.conn)
	stored, errGet := values.Get(field, "crm.request", 42)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if stored != 8.75 {
		t.Fatalf("unexpected stored value %v", stored)
	}
}

func TestSaveDynamicValuesRollsBackWithTransaction(t *testing.T) {
	fx := newFixture(t)
	field := &models.FieldDefinition{
		Name:         "commission_rate",
		DisplayName:  "Commission Rate",
		Type:         models.FieldTypeDecimal,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	}
	fx.createField(t, field)

	boom := errors.New("native save failed")
	err := fx.conn.Transaction(func(tx *gorm.DB) error {
		if errSave := fx.injector.SaveDynamicValues(tx, "crm.request", 42, map[string]any{
			"commission_rate": 8.75,
		}); errSave != nil {
			return errSave
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected rollback trigger, got %v", err)
	}

	values := valuestore.NewStore(fx.conn)
	if _, errGet := values.Get(field, "crm.request", 42); !errors.Is(errGet, valuestore.ErrNotFound) {
		t.Fatalf("value survived rollback: %v", errGet)
	}
}

func TestSaveDynamicValuesAggregatesFailures(t *testing.T) {
	fx := newFixture(t)
	fx.createField(t, &models.FieldDefinition{
		Name:         "room_count",
		DisplayName:  "Room Count",
		Type:         models.FieldTypeInteger,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	})
	fx.createField(t, &models.FieldDefinition{
		Name:         "checkin_time",
		DisplayName:  "Check-in Time",
		Type:         models.FieldTypeTime,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
	})

	var saveErr *SaveError
	err := fx.conn.Transaction(func(tx *gorm.DB) error {
		return fx.injector.SaveDynamicValues(tx, "crm.request", 1, map[string]any{
			"room_count":   "many",
			"checkin_time": "25:99",
		})
	})
	if !errors.As(err, &saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(saveErr.Fields) != 2 {
		t.Fatalf("expected 2 field failures, got %v", saveErr.Fields)
	}
}

func mustChoices(t *testing.T, values ...string) datatypes.JSON {
	t.Helper()
	f := &models.FieldDefinition{}
	choices := make([]models.Choice, 0, len(values))
	for _, v := range values {
		choices = append(choices, models.Choice{Value: v, Label: v})
	}
	if err := f.SetChoiceList(choices); err != nil {
		t.Fatalf("choices: %v", err)
	}
	return f.Choices
}
