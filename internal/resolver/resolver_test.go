package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB, *metadata.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:resolver_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	registry := metadata.NewRegistry()
	if err := registry.Register("crm.account", &models.Account{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	meta := metadata.NewStore(conn, registry)
	return New(conn, meta, nil), conn, meta
}

func seedSectionWithField(t *testing.T, meta *metadata.Store, fieldName string) *models.FieldDefinition {
	t.Helper()
	section := &models.SectionDefinition{
		Name:             "account_extras",
		DisplayName:      "Account Extras",
		IsCoreSection:    true,
		SourceEntityType: "crm.account",
		Active:           true,
	}
	if err := meta.CreateSection(section); err != nil {
		t.Fatalf("create section: %v", err)
	}

	field := &models.FieldDefinition{
		SectionID:    &section.ID,
		Name:         fieldName,
		DisplayName:  "Loyalty Tier",
		Type:         models.FieldTypeShortText,
		Required:     true,
		OverrideMode: models.OverrideModeCreateNew,
		StorageMode:  models.StorageModeValueStore,
		Active:       true,
	}
	if _, err := meta.CreateField(field); err != nil {
		t.Fatalf("create field: %v", err)
	}
	return field
}

func TestResolveMergesRequirementsAndFields(t *testing.T) {
	r, conn, meta := newTestResolver(t)
	seedSectionWithField(t, meta, "loyalty_tier")

	requirement := models.FieldRequirement{
		FormType:    "crm.account",
		FieldName:   "phone",
		FieldLabel:  "Phone",
		Required:    true,
		Enabled:     true,
		SectionName: "Basic Information",
	}
	if err := conn.Create(&requirement).Error; err != nil {
		t.Fatalf("create requirement: %v", err)
	}

	cfg, err := r.Resolve("crm.account")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.FormType != "crm.account" {
		t.Fatalf("unexpected form type %s", cfg.FormType)
	}
	if len(cfg.Requirements) != 1 || cfg.Requirements[0].FieldName != "phone" {
		t.Fatalf("requirements not resolved: %+v", cfg.Requirements)
	}
	field, ok := cfg.Field("loyalty_tier")
	if !ok {
		t.Fatal("dynamic field not resolved")
	}
	if !field.Control.Required {
		t.Fatal("requiredness lost in resolution")
	}
}

func TestResolveCachesUntilInvalidated(t *testing.T) {
	r, _, meta := newTestResolver(t)
	field := seedSectionWithField(t, meta, "loyalty_tier")

	first, err := r.Resolve("crm.account")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(first.Fields()) != 1 {
		t.Fatalf("expected 1 field, got %d", len(first.Fields()))
	}

	// A metadata change without invalidation is not yet visible.
	if _, err := meta.DeactivateField(field.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	cached, _ := r.Resolve("crm.account")
	if len(cached.Fields()) != 1 {
		t.Fatal("cache served a rebuilt configuration")
	}

	r.Invalidate("crm.account")
	fresh, _ := r.Resolve("crm.account")
	if len(fresh.Fields()) != 0 {
		t.Fatal("deactivated field survived invalidation")
	}
}

func TestInvalidateIsScopedToFormType(t *testing.T) {
	r, _, meta := newTestResolver(t)
	seedSectionWithField(t, meta, "loyalty_tier")

	if _, err := r.Resolve("crm.account"); err != nil {
		t.Fatalf("resolve account: %v", err)
	}
	if _, err := r.Resolve("crm.request"); err != nil {
		t.Fatalf("resolve request: %v", err)
	}

	cache, ok := r.cache.(*MemoryCache)
	if !ok {
		t.Fatal("expected memory cache")
	}
	r.Invalidate("crm.account")
	if _, stillCached := cache.Get("crm.request"); !stillCached {
		t.Fatal("invalidation leaked into unrelated form type")
	}
	if _, gone := cache.Get("crm.account"); gone {
		t.Fatal("invalidated entry still cached")
	}
}

func TestResolveAppliesLayout(t *testing.T) {
	r, conn, meta := newTestResolver(t)
	seedSectionWithField(t, meta, "loyalty_tier")

	sections, _ := json.Marshal([]models.LayoutSection{
		{Name: "Loyalty", Fields: []string{"loyalty_tier"}, Order: 1, Collapsed: true},
	})
	layout := models.FormLayout{
		FormType: "crm.account",
		Sections: datatypes.JSON(sections),
		Active:   true,
	}
	if err := conn.Create(&layout).Error; err != nil {
		t.Fatalf("create layout: %v", err)
	}

	cfg, err := r.Resolve("crm.account")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cfg.Sections) != 1 {
		t.Fatalf("expected 1 layout section, got %d", len(cfg.Sections))
	}
	section := cfg.Sections[0]
	if section.Name != "Loyalty" || !section.Collapsed {
		t.Fatalf("layout not applied: %+v", section)
	}
	if len(section.Fields) != 1 || section.Fields[0].Control.Name != "loyalty_tier" {
		t.Fatalf("field not regrouped: %+v", section.Fields)
	}
}

func TestValidateRequired(t *testing.T) {
	r, conn, meta := newTestResolver(t)
	seedSectionWithField(t, meta, "loyalty_tier")

	requirement := models.FieldRequirement{
		FormType:   "crm.account",
		FieldName:  "phone",
		FieldLabel: "Phone",
		Required:   true,
		Enabled:    true,
	}
	if err := conn.Create(&requirement).Error; err != nil {
		t.Fatalf("create requirement: %v", err)
	}

	var missing *MissingRequiredError
	err := r.ValidateRequired("crm.account", map[string]any{"loyalty_tier": "  "})
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing-required error, got %v", err)
	}
	if len(missing.Fields) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing.Fields)
	}

	err = r.ValidateRequired("crm.account", map[string]any{
		"loyalty_tier": "gold",
		"phone":        "+30 210 1234567",
	})
	if err != nil {
		t.Fatalf("complete submission rejected: %v", err)
	}
}
