package valuestore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:valuestore_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createField(t *testing.T, conn *gorm.DB, name string, ft models.FieldType) *models.FieldDefinition {
	t.Helper()
	sectionID := createSection(t, conn)
	f := &models.FieldDefinition{
		SectionID:   &sectionID,
		Name:        name,
		DisplayName: name,
		Type:        ft,
		Active:      true,
	}
	if ft == models.FieldTypeSingleChoice || ft == models.FieldTypeMultiChoice {
		if err := f.SetChoiceList([]models.Choice{
			{Value: "gold", Label: "Gold"},
			{Value: "silver", Label: "Silver"},
		}); err != nil {
			t.Fatalf("set choices: %v", err)
		}
	}
	if err := conn.Create(f).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}
	return f
}

var sectionSeq uint64

func createSection(t *testing.T, conn *gorm.DB) uint64 {
	t.Helper()
	sectionSeq++
	section := &models.SectionDefinition{
		Name:             fmt.Sprintf("section_%d", sectionSeq),
		DisplayName:      "Section",
		IsCoreSection:    true,
		SourceEntityType: "crm.account",
		Active:           true,
	}
	if err := conn.Create(section).Error; err != nil {
		t.Fatalf("create section: %v", err)
	}
	return section.ID
}

func TestRoundTripAllTypes(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)

	date, _ := time.Parse("2006-01-02", "2026-03-15")
	moment, _ := time.Parse(time.RFC3339, "2026-03-15T09:30:00Z")
	cases := []struct {
		name string
		ft   models.FieldType
		in   any
		want any
	}{
		{"nickname", models.FieldTypeShortText, "Grand Plaza", "Grand Plaza"},
		{"rooms", models.FieldTypeInteger, int64(42), int64(42)},
		{"commission", models.FieldTypeDecimal, 12.5, 12.5},
		{"score", models.FieldTypeFloat, 0.875, 0.875},
		{"vip", models.FieldTypeBoolean, true, true},
		{"opened", models.FieldTypeDate, date, date},
		{"reviewed", models.FieldTypeDatetime, moment, moment},
		{"checkin", models.FieldTypeTime, "14:00", "14:00"},
		{"contract", models.FieldTypeFile, "contracts/2026/plaza.pdf", "contracts/2026/plaza.pdf"},
		{"tier", models.FieldTypeSingleChoice, "gold", "gold"},
	}
	for _, tc := range cases {
		field := createField(t, conn, tc.name, tc.ft)
		if err := store.Set(field, "crm.account", 7, tc.in); err != nil {
			t.Fatalf("%s: set: %v", tc.name, err)
		}
		got, errGet := store.Get(field, "crm.account", 7)
		if errGet != nil {
			t.Fatalf("%s: get: %v", tc.name, errGet)
		}
		switch want := tc.want.(type) {
		case time.Time:
			gotTime, ok := got.(time.Time)
			if !ok || !gotTime.Equal(want) {
				t.Fatalf("%s: got %v want %v", tc.name, got, want)
			}
		default:
			if got != tc.want {
				t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
			}
		}
	}
}

func TestMultiChoiceRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	field := createField(t, conn, "tiers", models.FieldTypeMultiChoice)

	if err := store.Set(field, "crm.account", 3, []string{"gold", "silver"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, errGet := store.Get(field, "crm.account", 3)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	list, ok := got.([]any)
	if !ok || len(list) != 2 || list[0] != "gold" || list[1] != "silver" {
		t.Fatalf("unexpected value %v", got)
	}

	var cerr *CoercionError
	if err := store.Set(field, "crm.account", 3, []string{"bronze"}); !errors.As(err, &cerr) {
		t.Fatalf("expected coercion error for unlisted choice, got %v", err)
	}
}

func TestSetReplacesSlotOnTypeChange(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	field := createField(t, conn, "budget", models.FieldTypeShortText)

	if err := store.Set(field, "crm.request", 11, "unknown"); err != nil {
		t.Fatalf("set text: %v", err)
	}

	// Definition retyped in place; the old text slot must be cleared.
	field.Type = models.FieldTypeInteger
	if err := store.Set(field, "crm.request", 11, int64(90000)); err != nil {
		t.Fatalf("set integer: %v", err)
	}

	var row models.FieldValue
	if err := conn.Where("entity_type = ? AND entity_id = ? AND field_id = ?",
		"crm.request", 11, field.ID).First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.ValueText != nil {
		t.Fatal("stale text slot survived type change")
	}
	if row.ValueInteger == nil || *row.ValueInteger != 90000 {
		t.Fatalf("integer slot not populated: %+v", row)
	}
}

func TestSetNilDeletesRow(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	field := createField(t, conn, "notes", models.FieldTypeLongText)

	if err := store.Set(field, "crm.account", 5, "call back in May"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(field, "crm.account", 5, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(field, "crm.account", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteForEntityCascades(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	name := createField(t, conn, "alias", models.FieldTypeShortText)
	rooms := createField(t, conn, "room_count", models.FieldTypeInteger)

	if err := store.Set(name, "crm.account", 9, "Plaza"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(rooms, "crm.account", 9, int64(120)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(name, "crm.account", 10, "Other"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.DeleteForEntity("crm.account", 9); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	if err := conn.Model(&models.FieldValue{}).
		Where("entity_type = ? AND entity_id = ?", "crm.account", 9).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 rows for deleted entity, got %d", count)
	}

	// Sibling entity values survive.
	if _, err := store.Get(name, "crm.account", 10); err != nil {
		t.Fatalf("sibling value lost: %v", err)
	}
}

func TestCoercionFailures(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)

	var cerr *CoercionError
	rooms := createField(t, conn, "room_count", models.FieldTypeInteger)
	if err := store.Set(rooms, "crm.account", 1, "many"); !errors.As(err, &cerr) {
		t.Fatalf("expected coercion error, got %v", err)
	}

	checkin := createField(t, conn, "checkin_at", models.FieldTypeTime)
	if err := store.Set(checkin, "crm.account", 1, "25:99"); !errors.As(err, &cerr) {
		t.Fatalf("expected coercion error, got %v", err)
	}

	tier := createField(t, conn, "tier", models.FieldTypeSingleChoice)
	if err := store.Set(tier, "crm.account", 1, "platinum"); !errors.As(err, &cerr) {
		t.Fatalf("expected coercion error for unlisted choice, got %v", err)
	}
}
