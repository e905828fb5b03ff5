package dynmodel

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	adminreg "github.com/lumenhotels/salescrm/internal/admin"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/schema"
	"gorm.io/gorm"
)

func newTestFactory(t *testing.T) (*Factory, *metadata.Store, *adminreg.Registry) {
	t.Helper()
	dsn := fmt.Sprintf("file:dynmodel_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	surfaces := adminreg.NewRegistry()
	return New(conn, meta, schema.NewManager(conn), surfaces), meta, surfaces
}

func seedInvoiceModel(t *testing.T, meta *metadata.Store) *models.ModelDefinition {
	t.Helper()
	model := &models.ModelDefinition{
		Name:             "Invoice",
		Namespace:        "custom",
		BackingTableName: "ext_invoices",
		DisplayName:      "Invoice",
		Active:           true,
	}
	if err := meta.CreateModel(model); err != nil {
		t.Fatalf("create model: %v", err)
	}

	precision, scale := 12, 2
	fields := []*models.FieldDefinition{
		{ModelID: &model.ID, Name: "number", DisplayName: "Number", Type: models.FieldTypeShortText, Required: true, Order: 1},
		{ModelID: &model.ID, Name: "amount", DisplayName: "Amount", Type: models.FieldTypeDecimal, Precision: &precision, Scale: &scale, Order: 2},
		{ModelID: &model.ID, Name: "paid", DisplayName: "Paid", Type: models.FieldTypeBoolean, Order: 3},
		{ModelID: &model.ID, Name: "issued_on", DisplayName: "Issued On", Type: models.FieldTypeDate, Order: 4},
		{ModelID: &model.ID, Name: "remarks", DisplayName: "Remarks", Type: models.FieldTypeLongText, Order: 5},
	}
	for _, field := range fields {
		field.OverrideMode = models.OverrideModePlainCustom
		field.StorageMode = models.StorageModeNativeColumn
		field.Active = true
		if _, err := meta.CreateField(field); err != nil {
			t.Fatalf("create field %s: %v", field.Name, err)
		}
	}
	return model
}

func TestMaterializeCreatesTableAndSurface(t *testing.T) {
	factory, meta, surfaces := newTestFactory(t)
	model := seedInvoiceModel(t, meta)

	descriptor, err := factory.Materialize(model.ID)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if descriptor.Table != "ext_invoices" {
		t.Fatalf("unexpected table %s", descriptor.Table)
	}
	if !factory.schema.TableExists("ext_invoices") {
		t.Fatal("backing table missing")
	}
	for _, column := range []string{"id", "number", "amount", "paid", "issued_on", "remarks", "created_at", "updated_at"} {
		if !factory.schema.ColumnExists("ext_invoices", column) {
			t.Fatalf("missing column %s", column)
		}
	}

	surface, ok := surfaces.Get("custom.Invoice")
	if !ok {
		t.Fatal("admin surface not registered")
	}
	// Long text stays out of list columns; boolean and date become filters.
	for _, column := range surface.ListDisplay {
		if column == "remarks" {
			t.Fatal("long-text field in list display")
		}
	}
	if len(surface.ListFilter) != 2 {
		t.Fatalf("unexpected filters %v", surface.ListFilter)
	}
	if len(surface.Search) != 1 || surface.Search[0] != "number" {
		t.Fatalf("unexpected search fields %v", surface.Search)
	}
}

func TestMaterializeIsIdempotentAndAdditive(t *testing.T) {
	factory, meta, _ := newTestFactory(t)
	model := seedInvoiceModel(t, meta)

	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("repeat materialize: %v", err)
	}

	// A new field definition becomes a new column on the next materialize.
	due := &models.FieldDefinition{
		ModelID:      &model.ID,
		Name:         "due_on",
		DisplayName:  "Due On",
		Type:         models.FieldTypeDate,
		OverrideMode: models.OverrideModePlainCustom,
		StorageMode:  models.StorageModeNativeColumn,
		Active:       true,
	}
	if _, err := meta.CreateField(due); err != nil {
		t.Fatalf("create field: %v", err)
	}
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize after field add: %v", err)
	}
	if !factory.schema.ColumnExists("ext_invoices", "due_on") {
		t.Fatal("new column not added")
	}
}

func TestRecordLifecycle(t *testing.T) {
	factory, meta, _ := newTestFactory(t)
	model := seedInvoiceModel(t, meta)
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	id, errCreate := factory.CreateRecord("custom.Invoice", map[string]any{
		"number": "INV-2026-001",
		"amount": 1250.50,
		"paid":   false,
	})
	if errCreate != nil {
		t.Fatalf("create record: %v", errCreate)
	}
	if id == 0 {
		t.Fatal("no record id")
	}

	record, errGet := factory.GetRecord("custom.Invoice", id)
	if errGet != nil {
		t.Fatalf("get record: %v", errGet)
	}
	if number, _ := record.String("number"); number != "INV-2026-001" {
		t.Fatalf("unexpected number %v", record["number"])
	}
	if amount, ok := record.Float("amount"); !ok || amount != 1250.50 {
		t.Fatalf("unexpected amount %v", record["amount"])
	}

	if err := factory.UpdateRecord("custom.Invoice", id, map[string]any{"paid": true}); err != nil {
		t.Fatalf("update record: %v", err)
	}
	record, _ = factory.GetRecord("custom.Invoice", id)
	if paid, ok := record.Bool("paid"); !ok || !paid {
		t.Fatalf("update not applied: %v", record["paid"])
	}

	records, errList := factory.ListRecords("custom.Invoice", 10, 0)
	if errList != nil {
		t.Fatalf("list records: %v", errList)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if err := factory.DeleteRecord("custom.Invoice", id); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if _, err := factory.GetRecord("custom.Invoice", id); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	factory, meta, _ := newTestFactory(t)
	model := seedInvoiceModel(t, meta)
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	var unknown *ErrUnknownField
	_, err := factory.CreateRecord("custom.Invoice", map[string]any{"surprise": 1})
	if !errors.As(err, &unknown) {
		t.Fatalf("expected unknown-field error, got %v", err)
	}
}

func TestDestroyUnregistersSurface(t *testing.T) {
	factory, meta, surfaces := newTestFactory(t)
	model := seedInvoiceModel(t, meta)
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if err := factory.Destroy(model.ID, true); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, ok := surfaces.Get("custom.Invoice"); ok {
		t.Fatal("surface survived destroy")
	}
	if factory.schema.TableExists("ext_invoices") {
		t.Fatal("backing table survived destroy")
	}
}

func TestCreateRecordReturnsInsertedID(t *testing.T) {
	factory, meta, _ := newTestFactory(t)
	model := seedInvoiceModel(t, meta)
	if _, err := factory.Materialize(model.ID); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	first, errFirst := factory.CreateRecord("custom.Invoice", map[string]any{"number": "INV-1"})
	if errFirst != nil {
		t.Fatalf("create first: %v", errFirst)
	}
	second, errSecond := factory.CreateRecord("custom.Invoice", map[string]any{"number": "INV-2"})
	if errSecond != nil {
		t.Fatalf("create second: %v", errSecond)
	}
	if second == first {
		t.Fatal("duplicate record id")
	}

	// The returned id must identify this insert, not whichever row happens
	// to carry the highest id at read time.
	if err := factory.DeleteRecord("custom.Invoice", second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, errThird := factory.CreateRecord("custom.Invoice", map[string]any{"number": "INV-3"})
	if errThird != nil {
		t.Fatalf("create third: %v", errThird)
	}
	record, errGet := factory.GetRecord("custom.Invoice", third)
	if errGet != nil {
		t.Fatalf("get third: %v", errGet)
	}
	if number, _ := record.String("number"); number != "INV-3" {
		t.Fatalf("id points at the wrong row: %v", record["number"])
	}
}
