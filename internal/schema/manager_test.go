package schema

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
	dsn := fmt.Sprintf("file:schema_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func invoiceColumns(t *testing.T) []ColumnSpec {
	t.Helper()
	amount := 12
	scale := 2
	specs := make([]ColumnSpec, 0, 2)
	for _, f := range []*models.FieldDefinition{
		{Name: "number", Type: models.FieldTypeShortText},
		{Name: "amount", Type: models.FieldTypeDecimal, Precision: &amount, Scale: &scale},
	} {
		col, err := ColumnSpecFor(f)
		if err != nil {
			t.Fatalf("column for %s: %v", f.Name, err)
		}
		specs = append(specs, col)
	}
	return specs
}

func TestCreateTableIdempotent(t *testing.T) {
	conn := openTestDB(t)
	mgr := NewManager(conn)

	first, errFirst := mgr.CreateTable("Invoice", "ext_invoices", invoiceColumns(t))
	if errFirst != nil {
		t.Fatalf("create: %v", errFirst)
	}
	if !first.Applied {
		t.Fatal("first create should apply")
	}
	for _, column := range []string{"id", "number", "amount", "created_at", "updated_at"} {
		if !mgr.ColumnExists("ext_invoices", column) {
			t.Fatalf("missing column %s", column)
		}
	}

	second, errSecond := mgr.CreateTable("Invoice", "ext_invoices", invoiceColumns(t))
	if errSecond != nil {
		t.Fatalf("repeat create: %v", errSecond)
	}
	if second.Applied {
		t.Fatal("repeat create should be a no-op")
	}
}

func TestAddColumnIdempotent(t *testing.T) {
	conn := openTestDB(t)
	mgr := NewManager(conn)
	if _, err := mgr.CreateTable("Invoice", "ext_invoices", invoiceColumns(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	col, errCol := ColumnSpecFor(&models.FieldDefinition{Name: "paid", Type: models.FieldTypeBoolean})
	if errCol != nil {
		t.Fatalf("column spec: %v", errCol)
	}

	first, errFirst := mgr.AddColumn("Invoice", "ext_invoices", col)
	if errFirst != nil {
		t.Fatalf("add: %v", errFirst)
	}
	if !first.Applied {
		t.Fatal("first add should apply")
	}

	second, errSecond := mgr.AddColumn("Invoice", "ext_invoices", col)
	if errSecond != nil {
		t.Fatalf("repeat add: %v", errSecond)
	}
	if second.Applied {
		t.Fatal("repeat add should be a no-op")
	}
}

func TestAddColumnMissingTable(t *testing.T) {
	conn := openTestDB(t)
	mgr := NewManager(conn)

	col, errCol := ColumnSpecFor(&models.FieldDefinition{Name: "paid", Type: models.FieldTypeBoolean})
	if errCol != nil {
		t.Fatalf("column spec: %v", errCol)
	}
	if _, err := mgr.AddColumn("Invoice", "ext_missing", col); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropColumnAndTable(t *testing.T) {
	conn := openTestDB(t)
	mgr := NewManager(conn)
	if _, err := mgr.CreateTable("Invoice", "ext_invoices", invoiceColumns(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, errDrop := mgr.DropColumn("Invoice", "ext_invoices", "amount")
	if errDrop != nil {
		t.Fatalf("drop column: %v", errDrop)
	}
	if !res.Applied {
		t.Fatal("drop column should apply")
	}
	if mgr.ColumnExists("ext_invoices", "amount") {
		t.Fatal("column still present after drop")
	}
	if _, err := mgr.DropColumn("Invoice", "ext_invoices", "amount"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := mgr.DropTable("Invoice", "ext_invoices"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if mgr.TableExists("ext_invoices") {
		t.Fatal("table still present after drop")
	}
	if _, err := mgr.DropTable("Invoice", "ext_invoices"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrationRecordsWritten(t *testing.T) {
	conn := openTestDB(t)
	mgr := NewManager(conn)
	if _, err := mgr.CreateTable("Invoice", "ext_invoices", invoiceColumns(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	var records []models.MigrationRecord
	if err := conn.Order("id asc").Find(&records).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ModelName != "Invoice" || rec.OperationType != models.OperationCreateModel || !rec.Success {
		t.Fatalf("unexpected record %+v", rec)
	}

	// Failed operations are recorded too.
	_, _ = mgr.DropTable("Invoice", "ext_ghost")
	var failed models.MigrationRecord
	if err := conn.Where("success = ?", false).First(&failed).Error; err != nil {
		t.Fatalf("load failed record: %v", err)
	}
	if failed.OperationType != models.OperationDeleteModel || failed.ErrorMessage == "" {
		t.Fatalf("unexpected failed record %+v", failed)
	}
}
