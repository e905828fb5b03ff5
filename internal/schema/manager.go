package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Result reports the outcome of an idempotent structural operation.
type Result struct {
	Applied bool // False when the target already matched (no-op).
}

// Manager executes structural database changes through the engine's native
// schema-alteration primitives. Create/add operations are idempotent at the
// boundary: "already exists" is treated the same as "applied".
type Manager struct {
	db *gorm.DB
}

// NewManager constructs a schema manager over the given connection.
func NewManager(conn *gorm.DB) *Manager {
	return &Manager{db: conn}
}

// TableExists reports whether a table is present.
func (m *Manager) TableExists(table string) bool {
	return m.db.Migrator().HasTable(table)
}

// ColumnExists reports whether a column is present on a table.
func (m *Manager) ColumnExists(table, column string) bool {
	if !m.TableExists(table) {
		return false
	}
	columns, err := m.db.Table(table).Migrator().ColumnTypes(table)
	if err != nil {
		log.WithFields(log.Fields{"table": table, "column": column}).
			WithError(err).Warn("schema: column introspection failed")
		return false
	}
	for _, col := range columns {
		if strings.EqualFold(col.Name(), column) {
			return true
		}
	}
	return false
}

// CreateTable creates a backing table with identity and timestamp columns
// plus the given field columns. Returns Applied=false when the table already
// exists. A lost creation race surfaces as ErrConflict, never a corrupt table.
func (m *Manager) CreateTable(modelName, table string, columns []ColumnSpec) (Result, error) {
	if m.TableExists(table) {
		log.WithFields(log.Fields{"table": table, "op": "create-table"}).Info("schema: table already exists")
		return Result{Applied: false}, nil
	}

	value, err := tableModel(columns)
	if err != nil {
		m.record(modelName, models.OperationCreateModel, createPayload(table, columns), err)
		return Result{}, err
	}

	errCreate := m.withForeignKeysDisabled(func(tx *gorm.DB) error {
		return tx.Table(table).Migrator().CreateTable(value)
	})
	if errCreate != nil {
		if isAlreadyExists(errCreate) {
			m.record(modelName, models.OperationCreateModel, createPayload(table, columns), ErrConflict)
			return Result{}, fmt.Errorf("create table %s: %w", table, ErrConflict)
		}
		opErr := &OperationError{Op: "create-table", Table: table, Err: errCreate}
		m.record(modelName, models.OperationCreateModel, createPayload(table, columns), opErr)
		return Result{}, opErr
	}

	m.record(modelName, models.OperationCreateModel, createPayload(table, columns), nil)
	log.WithFields(log.Fields{"table": table, "op": "create-table"}).Info("schema: table created")
	return Result{Applied: true}, nil
}

// AddColumn adds one column to an existing table. Returns Applied=false when
// the column already exists; ErrNotFound when the table does not.
func (m *Manager) AddColumn(modelName, table string, column ColumnSpec) (Result, error) {
	if !m.TableExists(table) {
		err := fmt.Errorf("add column %s.%s: %w", table, column.Name, ErrNotFound)
		m.record(modelName, models.OperationAddField, columnPayload(table, column), err)
		return Result{}, err
	}
	if m.ColumnExists(table, column.Name) {
		log.WithFields(log.Fields{"table": table, "column": column.Name, "op": "add-column"}).
			Info("schema: column already exists")
		return Result{Applied: false}, nil
	}

	value, err := columnModel(column)
	if err != nil {
		m.record(modelName, models.OperationAddField, columnPayload(table, column), err)
		return Result{}, err
	}

	errAdd := m.withForeignKeysDisabled(func(tx *gorm.DB) error {
		return tx.Table(table).Migrator().AddColumn(value, column.Name)
	})
	if errAdd != nil {
		if isAlreadyExists(errAdd) {
			m.record(modelName, models.OperationAddField, columnPayload(table, column), ErrConflict)
			return Result{}, fmt.Errorf("add column %s.%s: %w", table, column.Name, ErrConflict)
		}
		opErr := &OperationError{Op: "add-column", Table: table, Column: column.Name, Err: errAdd}
		m.record(modelName, models.OperationAddField, columnPayload(table, column), opErr)
		return Result{}, opErr
	}

	m.record(modelName, models.OperationAddField, columnPayload(table, column), nil)
	log.WithFields(log.Fields{"table": table, "column": column.Name, "op": "add-column"}).
		Info("schema: column added")
	return Result{Applied: true}, nil
}

// AlterColumn changes an existing column to match the given spec. Missing
// targets are a hard ErrNotFound, not a no-op.
func (m *Manager) AlterColumn(modelName, table string, column ColumnSpec) (Result, error) {
	if !m.ColumnExists(table, column.Name) {
		err := fmt.Errorf("alter column %s.%s: %w", table, column.Name, ErrNotFound)
		m.record(modelName, models.OperationAlterField, columnPayload(table, column), err)
		return Result{}, err
	}

	value, err := columnModel(column)
	if err != nil {
		m.record(modelName, models.OperationAlterField, columnPayload(table, column), err)
		return Result{}, err
	}

	errAlter := m.withForeignKeysDisabled(func(tx *gorm.DB) error {
		return tx.Table(table).Migrator().AlterColumn(value, column.Name)
	})
	if errAlter != nil {
		opErr := &OperationError{Op: "alter-column", Table: table, Column: column.Name, Err: errAlter}
		m.record(modelName, models.OperationAlterField, columnPayload(table, column), opErr)
		return Result{}, opErr
	}

	m.record(modelName, models.OperationAlterField, columnPayload(table, column), nil)
	return Result{Applied: true}, nil
}

// DropColumn removes a column. Missing targets are a hard ErrNotFound.
func (m *Manager) DropColumn(modelName, table, column string) (Result, error) {
	payload := map[string]any{"table": table, "column": column}
	if !m.ColumnExists(table, column) {
		err := fmt.Errorf("drop column %s.%s: %w", table, column, ErrNotFound)
		m.record(modelName, models.OperationRemoveField, payload, err)
		return Result{}, err
	}

	errDrop := m.withForeignKeysDisabled(func(tx *gorm.DB) error {
		return tx.Table(table).Migrator().DropColumn(&struct{}{}, column)
	})
	if errDrop != nil {
		opErr := &OperationError{Op: "drop-column", Table: table, Column: column, Err: errDrop}
		m.record(modelName, models.OperationRemoveField, payload, opErr)
		return Result{}, opErr
	}

	m.record(modelName, models.OperationRemoveField, payload, nil)
	log.WithFields(log.Fields{"table": table, "column": column, "op": "drop-column"}).
		Info("schema: column dropped")
	return Result{Applied: true}, nil
}

// DropTable removes a backing table. Missing targets are a hard ErrNotFound.
func (m *Manager) DropTable(modelName, table string) (Result, error) {
	payload := map[string]any{"table": table}
	if !m.TableExists(table) {
		err := fmt.Errorf("drop table %s: %w", table, ErrNotFound)
		m.record(modelName, models.OperationDeleteModel, payload, err)
		return Result{}, err
	}

	errDrop := m.withForeignKeysDisabled(func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(table)
	})
	if errDrop != nil {
		opErr := &OperationError{Op: "drop-table", Table: table, Err: errDrop}
		m.record(modelName, models.OperationDeleteModel, payload, opErr)
		return Result{}, opErr
	}

	m.record(modelName, models.OperationDeleteModel, payload, nil)
	log.WithFields(log.Fields{"table": table, "op": "drop-table"}).Info("schema: table dropped")
	return Result{Applied: true}, nil
}

// withForeignKeysDisabled runs op with foreign-key enforcement off for
// engines that forbid altering referenced tables mid-transaction (sqlite).
// Enforcement is re-enabled unconditionally, success or failure.
func (m *Manager) withForeignKeysDisabled(op func(tx *gorm.DB) error) error {
	if !internaldb.IsSQLite(m.db) {
		return op(m.db)
	}

	if err := m.db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if err := m.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			log.WithError(err).Error("schema: re-enabling foreign keys failed")
		}
	}()
	return op(m.db)
}

// record appends one MigrationRecord for a completed mutating call.
func (m *Manager) record(modelName, operation string, payload map[string]any, opErr error) {
	encoded, errEncode := json.Marshal(payload)
	if errEncode != nil {
		encoded = []byte("{}")
	}
	rec := models.MigrationRecord{
		ModelName:     modelName,
		OperationType: operation,
		Payload:       datatypes.JSON(encoded),
		Success:       opErr == nil,
		AppliedAt:     time.Now().UTC(),
	}
	if opErr != nil {
		rec.ErrorMessage = opErr.Error()
	}
	if errCreate := m.db.Create(&rec).Error; errCreate != nil {
		log.WithFields(log.Fields{"model": modelName, "op": operation}).
			WithError(errCreate).Error("schema: migration record write failed")
	}
}

// createPayload serializes a create-table spec for the audit trail.
func createPayload(table string, columns []ColumnSpec) map[string]any {
	cols := make([]map[string]any, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, map[string]any{"name": c.Name, "type": c.DataType})
	}
	return map[string]any{"table": table, "columns": cols}
}

// columnPayload serializes a single-column spec for the audit trail.
func columnPayload(table string, column ColumnSpec) map[string]any {
	return map[string]any{"table": table, "column": column.Name, "type": column.DataType}
}

// isAlreadyExists matches engine duplicate-object errors across dialects.
func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}

// tableModel synthesizes a throwaway record type carrying the identity and
// timestamp columns every backing table gets, plus the field columns. The
// type exists only to feed the migrator; row access never goes through it.
func tableModel(columns []ColumnSpec) (any, error) {
	fields := []reflect.StructField{
		{
			Name: "ID",
			Type: reflect.TypeOf(uint64(0)),
			Tag:  `gorm:"column:id;primaryKey;autoIncrement"`,
		},
	}
	for i, col := range columns {
		field, err := structField(col, i)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	fields = append(fields,
		reflect.StructField{
			Name: "CreatedAt",
			Type: reflect.TypeOf(time.Time{}),
			Tag:  `gorm:"column:created_at;autoCreateTime"`,
		},
		reflect.StructField{
			Name: "UpdatedAt",
			Type: reflect.TypeOf(time.Time{}),
			Tag:  `gorm:"column:updated_at;autoUpdateTime"`,
		},
	)
	return reflect.New(reflect.StructOf(fields)).Interface(), nil
}

// columnModel synthesizes a throwaway single-column record type.
func columnModel(column ColumnSpec) (any, error) {
	field, err := structField(column, 0)
	if err != nil {
		return nil, err
	}
	return reflect.New(reflect.StructOf([]reflect.StructField{field})).Interface(), nil
}

// structField converts a column spec into a tagged struct field.
func structField(col ColumnSpec, index int) (reflect.StructField, error) {
	if col.Name == "" || col.GoType == nil || col.DataType == "" {
		return reflect.StructField{}, fmt.Errorf("schema: incomplete column spec %+v", col)
	}
	tag := fmt.Sprintf(`gorm:"column:%s;type:%s"`, col.Name, col.DataType)
	return reflect.StructField{
		Name: fmt.Sprintf("Col%d", index),
		Type: col.GoType,
		Tag:  reflect.StructTag(tag),
	}, nil
}
