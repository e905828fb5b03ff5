package models

import (
	"time"

	"gorm.io/datatypes"
)

// Structural operation identifiers recorded in the migration audit.
const (
	// OperationCreateModel creates a backing table for a dynamic model.
	OperationCreateModel = "create-model"
	// OperationAddField adds a column to a backing table.
	OperationAddField = "add-field"
	// OperationRemoveField drops a column from a backing table.
	OperationRemoveField = "remove-field"
	// OperationAlterField alters an existing column.
	OperationAlterField = "alter-field"
	// OperationDeleteModel drops a backing table.
	OperationDeleteModel = "delete-model"
)

// MigrationRecord is an append-only audit entry for a structural operation.
// Rows are never updated or deleted.
type MigrationRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ModelName     string         `gorm:"type:varchar(100);not null;index"` // Target model or table.
	OperationType string         `gorm:"type:varchar(20);not null"`        // Structural operation kind.
	Payload       datatypes.JSON `gorm:"type:jsonb"`                       // Applied spec or attempted change.
	Success       bool           `gorm:"not null;default:true"`            // Whether the operation applied.
	ErrorMessage  string         `gorm:"type:text"`                        // Engine error on failure.

	AppliedAt time.Time `gorm:"not null;autoCreateTime;index"` // When the operation ran.
}
