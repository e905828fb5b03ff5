package db

import (
	"fmt"

	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/gorm"
)

// Migrate applies the base schema for native CRM entities and the
// dynamic-schema metadata tables. Dynamically materialized model tables are
// created later by the schema manager, never here.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	targets := []any{
		&models.Operator{},
		&models.Account{},
		&models.Request{},
		&models.Agreement{},
		&models.SalesCall{},
		&models.RoomType{},
		&models.RoomOccupancy{},
		&models.CancellationReason{},
		&models.SectionDefinition{},
		&models.ModelDefinition{},
		&models.FieldDefinition{},
		&models.FieldValue{},
		&models.FieldRequirement{},
		&models.FormLayout{},
		&models.MigrationRecord{},
	}
	if err := conn.AutoMigrate(targets...); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
