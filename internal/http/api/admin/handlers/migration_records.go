package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/gorm"
)

// MigrationRecordHandler serves the structural operation audit trail.
type MigrationRecordHandler struct {
	db *gorm.DB
}

// NewMigrationRecordHandler constructs a MigrationRecordHandler.
func NewMigrationRecordHandler(db *gorm.DB) *MigrationRecordHandler {
	return &MigrationRecordHandler{db: db}
}

// List pages through migration records, newest first. Supports filtering by
// model name, operation type, success flag and the table recorded in the
// operation payload.
func (h *MigrationRecordHandler) List(c *gin.Context) {
	limit, offset := queryLimitOffset(c)

	query := h.db.WithContext(c.Request.Context()).Model(&models.MigrationRecord{})
	if model := strings.TrimSpace(c.Query("model")); model != "" {
		query = query.Where("model_name = ?", model)
	}
	if op := strings.TrimSpace(c.Query("operation")); op != "" {
		query = query.Where("operation_type = ?", op)
	}
	if success := c.Query("success"); success != "" {
		query = query.Where("success = ?", success == "true")
	}
	if table := strings.TrimSpace(c.Query("table")); table != "" {
		query = query.Where(internaldb.JSONFieldExpr(h.db, "payload", "table")+" = ?", table)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errCount.Error()})
		return
	}

	var rows []models.MigrationRecord
	err := query.Order("id desc").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": rows,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
