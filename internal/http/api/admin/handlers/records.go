package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	adminreg "github.com/lumenhotels/salescrm/internal/admin"
	"github.com/lumenhotels/salescrm/internal/dynmodel"
	"github.com/lumenhotels/salescrm/internal/valuestore"
	"gorm.io/gorm"
)

// RecordHandler serves CRUD over materialized dynamic model rows.
type RecordHandler struct {
	db       *gorm.DB
	factory  *dynmodel.Factory
	surfaces *adminreg.Registry
}

// NewRecordHandler constructs a RecordHandler.
func NewRecordHandler(db *gorm.DB, factory *dynmodel.Factory, surfaces *adminreg.Registry) *RecordHandler {
	return &RecordHandler{db: db, factory: factory, surfaces: surfaces}
}

// List pages through records, optionally filtered by a search term over
// the model's admin surface search columns.
func (h *RecordHandler) List(c *gin.Context) {
	formType := c.Param("formType")
	limit, offset := queryLimitOffset(c)

	records, err := h.factory.SearchRecords(formType, c.Query("q"), limit, offset)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	surface, _ := h.surfaces.Get(formType)
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"surface": surface,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get returns one record.
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	record, err := h.factory.GetRecord(c.Param("formType"), id)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

// Create inserts a record from the submitted values.
func (h *RecordHandler) Create(c *gin.Context) {
	var values map[string]any
	if errBind := c.ShouldBindJSON(&values); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	id, err := h.factory.CreateRecord(c.Param("formType"), values)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update applies a partial update to a record.
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var values map[string]any
	if errBind := c.ShouldBindJSON(&values); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.factory.UpdateRecord(c.Param("formType"), id, values); err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a record.
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.factory.DeleteRecord(c.Param("formType"), id); err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// respondRecordError maps record access errors to HTTP responses.
func respondRecordError(c *gin.Context, err error) {
	var unknown *dynmodel.ErrUnknownField
	var coercion *valuestore.CoercionError
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": unknown.Error()})
	case errors.As(err, &coercion):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": coercion.Error()})
	case errors.Is(err, dynmodel.ErrRecordNotFound), errors.Is(err, dynmodel.ErrNotMaterialized):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		respondMetadataError(c, err)
	}
}
