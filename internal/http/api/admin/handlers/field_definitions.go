package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/dynmodel"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
)

// FieldHandler manages field definitions.
type FieldHandler struct {
	meta     *metadata.Store
	factory  *dynmodel.Factory
	resolver *resolver.Resolver
}

// NewFieldHandler constructs a FieldHandler.
func NewFieldHandler(meta *metadata.Store, factory *dynmodel.Factory, r *resolver.Resolver) *FieldHandler {
	return &FieldHandler{meta: meta, factory: factory, resolver: r}
}

// fieldRequest defines the request body for field create/update.
type fieldRequest struct {
	SectionID *uint64 `json:"section_id"`
	ModelID   *uint64 `json:"model_id"`

	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`

	Required     bool   `json:"required"`
	DefaultValue string `json:"default_value"`
	HelpText     string `json:"help_text"`

	MaxLength *int `json:"max_length"`
	Precision *int `json:"precision"`
	Scale     *int `json:"scale"`

	Choices      []models.Choice `json:"choices"`
	TargetEntity string          `json:"target_entity"`

	OverrideMode        string `json:"override_mode"`
	NativeAttributeName string `json:"native_attribute_name"`
	StorageMode         string `json:"storage_mode"`

	Order uint `json:"order"`
}

func (body *fieldRequest) apply(field *models.FieldDefinition) error {
	field.SectionID = body.SectionID
	field.ModelID = body.ModelID
	field.Name = body.Name
	field.DisplayName = body.DisplayName
	field.Type = models.FieldType(body.Type)
	field.Required = body.Required
	field.DefaultValue = body.DefaultValue
	field.HelpText = body.HelpText
	field.MaxLength = body.MaxLength
	field.Precision = body.Precision
	field.Scale = body.Scale
	field.TargetEntity = body.TargetEntity
	field.Order = body.Order

	field.OverrideMode = models.OverrideMode(body.OverrideMode)
	if field.OverrideMode == "" {
		field.OverrideMode = models.OverrideModePlainCustom
	}
	field.StorageMode = models.StorageMode(body.StorageMode)
	if field.StorageMode == "" {
		if field.ModelID != nil || field.OverrideMode == models.OverrideModeExisting {
			field.StorageMode = models.StorageModeNativeColumn
		} else {
			field.StorageMode = models.StorageModeValueStore
		}
	}
	field.NativeAttributeName = body.NativeAttributeName

	if body.Choices != nil {
		return field.SetChoiceList(body.Choices)
	}
	return nil
}

// Get returns one field definition.
func (h *FieldHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	field, err := h.meta.GetField(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": field})
}

// Create validates and persists a new field definition.
func (h *FieldHandler) Create(c *gin.Context) {
	var body fieldRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	field := models.FieldDefinition{Active: true}
	if errApply := body.apply(&field); errApply != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid choices"})
		return
	}

	formType, err := h.meta.CreateField(&field)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	h.resolver.Invalidate(formType)
	c.JSON(http.StatusCreated, gin.H{"field": field, "form_type": formType})
}

// Update persists changes to an existing field definition.
func (h *FieldHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	field, errGet := h.meta.GetField(id)
	if errGet != nil {
		respondMetadataError(c, errGet)
		return
	}

	var body fieldRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errApply := body.apply(field); errApply != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid choices"})
		return
	}

	formType, err := h.meta.UpdateField(field)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	if field.ModelID != nil {
		if errAlter := h.factory.AlterField(*field.ModelID, field); errAlter != nil {
			respondMetadataError(c, errAlter)
			return
		}
	}
	h.resolver.Invalidate(formType)
	c.JSON(http.StatusOK, gin.H{"field": field, "form_type": formType})
}

// Delete soft-deletes a field definition. Stored values survive; pass
// drop_column=true to also drop a model field's backing column.
func (h *FieldHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	field, errGet := h.meta.GetField(id)
	if errGet != nil {
		respondMetadataError(c, errGet)
		return
	}

	formType, err := h.meta.DeactivateField(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	if field.ModelID != nil && c.Query("drop_column") == "true" {
		if errDrop := h.factory.RemoveField(*field.ModelID, field.Name); errDrop != nil {
			respondMetadataError(c, errDrop)
			return
		}
	}
	h.resolver.Invalidate(formType)
	c.JSON(http.StatusOK, gin.H{"ok": true, "form_type": formType})
}
