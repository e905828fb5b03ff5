package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/dynmodel"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
)

// ModelHandler manages dynamic model definitions and their materialization.
type ModelHandler struct {
	meta     *metadata.Store
	factory  *dynmodel.Factory
	resolver *resolver.Resolver
}

// NewModelHandler constructs a ModelHandler.
func NewModelHandler(meta *metadata.Store, factory *dynmodel.Factory, r *resolver.Resolver) *ModelHandler {
	return &ModelHandler{meta: meta, factory: factory, resolver: r}
}

// modelRequest defines the request body for model create.
type modelRequest struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	Namespace      string   `json:"namespace"`
	Description    string   `json:"description"`
	OrderingFields []string `json:"ordering_fields"`
}

// List returns active model definitions.
func (h *ModelHandler) List(c *gin.Context) {
	defs, err := h.meta.ListModels()
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": defs})
}

// Get returns one model definition with its field definitions.
func (h *ModelHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	model, err := h.meta.GetModel(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": model})
}

// Create validates and persists a new model definition. The backing table
// is not created until the model is materialized.
func (h *ModelHandler) Create(c *gin.Context) {
	var body modelRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	model := models.ModelDefinition{
		Name:        body.Name,
		DisplayName: body.DisplayName,
		Namespace:   body.Namespace,
		Description: body.Description,
		Active:      true,
	}
	if body.OrderingFields != nil {
		if errSet := model.SetOrderingFields(body.OrderingFields); errSet != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ordering fields"})
			return
		}
	}
	if err := h.meta.CreateModel(&model); err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"model": model})
}

// Materialize creates or extends the backing table and registers the
// admin surface for the model.
func (h *ModelHandler) Materialize(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	descriptor, err := h.factory.Materialize(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	h.resolver.Invalidate(descriptor.FormType)
	c.JSON(http.StatusOK, gin.H{
		"form_type": descriptor.FormType,
		"table":     descriptor.Table,
		"fields":    descriptor.FieldNames(),
	})
}

// Delete deactivates a model definition. Pass drop_table=true to also
// drop the backing table; by default data is preserved.
func (h *ModelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	model, errGet := h.meta.GetModel(id)
	if errGet != nil {
		respondMetadataError(c, errGet)
		return
	}
	dropTable := c.Query("drop_table") == "true"
	if err := h.factory.Destroy(id, dropTable); err != nil {
		respondMetadataError(c, err)
		return
	}
	h.resolver.Invalidate(model.FormType())
	c.JSON(http.StatusOK, gin.H{"ok": true, "table_dropped": dropTable})
}
