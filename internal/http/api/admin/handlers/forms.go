package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/forms"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"github.com/lumenhotels/salescrm/internal/schema"
	"gorm.io/gorm"
)

// FormHandler serves resolved configurations, rendered forms and dynamic
// value submissions.
type FormHandler struct {
	db       *gorm.DB
	resolver *resolver.Resolver
	injector *forms.Injector
	meta     *metadata.Store
}

// NewFormHandler constructs a FormHandler.
func NewFormHandler(db *gorm.DB, r *resolver.Resolver, injector *forms.Injector, meta *metadata.Store) *FormHandler {
	return &FormHandler{db: db, resolver: r, injector: injector, meta: meta}
}

// Resolve returns the effective configuration for a form type.
func (h *FormHandler) Resolve(c *gin.Context) {
	cfg, err := h.resolver.Resolve(c.Param("formType"))
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// Render builds the full control list for a form type. Native controls are
// derived from the registered entity prototype, then decorated with the
// resolved dynamic configuration. Pass entity_id to load stored values.
func (h *FormHandler) Render(c *gin.Context) {
	formType := c.Param("formType")
	entityID, _ := strconv.ParseUint(c.Query("entity_id"), 10, 64)

	form := &forms.Form{FormType: formType, EntityID: entityID}
	form.Controls = h.nativeControls(formType)

	if err := h.injector.Inject(form); err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

// saveValuesRequest defines the request body for a dynamic value submission.
type saveValuesRequest struct {
	EntityID uint64         `json:"entity_id"`
	Values   map[string]any `json:"values"`
}

// SaveValues validates required fields and persists the dynamic values of a
// submission in one transaction.
func (h *FormHandler) SaveValues(c *gin.Context) {
	formType := c.Param("formType")

	var body saveValuesRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.EntityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_id is required"})
		return
	}

	if errRequired := h.resolver.ValidateRequired(formType, body.Values); errRequired != nil {
		var missing *resolver.MissingRequiredError
		if errors.As(errRequired, &missing) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"missing_required": missing.Fields})
			return
		}
		respondMetadataError(c, errRequired)
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return h.injector.SaveDynamicValues(tx, formType, body.EntityID, body.Values)
	})
	if err != nil {
		var saveErr *forms.SaveError
		if errors.As(err, &saveErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": saveErr.Fields})
			return
		}
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// nativeControls derives baseline controls from the native attributes of a
// registered entity prototype. Unknown form types yield an empty baseline;
// dynamic models and custom sections have no native controls.
func (h *FormHandler) nativeControls(formType string) []forms.Control {
	attrs, ok := h.meta.Registry().NativeAttributes(formType)
	if !ok {
		return nil
	}

	controls := make([]forms.Control, 0, len(attrs))
	for _, attr := range attrs {
		switch attr.Name {
		case "id", "created_at", "updated_at":
			continue
		}
		kind := schema.ControlTextInput
		if attr.IsRelationship {
			kind = schema.ControlRelationPicker
		}
		controls = append(controls, forms.Control{
			Spec: schema.ControlSpec{
				Name:     attr.Name,
				Label:    labelize(attr.Name),
				Kind:     kind,
				Required: attr.NotNull,
			},
			Native:      true,
			SectionName: "Basic Information",
		})
	}
	return controls
}

// labelize turns a snake_case attribute name into a display label.
func labelize(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
