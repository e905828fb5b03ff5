package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"gorm.io/gorm"
)

// RequirementHandler manages native-field requirement overrides per form type.
type RequirementHandler struct {
	db       *gorm.DB
	resolver *resolver.Resolver
}

// NewRequirementHandler constructs a RequirementHandler.
func NewRequirementHandler(db *gorm.DB, r *resolver.Resolver) *RequirementHandler {
	return &RequirementHandler{db: db, resolver: r}
}

// requirementItem is one requirement row in a replace request.
type requirementItem struct {
	FieldName   string `json:"field_name"`
	FieldLabel  string `json:"field_label"`
	Required    bool   `json:"required"`
	Enabled     bool   `json:"enabled"`
	SectionName string `json:"section_name"`
	SortOrder   uint   `json:"sort_order"`
	HelpText    string `json:"help_text"`
}

// List returns the requirement overrides for a form type.
func (h *RequirementHandler) List(c *gin.Context) {
	formType := c.Param("formType")

	var rows []models.FieldRequirement
	err := h.db.WithContext(c.Request.Context()).
		Where("form_type = ?", formType).
		Order("section_name asc, sort_order asc, id asc").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": rows})
}

// Replace swaps the full requirement set for a form type in one transaction.
func (h *RequirementHandler) Replace(c *gin.Context) {
	formType := c.Param("formType")

	var body struct {
		Requirements []requirementItem `json:"requirements"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	for _, item := range body.Requirements {
		if item.FieldName == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "field_name is required"})
			return
		}
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errDel := tx.Where("form_type = ?", formType).Delete(&models.FieldRequirement{}).Error; errDel != nil {
			return errDel
		}
		for _, item := range body.Requirements {
			row := models.FieldRequirement{
				FormType:    formType,
				FieldName:   item.FieldName,
				FieldLabel:  item.FieldLabel,
				Required:    item.Required,
				Enabled:     item.Enabled,
				SectionName: item.SectionName,
				SortOrder:   item.SortOrder,
				HelpText:    item.HelpText,
			}
			if row.SectionName == "" {
				row.SectionName = "Basic Information"
			}
			if errCreate := tx.Create(&row).Error; errCreate != nil {
				return errCreate
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.resolver.Invalidate(formType)
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(body.Requirements)})
}
