package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"gorm.io/gorm"
)

// LayoutHandler manages the configured section layout per form type.
type LayoutHandler struct {
	db       *gorm.DB
	resolver *resolver.Resolver
}

// NewLayoutHandler constructs a LayoutHandler.
func NewLayoutHandler(db *gorm.DB, r *resolver.Resolver) *LayoutHandler {
	return &LayoutHandler{db: db, resolver: r}
}

// Get returns the stored layout for a form type.
func (h *LayoutHandler) Get(c *gin.Context) {
	formType := c.Param("formType")

	var layout models.FormLayout
	err := h.db.WithContext(c.Request.Context()).
		Where("form_type = ?", formType).Take(&layout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"form_type": layout.FormType,
		"sections":  layout.SectionList(),
		"active":    layout.Active,
	})
}

// Put upserts the layout for a form type.
func (h *LayoutHandler) Put(c *gin.Context) {
	formType := c.Param("formType")

	var body struct {
		Sections []models.LayoutSection `json:"sections"`
		Active   *bool                  `json:"active"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	raw, errMarshal := json.Marshal(body.Sections)
	if errMarshal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sections"})
		return
	}

	active := true
	if body.Active != nil {
		active = *body.Active
	}
	operator, _ := c.Get(ContextOperatorUsername)
	updatedBy, _ := operator.(string)

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var layout models.FormLayout
		errFind := tx.Where("form_type = ?", formType).Take(&layout).Error
		if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return errFind
		}
		layout.FormType = formType
		layout.Sections = raw
		layout.Active = active
		layout.UpdatedBy = updatedBy
		return tx.Save(&layout).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.resolver.Invalidate(formType)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
