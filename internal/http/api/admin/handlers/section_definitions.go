package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
)

// SectionHandler manages section definitions.
type SectionHandler struct {
	meta     *metadata.Store
	resolver *resolver.Resolver
}

// NewSectionHandler constructs a SectionHandler.
func NewSectionHandler(meta *metadata.Store, r *resolver.Resolver) *SectionHandler {
	return &SectionHandler{meta: meta, resolver: r}
}

// sectionRequest defines the request body for section create/update.
type sectionRequest struct {
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description"`
	Order            int    `json:"order"`
	IsCoreSection    bool   `json:"is_core_section"`
	SourceEntityType string `json:"source_entity_type"`
}

// List returns active sections.
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.meta.ListSections()
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

// Get returns one section with its field definitions.
func (h *SectionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	section, err := h.meta.GetSection(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section})
}

// Create validates and persists a new section.
func (h *SectionHandler) Create(c *gin.Context) {
	var body sectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	section := models.SectionDefinition{
		Name:             body.Name,
		DisplayName:      body.DisplayName,
		Description:      body.Description,
		Order:            body.Order,
		IsCoreSection:    body.IsCoreSection,
		SourceEntityType: body.SourceEntityType,
		Active:           true,
	}
	if err := h.meta.CreateSection(&section); err != nil {
		respondMetadataError(c, err)
		return
	}
	h.invalidate(&section)
	c.JSON(http.StatusCreated, gin.H{"section": section})
}

// Update persists changes to an existing section.
func (h *SectionHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	section, errGet := h.meta.GetSection(id)
	if errGet != nil {
		respondMetadataError(c, errGet)
		return
	}

	var body sectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	section.Name = body.Name
	section.DisplayName = body.DisplayName
	section.Description = body.Description
	section.Order = body.Order
	if err := h.meta.UpdateSection(section); err != nil {
		respondMetadataError(c, err)
		return
	}
	h.invalidate(section)
	c.JSON(http.StatusOK, gin.H{"section": section})
}

// Delete soft-deletes a section; its fields stop resolving.
func (h *SectionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	formType, err := h.meta.DeactivateSection(id)
	if err != nil {
		respondMetadataError(c, err)
		return
	}
	h.resolver.Invalidate(formType)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *SectionHandler) invalidate(section *models.SectionDefinition) {
	if section.IsCoreSection {
		h.resolver.Invalidate(section.SourceEntityType)
		return
	}
	h.resolver.Invalidate("section." + section.Name)
}
