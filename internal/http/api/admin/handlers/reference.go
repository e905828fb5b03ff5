package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/models"
	"gorm.io/gorm"
)

// ReferenceHandler manages hotel reference data used by relationship fields.
type ReferenceHandler struct {
	db *gorm.DB
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(db *gorm.DB) *ReferenceHandler {
	return &ReferenceHandler{db: db}
}

// ListRoomTypes returns active room types in display order.
func (h *ReferenceHandler) ListRoomTypes(c *gin.Context) {
	var rows []models.RoomType
	err := h.db.WithContext(c.Request.Context()).
		Where("active = ?", true).
		Order("sort_order asc, id asc").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_types": rows})
}

// CreateRoomType adds a room type.
func (h *ReferenceHandler) CreateRoomType(c *gin.Context) {
	var body struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
		SortOrder   uint   `json:"sort_order"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and name are required"})
		return
	}

	row := models.RoomType{
		Code:        body.Code,
		Name:        body.Name,
		Description: body.Description,
		SortOrder:   body.SortOrder,
		Active:      true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "room type code already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_type": row})
}

// ListRoomOccupancies returns active occupancy types in display order.
func (h *ReferenceHandler) ListRoomOccupancies(c *gin.Context) {
	var rows []models.RoomOccupancy
	err := h.db.WithContext(c.Request.Context()).
		Where("active = ?", true).
		Order("sort_order asc, id asc").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_occupancies": rows})
}

// CreateRoomOccupancy adds an occupancy type.
func (h *ReferenceHandler) CreateRoomOccupancy(c *gin.Context) {
	var body struct {
		Code      string `json:"code"`
		Label     string `json:"label"`
		PaxCount  uint   `json:"pax_count"`
		SortOrder uint   `json:"sort_order"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" || strings.TrimSpace(body.Label) == "" || body.PaxCount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code, label and pax_count are required"})
		return
	}

	row := models.RoomOccupancy{
		Code:      body.Code,
		Label:     body.Label,
		PaxCount:  body.PaxCount,
		SortOrder: body.SortOrder,
		Active:    true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "occupancy code already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_occupancy": row})
}

// ListCancellationReasons returns active cancellation reasons in display order.
func (h *ReferenceHandler) ListCancellationReasons(c *gin.Context) {
	var rows []models.CancellationReason
	err := h.db.WithContext(c.Request.Context()).
		Where("active = ?", true).
		Order("sort_order asc, id asc").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancellation_reasons": rows})
}

// CreateCancellationReason adds a cancellation reason.
func (h *ReferenceHandler) CreateCancellationReason(c *gin.Context) {
	var body struct {
		Code         string `json:"code"`
		Label        string `json:"label"`
		IsRefundable bool   `json:"is_refundable"`
		SortOrder    uint   `json:"sort_order"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" || strings.TrimSpace(body.Label) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and label are required"})
		return
	}

	row := models.CancellationReason{
		Code:         body.Code,
		Label:        body.Label,
		IsRefundable: body.IsRefundable,
		SortOrder:    body.SortOrder,
		Active:       true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "cancellation reason code already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cancellation_reason": row})
}
