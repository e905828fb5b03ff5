package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	adminreg "github.com/lumenhotels/salescrm/internal/admin"
)

// SurfaceHandler exposes the registered admin surfaces.
type SurfaceHandler struct {
	surfaces *adminreg.Registry
}

// NewSurfaceHandler constructs a SurfaceHandler.
func NewSurfaceHandler(surfaces *adminreg.Registry) *SurfaceHandler {
	return &SurfaceHandler{surfaces: surfaces}
}

// List returns all registered surfaces sorted by form type.
func (h *SurfaceHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"surfaces": h.surfaces.List()})
}
