package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/metadata"
)

// Context keys set by the auth middleware.
const (
	ContextOperatorID       = "operatorID"
	ContextOperatorUsername = "operatorUsername"
)

// pathID parses the :id path parameter, writing the error response itself.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondMetadataError maps metadata store errors to HTTP responses.
// Validation failures return the field-scoped messages.
func respondMetadataError(c *gin.Context, err error) {
	var verr *metadata.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Messages()})
		return
	}
	if errors.Is(err, metadata.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// queryLimitOffset parses list pagination parameters with defaults.
func queryLimitOffset(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
