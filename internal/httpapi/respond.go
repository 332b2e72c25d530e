package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/blobstore"
)

// writeErr maps service errors onto HTTP statuses.
func writeErr(c *gin.Context, err error) {
	if errors.Is(err, blobstore.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.KindInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathUUID parses a UUID path parameter, writing a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
