package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleListUploads lists stored objects, optionally filtered by prefix.
func (s *Server) handleListUploads(c *gin.Context) {
	objects, err := s.Blobs.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

// handleTemporaryURL mints a short-lived signed URL for one stored object.
// The object id is a query parameter because storage ids may contain slashes.
func (s *Server) handleTemporaryURL(c *gin.Context) {
	objectID := c.Query("id")
	if objectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter required"})
		return
	}
	expiry := 15 * time.Minute
	if v := c.Query("ttl"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
			return
		}
		expiry = d
	}

	url, err := s.Blobs.GenerateTemporaryURL(c.Request.Context(), objectID, expiry)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": time.Now().Add(expiry).Unix()})
}
