package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
)

// handleCreateSession creates the session for (class, date) or returns the
// existing one. The response shape is identical either way.
func (s *Server) handleCreateSession(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Date              string `json:"date" binding:"required"`
		ProcessedImageURL string `json:"processedImageUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.Attendance.CreateOrGetSession(c.Request.Context(), classID, caller, req.Date, req.ProcessedImageURL)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionJSON(sess))
}

func (s *Server) handleListSessions(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sessions, err := s.Attendance.ListSessions(c.Request.Context(), classID, caller, c.Query("from"), c.Query("to"))
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionWithStatusesJSON(sess))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// handleUpsertStatuses applies a batch of status rows to a session and
// returns the full status list afterwards.
func (s *Server) handleUpsertStatuses(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Statuses []attendance.StatusUpdate `json:"statuses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses, err := s.Attendance.UpsertStatuses(c.Request.Context(), sessionID, caller, req.Statuses)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}
