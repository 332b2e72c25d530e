package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rollcall/internal/auth"
)

// handleLeaderboard returns one page of the campus-wide leaderboard. A
// student caller also receives their own entry from the same ranking.
func (s *Server) handleLeaderboard(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	var selfStudentID *uuid.UUID
	if caller.Role == auth.RoleStudent {
		id := caller.UserID
		selfStudentID = &id
	}

	result, err := s.Stats.Leaderboard(c.Request.Context(), limit, offset, selfStudentID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleClassSummary returns the per-student attendance summary for a class.
func (s *Server) handleClassSummary(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	summaries, err := s.Stats.ClassSummary(c.Request.Context(), classID, caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": summaries})
}

// handleMyClassStats returns the calling student's record in one class.
func (s *Server) handleMyClassStats(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := s.Stats.StudentClassStats(c.Request.Context(), caller.UserID, classID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
