package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rollcall/internal/auth"
)

// handleNotifyStudent sends a manual notification to a single student.
func (s *Server) handleNotifyStudent(c *gin.Context) {
	var req struct {
		StudentID uuid.UUID `json:"studentId" binding:"required"`
		Title     string    `json:"title" binding:"required"`
		Message   string    `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := s.Notifications.NotifyStudent(c.Request.Context(), req.StudentID, req.Title, req.Message)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// handleNotifyThreshold broadcasts to every student at or below a threshold.
func (s *Server) handleNotifyThreshold(c *gin.Context) {
	// Threshold is a pointer so 0 survives the required check;
	// "required" on a plain float64 treats 0 as absent.
	var req struct {
		Threshold *float64   `json:"threshold" binding:"required"`
		Title     string     `json:"title" binding:"required"`
		Message   string     `json:"message" binding:"required"`
		ClassID   *uuid.UUID `json:"classId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.Notifications.NotifyBelowThreshold(c.Request.Context(), *req.Threshold, req.Title, req.Message, req.ClassID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleMyNotifications lists the calling student's notifications.
func (s *Server) handleMyNotifications(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	unreadOnly := c.Query("unread") == "true"
	notifications, err := s.Notifications.ListByEmail(c.Request.Context(), caller.Email, unreadOnly)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// handleMarkNotificationRead marks one of the caller's notifications read.
func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	notificationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := s.Notifications.MarkReadByEmail(c.Request.Context(), caller.Email, notificationID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
