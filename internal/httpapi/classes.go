package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/classroom"
)

func (s *Server) handleCreateClass(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	var req struct {
		Code    string `json:"code" binding:"required"`
		Name    string `json:"name" binding:"required"`
		Section string `json:"section"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cls, err := s.Classes.CreateClass(c.Request.Context(), req.Code, req.Name, req.Section, caller.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, classJSON(cls))
}

func (s *Server) handleListClasses(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classes, err := s.Classes.ListClasses(c.Request.Context(), caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(classes))
	for _, cls := range classes {
		out = append(out, classJSON(cls))
	}
	c.JSON(http.StatusOK, gin.H{"classes": out})
}

func (s *Server) handleGetClass(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cls, err := s.Classes.GetClass(c.Request.Context(), classID, caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, classJSON(*cls))
}

func (s *Server) handleDeleteClass(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := s.Classes.DeleteClass(c.Request.Context(), classID, caller); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddSchedule(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		DayOfWeek int    `json:"dayOfWeek" binding:"required"`
		StartTime string `json:"startTime" binding:"required"`
		EndTime   string `json:"endTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sch, err := s.Classes.AddSchedule(c.Request.Context(), classID, caller, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduleJSON(sch))
}

func (s *Server) handleListSchedules(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	schedules, err := s.Classes.ListSchedules(c.Request.Context(), classID, caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(schedules))
	for _, sch := range schedules {
		out = append(out, scheduleJSON(sch))
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

func (s *Server) handleCreateReschedule(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		OriginalDate string `json:"originalDate" binding:"required"`
		NewDate      string `json:"newDate" binding:"required"`
		NewStart     string `json:"newStart" binding:"required"`
		NewEnd       string `json:"newEnd" binding:"required"`
		Reason       string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	originalDate, ok := parseDate(req.OriginalDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid originalDate, use YYYY-MM-DD"})
		return
	}
	newDate, ok := parseDate(req.NewDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid newDate, use YYYY-MM-DD"})
		return
	}

	rs, err := s.Classes.CreateReschedule(c.Request.Context(), classID, caller, originalDate, newDate, req.NewStart, req.NewEnd, req.Reason)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rescheduleJSON(rs))
}

func (s *Server) handleListReschedules(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	reschedules, err := s.Classes.ListReschedules(c.Request.Context(), classID, caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(reschedules))
	for _, rs := range reschedules {
		out = append(out, rescheduleJSON(rs))
	}
	c.JSON(http.StatusOK, gin.H{"reschedules": out})
}

func (s *Server) handleUpdateReschedule(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	rescheduleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		NewDate  *string `json:"newDate"`
		NewStart *string `json:"newStart"`
		NewEnd   *string `json:"newEnd"`
		Reason   *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := classroom.RescheduleUpdate{
		NewStart: req.NewStart,
		NewEnd:   req.NewEnd,
		Reason:   req.Reason,
	}
	if req.NewDate != nil {
		d, ok := parseDate(*req.NewDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid newDate, use YYYY-MM-DD"})
			return
		}
		upd.NewDate = &d
	}

	rs, err := s.Classes.UpdateReschedule(c.Request.Context(), rescheduleID, caller, upd)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleJSON(*rs))
}

func (s *Server) handleDeleteReschedule(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	rescheduleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := s.Classes.DeleteReschedule(c.Request.Context(), rescheduleID, caller); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
