package httpapi

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
)

// handleUpsertRoster applies a batch of roster rows to a class and returns
// the full roster afterwards.
func (s *Server) handleUpsertRoster(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Students []roster.StudentInput `json:"students" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	students, err := s.Roster.UpsertRosterBatch(c.Request.Context(), classID, caller, req.Students)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(students))
	for _, st := range students {
		out = append(out, studentJSON(st))
	}
	c.JSON(http.StatusOK, gin.H{"students": out})
}

func (s *Server) handleListRoster(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	classID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	students, err := s.Roster.ClassStudents(c.Request.Context(), classID, caller)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(students))
	for _, st := range students {
		out = append(out, studentJSON(st))
	}
	c.JSON(http.StatusOK, gin.H{"students": out})
}

// handleUploadPhoto stores a new reference photo for the calling student and
// queues an embedding rebuild for the recognition service.
func (s *Server) handleUploadPhoto(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	ctx := c.Request.Context()

	student, err := s.Roster.StudentByEmail(ctx, caller.Email)
	if err != nil {
		writeErr(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no student record for this account"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	obj, err := s.Blobs.Upload(ctx, data, fmt.Sprintf("%s-%s", student.UniversityRoll, header.Filename))
	if err != nil {
		writeErr(c, err)
		return
	}

	if err := s.Roster.SetStudentPhoto(ctx, student.UniversityRoll, obj.URL); err != nil {
		writeErr(c, err)
		return
	}

	// Embedding rebuild is async; a queue failure must not fail the upload.
	err = s.Queue.Publish(ctx, queue.Message{Type: queue.TypeEmbedRebuild, Body: []byte(student.UniversityRoll)})
	if err != nil {
		log.Printf("queue publish for %s failed: %v", student.UniversityRoll, err)
		metrics.SideEffectFailures.WithLabelValues("embed_rebuild").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"photoUrl": obj.URL,
		"objectId": obj.ID,
		"bytes":    obj.Bytes,
	})
}
