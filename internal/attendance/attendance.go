// Package attendance implements attendance sessions and the per-student
// status ledger.
package attendance

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a student's marked outcome for one session.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// ParseStatus validates a status value case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent, true
	case StatusAbsent:
		return StatusAbsent, true
	case StatusLate:
		return StatusLate, true
	case StatusExcused:
		return StatusExcused, true
	}
	return "", false
}

// Attended reports whether the status counts as attended (present or late).
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

// Session is one attendance-taking event for a class on one calendar date.
// At most one session exists per (class, date).
type Session struct {
	ID                uuid.UUID
	ClassID           uuid.UUID
	TeacherID         uuid.UUID
	Date              time.Time
	ProcessedImageURL string
	CreatedAt         time.Time
}

// StatusUpdate is one row of a mark-attendance batch.
type StatusUpdate struct {
	Roll            string   `json:"rollNo"`
	Status          string   `json:"status"`
	RecognizedByAI  bool     `json:"recognizedByAi"`
	SimilarityScore *float64 `json:"similarityScore"`
}

// StatusRecord is the stored ledger row for a (session, student) pair.
type StatusRecord struct {
	SessionID       uuid.UUID
	StudentID       uuid.UUID
	Status          Status
	RecognizedByAI  bool
	SimilarityScore *float64
}

// StatusView is a ledger row joined with student display fields.
type StatusView struct {
	RollNo          string   `json:"rollNo"`
	Name            string   `json:"name"`
	Status          Status   `json:"status"`
	RecognizedByAI  bool     `json:"recognizedByAi"`
	SimilarityScore *float64 `json:"similarityScore,omitempty"`
}

// SessionWithStatuses is a session and its full status list.
type SessionWithStatuses struct {
	Session
	Statuses []StatusView
}
