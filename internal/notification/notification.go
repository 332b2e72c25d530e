// Package notification derives and delivers student notifications.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies how a notification originated.
type Type string

const (
	TypeAttendance Type = "ATTENDANCE"
	TypeManual     Type = "MANUAL"
	TypeSystem     Type = "SYSTEM"
)

// Notification is one message addressed to a student. StudentID is nil for
// role-targeted broadcasts.
type Notification struct {
	ID         uuid.UUID  `json:"id"`
	StudentID  *uuid.UUID `json:"studentId,omitempty"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Type       Type       `json:"type"`
	TargetRole string     `json:"targetRole,omitempty"`
	Threshold  *float64   `json:"attendanceThreshold,omitempty"`
	IsRead     bool       `json:"isRead"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}
