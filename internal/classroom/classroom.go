// Package classroom manages classes, their weekly schedules, and one-off
// reschedule overrides.
package classroom

import (
	"time"

	"github.com/google/uuid"
)

// Class is one subject-section a teacher is responsible for.
type Class struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Section   string
	TeacherID uuid.UUID
	CreatedAt time.Time
}

// Schedule is the recurring weekly slot for a class. One slot per weekday.
type Schedule struct {
	ID        uuid.UUID
	ClassID   uuid.UUID
	DayOfWeek int // ISO: 1=Monday .. 7=Sunday
	StartTime string
	EndTime   string
}

// Reschedule is a one-time override for a single date. The original slot is
// copied from the recurring schedule at creation time so the audit trail
// always reflects the true previous slot.
type Reschedule struct {
	ID            uuid.UUID
	ClassID       uuid.UUID
	OriginalDate  time.Time
	OriginalStart string
	OriginalEnd   string
	NewDate       time.Time
	NewStart      string
	NewEnd        string
	Reason        string
	CreatedAt     time.Time
}

// RescheduleUpdate carries optional fields for updating an override.
type RescheduleUpdate struct {
	NewDate  *time.Time
	NewStart *string
	NewEnd   *string
	Reason   *string
}

// isoWeekday maps Go's Sunday-based weekday to ISO 1..7 (Monday first).
func isoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
