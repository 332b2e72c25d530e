// Package roster manages students, class enrollment edges, and the
// self-service login allow-list.
package roster

import (
	"time"

	"github.com/google/uuid"

	"rollcall/internal/auth"
)

// User is a system account (teacher, HOD, or admin) that operates classes.
type User struct {
	ID         uuid.UUID
	Email      string
	Name       string
	Role       auth.Role
	Department string
}

// Student is tracked independently of any class; enrollment edges share it.
type Student struct {
	ID             uuid.UUID
	UniversityRoll string
	RollNo         string
	Name           string
	Email          string
	AltEmail       string
	PhotoURL       string
	Program        string
	Section        string
	CreatedAt      time.Time
}

// StudentInput carries upsert fields for one roster row. UniversityRoll is
// the matching key; empty fields never overwrite stored values.
type StudentInput struct {
	UniversityRoll string   `json:"universityRoll"`
	RollNo         string   `json:"rollNo"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	AltEmail       string   `json:"altEmail"`
	PhotoURL       string   `json:"photoUrl"`
	Program        string   `json:"program"`
	Section        string   `json:"section"`
}

// AllowedEmail is one allow-list register row. Students whose email appears
// here may self-authenticate in the student app.
type AllowedEmail struct {
	Email          string
	AltEmail       string
	UniversityRoll string
	Name           string
	Program        string
}
