package roster

import (
	"context"
	"log"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
	"rollcall/internal/metrics"
)

// Store is the persistence surface the service needs.
type Store interface {
	ClassOwner(ctx context.Context, classID uuid.UUID) (uuid.UUID, error)
	UpsertStudent(ctx context.Context, in StudentInput) (Student, error)
	Enroll(ctx context.Context, classID, studentID uuid.UUID) error
	ClassStudents(ctx context.Context, classID uuid.UUID) ([]Student, error)
	UpsertAllowedEmail(ctx context.Context, e AllowedEmail) error
	StudentByRoll(ctx context.Context, roll string) (*Student, error)
	StudentByEmail(ctx context.Context, email string) (*Student, error)
	SetStudentPhoto(ctx context.Context, universityRoll, url string) error
}

// Service coordinates roster uploads and enrollment.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// authorize verifies the caller owns the class or is an admin.
func (s *Service) authorize(ctx context.Context, classID uuid.UUID, caller auth.Caller) error {
	owner, err := s.store.ClassOwner(ctx, classID)
	if err != nil {
		return err
	}
	if !caller.Role.IsAdmin() && owner != caller.UserID {
		return apperr.Forbidden("you do not have permission to modify this class roster")
	}
	return nil
}

// UpsertRosterBatch upserts students and enrolls them into a class. Rows
// without a university roll are skipped; one bad row never voids the batch.
// Returns the full roster after applying all valid rows.
func (s *Service) UpsertRosterBatch(ctx context.Context, classID uuid.UUID, caller auth.Caller, inputs []StudentInput) ([]Student, error) {
	if err := s.authorize(ctx, classID, caller); err != nil {
		return nil, err
	}

	for _, in := range inputs {
		if in.UniversityRoll == "" {
			metrics.BatchRowsSkipped.WithLabelValues("missing_roll").Inc()
			continue
		}
		student, err := s.store.UpsertStudent(ctx, in)
		if err != nil {
			log.Printf("roster upsert for %s failed: %v", in.UniversityRoll, err)
			metrics.BatchRowsSkipped.WithLabelValues("upsert_failed").Inc()
			continue
		}
		if err := s.store.Enroll(ctx, classID, student.ID); err != nil {
			log.Printf("enroll %s into class %s failed: %v", in.UniversityRoll, classID, err)
			metrics.BatchRowsSkipped.WithLabelValues("enroll_failed").Inc()
			continue
		}

		// Allow-list registration is a best-effort side channel; a failure
		// here must never fail the enrollment.
		if in.Email != "" || in.AltEmail != "" {
			err := s.store.UpsertAllowedEmail(ctx, AllowedEmail{
				Email:          in.Email,
				AltEmail:       in.AltEmail,
				UniversityRoll: in.UniversityRoll,
				Name:           in.Name,
				Program:        in.Program,
			})
			if err != nil {
				log.Printf("allow-list register for %s failed: %v", in.UniversityRoll, err)
				metrics.SideEffectFailures.WithLabelValues("allow_list").Inc()
			}
		}
	}

	return s.store.ClassStudents(ctx, classID)
}

// Enroll adds one student to the class roster. Idempotent on the edge.
func (s *Service) Enroll(ctx context.Context, classID uuid.UUID, caller auth.Caller, studentID uuid.UUID) error {
	if err := s.authorize(ctx, classID, caller); err != nil {
		return err
	}
	return s.store.Enroll(ctx, classID, studentID)
}

// ClassStudents lists the roster of a class.
func (s *Service) ClassStudents(ctx context.Context, classID uuid.UUID, caller auth.Caller) ([]Student, error) {
	if err := s.authorize(ctx, classID, caller); err != nil {
		return nil, err
	}
	return s.store.ClassStudents(ctx, classID)
}

// StudentByEmail resolves the student record behind an authenticated email.
func (s *Service) StudentByEmail(ctx context.Context, email string) (*Student, error) {
	return s.store.StudentByEmail(ctx, email)
}

// StudentByRoll resolves a student by roll number.
func (s *Service) StudentByRoll(ctx context.Context, roll string) (*Student, error) {
	return s.store.StudentByRoll(ctx, roll)
}

// SetStudentPhoto stores a new reference photo URL for a student.
func (s *Service) SetStudentPhoto(ctx context.Context, universityRoll, url string) error {
	return s.store.SetStudentPhoto(ctx, universityRoll, url)
}
