package classroom

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertClass(ctx context.Context, c Class) (Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (*Class, error)
	ListClasses(ctx context.Context, teacherID *uuid.UUID) ([]Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
	InsertSchedule(ctx context.Context, sch Schedule) (Schedule, error)
	ScheduleForDay(ctx context.Context, classID uuid.UUID, dayOfWeek int) (*Schedule, error)
	ListSchedules(ctx context.Context, classID uuid.UUID) ([]Schedule, error)
	InsertReschedule(ctx context.Context, rs Reschedule) (Reschedule, error)
	GetReschedule(ctx context.Context, id uuid.UUID) (*Reschedule, error)
	ListReschedules(ctx context.Context, classID uuid.UUID) ([]Reschedule, error)
	UpdateReschedule(ctx context.Context, id uuid.UUID, upd RescheduleUpdate) (*Reschedule, error)
	DeleteReschedule(ctx context.Context, id uuid.UUID) error
}

// Service guards class and schedule mutations with ownership checks.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// authorize returns the class after verifying the caller owns it or is admin.
func (s *Service) authorize(ctx context.Context, classID uuid.UUID, caller auth.Caller) (*Class, error) {
	cls, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.IsAdmin() && cls.TeacherID != caller.UserID {
		return nil, apperr.Forbidden("you do not have permission to access this class")
	}
	return cls, nil
}

// CreateClass registers a new class for a teacher. Conflict when the
// (teacher, code, section) triple already exists.
func (s *Service) CreateClass(ctx context.Context, code, name, section string, ownerID uuid.UUID) (Class, error) {
	if code == "" || name == "" {
		return Class{}, apperr.Invalid("code and name are required")
	}
	return s.store.InsertClass(ctx, Class{Code: code, Name: name, Section: section, TeacherID: ownerID})
}

// GetClass returns a class the caller may access.
func (s *Service) GetClass(ctx context.Context, classID uuid.UUID, caller auth.Caller) (*Class, error) {
	return s.authorize(ctx, classID, caller)
}

// ListClasses returns the caller's classes; admins see every class.
func (s *Service) ListClasses(ctx context.Context, caller auth.Caller) ([]Class, error) {
	if caller.Role.IsAdmin() {
		return s.store.ListClasses(ctx, nil)
	}
	return s.store.ListClasses(ctx, &caller.UserID)
}

// DeleteClass removes a class and its dependents.
func (s *Service) DeleteClass(ctx context.Context, classID uuid.UUID, caller auth.Caller) error {
	if _, err := s.authorize(ctx, classID, caller); err != nil {
		return err
	}
	return s.store.DeleteClass(ctx, classID)
}

// AddSchedule adds a recurring weekly slot. Conflict when the weekday is
// already scheduled for this class.
func (s *Service) AddSchedule(ctx context.Context, classID uuid.UUID, caller auth.Caller, dayOfWeek int, start, end string) (Schedule, error) {
	if _, err := s.authorize(ctx, classID, caller); err != nil {
		return Schedule{}, err
	}
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return Schedule{}, apperr.Invalid("dayOfWeek must be between 1 and 7")
	}
	if err := validTimeRange(start, end); err != nil {
		return Schedule{}, err
	}
	return s.store.InsertSchedule(ctx, Schedule{
		ClassID:   classID,
		DayOfWeek: dayOfWeek,
		StartTime: start,
		EndTime:   end,
	})
}

// ListSchedules returns the weekly slots of a class.
func (s *Service) ListSchedules(ctx context.Context, classID uuid.UUID, caller auth.Caller) ([]Schedule, error) {
	if _, err := s.authorize(ctx, classID, caller); err != nil {
		return nil, err
	}
	return s.store.ListSchedules(ctx, classID)
}

// CreateReschedule records a one-time override. The original slot is looked
// up from the recurring schedule for the original date's weekday and copied
// onto the override; the recurring schedule itself is never touched.
func (s *Service) CreateReschedule(ctx context.Context, classID uuid.UUID, caller auth.Caller, originalDate, newDate time.Time, newStart, newEnd, reason string) (Reschedule, error) {
	if _, err := s.authorize(ctx, classID, caller); err != nil {
		return Reschedule{}, err
	}
	if err := validTimeRange(newStart, newEnd); err != nil {
		return Reschedule{}, err
	}

	sch, err := s.store.ScheduleForDay(ctx, classID, isoWeekday(originalDate))
	if err != nil {
		return Reschedule{}, err
	}
	if sch == nil {
		return Reschedule{}, apperr.NotFound("no schedule found for this class on the original date's day of week")
	}

	return s.store.InsertReschedule(ctx, Reschedule{
		ClassID:       classID,
		OriginalDate:  originalDate,
		OriginalStart: sch.StartTime,
		OriginalEnd:   sch.EndTime,
		NewDate:       newDate,
		NewStart:      newStart,
		NewEnd:        newEnd,
		Reason:        reason,
	})
}

// ListReschedules returns a class's overrides.
func (s *Service) ListReschedules(ctx context.Context, classID uuid.UUID, caller auth.Caller) ([]Reschedule, error) {
	if _, err := s.authorize(ctx, classID, caller); err != nil {
		return nil, err
	}
	return s.store.ListReschedules(ctx, classID)
}

// UpdateReschedule changes the substitute slot of an override.
func (s *Service) UpdateReschedule(ctx context.Context, rescheduleID uuid.UUID, caller auth.Caller, upd RescheduleUpdate) (*Reschedule, error) {
	rs, err := s.store.GetReschedule(ctx, rescheduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, rs.ClassID, caller); err != nil {
		return nil, err
	}
	if upd.NewStart != nil || upd.NewEnd != nil {
		start, end := rs.NewStart, rs.NewEnd
		if upd.NewStart != nil {
			start = *upd.NewStart
		}
		if upd.NewEnd != nil {
			end = *upd.NewEnd
		}
		if err := validTimeRange(start, end); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateReschedule(ctx, rescheduleID, upd)
}

// DeleteReschedule removes an override.
func (s *Service) DeleteReschedule(ctx context.Context, rescheduleID uuid.UUID, caller auth.Caller) error {
	rs, err := s.store.GetReschedule(ctx, rescheduleID)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, rs.ClassID, caller); err != nil {
		return err
	}
	return s.store.DeleteReschedule(ctx, rescheduleID)
}

func validTimeRange(start, end string) error {
	st, err := time.Parse("15:04", start)
	if err != nil {
		return apperr.Invalid("invalid start time %q, want HH:MM", start)
	}
	en, err := time.Parse("15:04", end)
	if err != nil {
		return apperr.Invalid("invalid end time %q, want HH:MM", end)
	}
	if !en.After(st) {
		return apperr.Invalid("end time must be after start time")
	}
	return nil
}
