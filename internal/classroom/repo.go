package classroom

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
)

// Repository persists classes and schedules in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertClass creates a class. The (teacher, code, section) triple is
// unique; section is stored as the empty string rather than NULL so that
// section-less classes hit the constraint too.
func (r *Repository) InsertClass(ctx context.Context, c Class) (Class, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, code, name, section, teacher_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.Code, c.Name, c.Section, c.TeacherID).Scan(&c.CreatedAt)
	if apperr.IsUniqueViolation(err) {
		return Class{}, apperr.Conflict("class %s-%s already exists for this teacher", c.Code, c.Section)
	}
	if err != nil {
		return Class{}, err
	}
	return c, nil
}

// GetClass returns a class by id.
func (r *Repository) GetClass(ctx context.Context, id uuid.UUID) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, section, teacher_id, created_at
		FROM classes WHERE id = $1
	`, id)
	var c Class
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Section, &c.TeacherID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("class not found")
		}
		return nil, err
	}
	return &c, nil
}

// ListClasses returns classes owned by a teacher, or all classes when
// teacherID is nil (admin view).
func (r *Repository) ListClasses(ctx context.Context, teacherID *uuid.UUID) ([]Class, error) {
	query := `SELECT id, code, name, section, teacher_id, created_at FROM classes`
	args := []any{}
	if teacherID != nil {
		query += ` WHERE teacher_id = $1`
		args = append(args, *teacherID)
	}
	query += ` ORDER BY code, section`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Section, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// DeleteClass removes a class; schedules, reschedules, enrollments, and
// sessions cascade. Students themselves are never deleted.
func (r *Repository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("class not found")
	}
	return nil
}

// InsertSchedule adds a recurring weekly slot. One slot per weekday per class.
func (r *Repository) InsertSchedule(ctx context.Context, sch Schedule) (Schedule, error) {
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_schedules (id, class_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
	`, sch.ID, sch.ClassID, sch.DayOfWeek, sch.StartTime, sch.EndTime)
	if apperr.IsUniqueViolation(err) {
		return Schedule{}, apperr.Conflict("a schedule already exists for this class on weekday %d", sch.DayOfWeek)
	}
	if err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

// ScheduleForDay returns the recurring slot for a weekday, or nil when none.
func (r *Repository) ScheduleForDay(ctx context.Context, classID uuid.UUID, dayOfWeek int) (*Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, day_of_week, start_time, end_time
		FROM class_schedules WHERE class_id = $1 AND day_of_week = $2
	`, classID, dayOfWeek)
	var sch Schedule
	if err := row.Scan(&sch.ID, &sch.ClassID, &sch.DayOfWeek, &sch.StartTime, &sch.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sch, nil
}

// ListSchedules returns the weekly slots of a class ordered by weekday.
func (r *Repository) ListSchedules(ctx context.Context, classID uuid.UUID) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, day_of_week, start_time, end_time
		FROM class_schedules WHERE class_id = $1
		ORDER BY day_of_week
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		var sch Schedule
		if err := rows.Scan(&sch.ID, &sch.ClassID, &sch.DayOfWeek, &sch.StartTime, &sch.EndTime); err != nil {
			return nil, err
		}
		schedules = append(schedules, sch)
	}
	return schedules, rows.Err()
}

// InsertReschedule stores a one-time override.
func (r *Repository) InsertReschedule(ctx context.Context, rs Reschedule) (Reschedule, error) {
	if rs.ID == uuid.Nil {
		rs.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO class_reschedules
			(id, class_id, original_date, original_start_time, original_end_time,
			 rescheduled_date, rescheduled_start_time, rescheduled_end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING created_at
	`, rs.ID, rs.ClassID, rs.OriginalDate, rs.OriginalStart, rs.OriginalEnd,
		rs.NewDate, rs.NewStart, rs.NewEnd, rs.Reason).Scan(&rs.CreatedAt)
	if err != nil {
		return Reschedule{}, err
	}
	return rs, nil
}

// GetReschedule returns an override by id.
func (r *Repository) GetReschedule(ctx context.Context, id uuid.UUID) (*Reschedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, original_date, original_start_time, original_end_time,
			rescheduled_date, rescheduled_start_time, rescheduled_end_time,
			COALESCE(reason, ''), created_at
		FROM class_reschedules WHERE id = $1
	`, id)
	var rs Reschedule
	err := row.Scan(&rs.ID, &rs.ClassID, &rs.OriginalDate, &rs.OriginalStart, &rs.OriginalEnd,
		&rs.NewDate, &rs.NewStart, &rs.NewEnd, &rs.Reason, &rs.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("reschedule not found")
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// ListReschedules returns overrides for a class ordered by new date.
func (r *Repository) ListReschedules(ctx context.Context, classID uuid.UUID) ([]Reschedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, original_date, original_start_time, original_end_time,
			rescheduled_date, rescheduled_start_time, rescheduled_end_time,
			COALESCE(reason, ''), created_at
		FROM class_reschedules WHERE class_id = $1
		ORDER BY rescheduled_date
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reschedules []Reschedule
	for rows.Next() {
		var rs Reschedule
		if err := rows.Scan(&rs.ID, &rs.ClassID, &rs.OriginalDate, &rs.OriginalStart, &rs.OriginalEnd,
			&rs.NewDate, &rs.NewStart, &rs.NewEnd, &rs.Reason, &rs.CreatedAt); err != nil {
			return nil, err
		}
		reschedules = append(reschedules, rs)
	}
	return reschedules, rows.Err()
}

// UpdateReschedule applies the non-nil fields of upd to an override.
func (r *Repository) UpdateReschedule(ctx context.Context, id uuid.UUID, upd RescheduleUpdate) (*Reschedule, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE class_reschedules SET
			rescheduled_date       = COALESCE($2, rescheduled_date),
			rescheduled_start_time = COALESCE($3, rescheduled_start_time),
			rescheduled_end_time   = COALESCE($4, rescheduled_end_time),
			reason                 = COALESCE($5, reason)
		WHERE id = $1
	`, id, upd.NewDate, upd.NewStart, upd.NewEnd, upd.Reason)
	if err != nil {
		return nil, err
	}
	return r.GetReschedule(ctx, id)
}

// DeleteReschedule removes an override.
func (r *Repository) DeleteReschedule(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_reschedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("reschedule not found")
	}
	return nil
}
