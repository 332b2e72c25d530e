package stats

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/attendance"
)

// Repository reads the flat rows the engine aggregates.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const statusRowSelect = `
	SELECT a.student_id, s.university_roll, s.name, sess.class_id, sess.session_date, a.status
	FROM attendance_statuses a
	JOIN students s ON s.id = a.student_id
	JOIN attendance_sessions sess ON sess.id = a.session_id`

// AllStatusRows returns every stored status record across all classes.
func (r *Repository) AllStatusRows(ctx context.Context) ([]StatusRow, error) {
	rows, err := r.db.QueryContext(ctx, statusRowSelect)
	if err != nil {
		return nil, err
	}
	return collectStatusRows(rows)
}

// ClassStatusRows returns the stored status records of one class.
func (r *Repository) ClassStatusRows(ctx context.Context, classID uuid.UUID) ([]StatusRow, error) {
	rows, err := r.db.QueryContext(ctx, statusRowSelect+` WHERE sess.class_id = $1`, classID)
	if err != nil {
		return nil, err
	}
	return collectStatusRows(rows)
}

func collectStatusRows(rows *sql.Rows) ([]StatusRow, error) {
	defer rows.Close()
	var out []StatusRow
	for rows.Next() {
		var row StatusRow
		var status string
		if err := rows.Scan(&row.StudentID, &row.RollNo, &row.Name, &row.ClassID, &row.Date, &status); err != nil {
			return nil, err
		}
		row.Status = attendance.Status(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ClassOwner returns the owning teacher of a class.
func (r *Repository) ClassOwner(ctx context.Context, classID uuid.UUID) (uuid.UUID, error) {
	var teacherID uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM classes WHERE id = $1`, classID).Scan(&teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("class not found")
	}
	return teacherID, err
}

// ClassRoster returns the enrolled students of a class.
func (r *Repository) ClassRoster(ctx context.Context, classID uuid.UUID) ([]RosterRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.university_roll, s.name
		FROM students s
		JOIN class_students cs ON cs.student_id = s.id
		WHERE cs.class_id = $1
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterRef
	for rows.Next() {
		var ref RosterRef
		if err := rows.Scan(&ref.StudentID, &ref.RollNo, &ref.Name); err != nil {
			return nil, err
		}
		roster = append(roster, ref)
	}
	return roster, rows.Err()
}

// IsEnrolled reports whether a student is on the class roster.
func (r *Repository) IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2
		)
	`, classID, studentID).Scan(&exists)
	return exists, err
}

// ClassSessionDates returns the dates of every session taken for a class.
func (r *Repository) ClassSessionDates(ctx context.Context, classID uuid.UUID) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_date FROM attendance_sessions WHERE class_id = $1
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// StudentClassRecords returns the student's stored records for one class.
func (r *Repository) StudentClassRecords(ctx context.Context, studentID, classID uuid.UUID) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sess.session_date, a.status, a.recognized_by_ai, a.similarity_score
		FROM attendance_statuses a
		JOIN attendance_sessions sess ON sess.id = a.session_id
		WHERE a.student_id = $1 AND sess.class_id = $2
	`, studentID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.Date, &status, &rec.RecognizedByAI, &rec.SimilarityScore); err != nil {
			return nil, err
		}
		rec.Status = attendance.Status(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ThresholdRow is one student's present count against the total sessions of
// one enrolled class.
type ThresholdRow struct {
	StudentID     uuid.UUID
	PresentCount  int
	TotalSessions int
}

// ThresholdRows returns, per enrollment edge, the student's present count
// and the class's session count. When classID is non-nil the scan is scoped
// to that class.
func (r *Repository) ThresholdRows(ctx context.Context, classID *uuid.UUID) ([]ThresholdRow, error) {
	query := `
		SELECT cs.student_id,
			COUNT(a.id) FILTER (WHERE a.status = 'present') AS present_count,
			(SELECT COUNT(*) FROM attendance_sessions WHERE class_id = cs.class_id) AS total_sessions
		FROM class_students cs
		LEFT JOIN attendance_sessions sess ON sess.class_id = cs.class_id
		LEFT JOIN attendance_statuses a ON a.session_id = sess.id AND a.student_id = cs.student_id`
	args := []any{}
	if classID != nil {
		query += ` WHERE cs.class_id = $1`
		args = append(args, *classID)
	}
	query += ` GROUP BY cs.class_id, cs.student_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ThresholdRow
	for rows.Next() {
		var row ThresholdRow
		if err := rows.Scan(&row.StudentID, &row.PresentCount, &row.TotalSessions); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
