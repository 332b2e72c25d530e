package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
)

// ErrDuplicateSession signals the (class, date) unique constraint fired on
// insert. The service treats it as "somebody else just created it".
var ErrDuplicateSession = errors.New("attendance: session already exists for class and date")

// Repository persists sessions and status records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
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

// InsertSession writes a new session. The unique constraint on
// (class_id, session_date) is the concurrency-correctness mechanism: a
// violation surfaces as ErrDuplicateSession so the caller can re-fetch.
func (r *Repository) InsertSession(ctx context.Context, s Session) (Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (id, class_id, teacher_id, session_date, processed_image_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`, s.ID, s.ClassID, s.TeacherID, s.Date, s.ProcessedImageURL).Scan(&s.CreatedAt)
	if apperr.IsUniqueViolation(err) {
		return Session{}, ErrDuplicateSession
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// SessionByClassDate returns the session for a class/date pair, or nil.
func (r *Repository) SessionByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, teacher_id, session_date, COALESCE(processed_image_url, ''), created_at
		FROM attendance_sessions
		WHERE class_id = $1 AND session_date = $2
	`, classID, date)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionByID returns a session by id.
func (r *Repository) SessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_id, teacher_id, session_date, COALESCE(processed_image_url, ''), created_at
		FROM attendance_sessions WHERE id = $1
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("attendance session not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a class's sessions, newest first, optionally bounded
// by an inclusive date range.
func (r *Repository) ListSessions(ctx context.Context, classID uuid.UUID, from, to *time.Time) ([]Session, error) {
	query := `
		SELECT id, class_id, teacher_id, session_date, COALESCE(processed_image_url, ''), created_at
		FROM attendance_sessions
		WHERE class_id = $1`
	args := []any{classID}
	if from != nil {
		args = append(args, *from)
		query += ` AND session_date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND session_date <= $3`
		} else {
			query += ` AND session_date <= $2`
		}
	}
	query += ` ORDER BY session_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// StudentRef is the slim student view the ledger needs.
type StudentRef struct {
	ID     uuid.UUID
	RollNo string
	Name   string
}

// StudentByRoll resolves a student by university roll or legacy roll number.
// Returns nil when no student matches.
func (r *Repository) StudentByRoll(ctx context.Context, roll string) (*StudentRef, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, university_roll, name FROM students
		WHERE university_roll = $1 OR roll_no = $1
	`, roll)
	var s StudentRef
	if err := row.Scan(&s.ID, &s.RollNo, &s.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
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

// UpsertStatus writes or overwrites the ledger row for a (session, student)
// pair. The unique constraint makes concurrent upserts safe.
func (r *Repository) UpsertStatus(ctx context.Context, rec StatusRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_statuses (id, session_id, student_id, status, recognized_by_ai, similarity_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, student_id) DO UPDATE SET
			status = EXCLUDED.status,
			recognized_by_ai = EXCLUDED.recognized_by_ai,
			similarity_score = EXCLUDED.similarity_score,
			marked_at = NOW()
	`, uuid.New(), rec.SessionID, rec.StudentID, string(rec.Status), rec.RecognizedByAI, rec.SimilarityScore)
	return err
}

// SessionStatuses returns the full status list for a session joined with
// student display fields. Ordering groups by session only; callers must not
// rely on row order.
func (r *Repository) SessionStatuses(ctx context.Context, sessionID uuid.UUID) ([]StatusView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.university_roll, s.name, a.status, a.recognized_by_ai, a.similarity_score
		FROM attendance_statuses a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = $1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []StatusView
	for rows.Next() {
		var v StatusView
		var status string
		if err := rows.Scan(&v.RollNo, &v.Name, &status, &v.RecognizedByAI, &v.SimilarityScore); err != nil {
			return nil, err
		}
		v.Status = Status(status)
		views = append(views, v)
	}
	return views, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ClassID, &s.TeacherID, &s.Date, &s.ProcessedImageURL, &s.CreatedAt)
	return s, err
}
