package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UserByEmail returns the system account for an email, or nil when absent.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, COALESCE(department, '')
		FROM users WHERE email = $1
	`, email)
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", u.Email, role)
	}
	u.Role = parsed
	return &u, nil
}

// CreateUser inserts a system account.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, department)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`, u.ID, u.Email, u.Name, u.Role.String(), u.Department)
	if apperr.IsUniqueViolation(err) {
		return User{}, apperr.Conflict("user with email %s already exists", u.Email)
	}
	return u, err
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

// UpsertStudent creates or updates a student matched by university roll.
// Supplied empty fields never overwrite stored values (fill-missing merge).
func (r *Repository) UpsertStudent(ctx context.Context, in StudentInput) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, university_roll, roll_no, name, email, alt_email, photo_url, program, section)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
		ON CONFLICT (university_roll) DO UPDATE SET
			roll_no   = COALESCE(NULLIF(EXCLUDED.roll_no, ''), students.roll_no),
			name      = COALESCE(NULLIF(EXCLUDED.name, ''), students.name),
			email     = COALESCE(NULLIF(EXCLUDED.email, ''), students.email),
			alt_email = COALESCE(NULLIF(EXCLUDED.alt_email, ''), students.alt_email),
			photo_url = COALESCE(NULLIF(EXCLUDED.photo_url, ''), students.photo_url),
			program   = COALESCE(NULLIF(EXCLUDED.program, ''), students.program),
			section   = COALESCE(NULLIF(EXCLUDED.section, ''), students.section)
		RETURNING id, university_roll, COALESCE(roll_no, ''), name, COALESCE(email, ''),
			COALESCE(alt_email, ''), COALESCE(photo_url, ''), COALESCE(program, ''),
			COALESCE(section, ''), created_at
	`, uuid.New(), in.UniversityRoll, in.RollNo, in.Name, in.Email, in.AltEmail, in.PhotoURL, in.Program, in.Section)
	return scanStudent(row)
}

// StudentByRoll resolves a student by university roll or legacy roll number.
// Returns nil when no student matches.
func (r *Repository) StudentByRoll(ctx context.Context, roll string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, university_roll, COALESCE(roll_no, ''), name, COALESCE(email, ''),
			COALESCE(alt_email, ''), COALESCE(photo_url, ''), COALESCE(program, ''),
			COALESCE(section, ''), created_at
		FROM students WHERE university_roll = $1 OR roll_no = $1
	`, roll)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// StudentByEmail resolves a student by primary or alternate email.
func (r *Repository) StudentByEmail(ctx context.Context, email string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, university_roll, COALESCE(roll_no, ''), name, COALESCE(email, ''),
			COALESCE(alt_email, ''), COALESCE(photo_url, ''), COALESCE(program, ''),
			COALESCE(section, ''), created_at
		FROM students WHERE email = $1 OR alt_email = $1
	`, email)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Enroll adds a student to a class roster. Re-enrolling is a no-op.
func (r *Repository) Enroll(ctx context.Context, classID, studentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_students (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, student_id) DO NOTHING
	`, classID, studentID)
	return err
}

// ClassStudents returns the roster of a class ordered by roll number.
func (r *Repository) ClassStudents(ctx context.Context, classID uuid.UUID) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.university_roll, COALESCE(s.roll_no, ''), s.name, COALESCE(s.email, ''),
			COALESCE(s.alt_email, ''), COALESCE(s.photo_url, ''), COALESCE(s.program, ''),
			COALESCE(s.section, ''), s.created_at
		FROM students s
		JOIN class_students cs ON cs.student_id = s.id
		WHERE cs.class_id = $1
		ORDER BY s.university_roll
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// UpsertAllowedEmail records an email as eligible for self-service login.
// Existing rows are only filled in, never overwritten.
func (r *Repository) UpsertAllowedEmail(ctx context.Context, e AllowedEmail) error {
	if e.Email == "" && e.AltEmail == "" {
		return nil
	}
	if e.Email == "" {
		e.Email = e.AltEmail
		e.AltEmail = ""
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allowed_student_emails (id, email, alt_email, university_roll, name, program)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (email) DO UPDATE SET
			alt_email       = COALESCE(allowed_student_emails.alt_email, NULLIF(EXCLUDED.alt_email, '')),
			university_roll = COALESCE(allowed_student_emails.university_roll, NULLIF(EXCLUDED.university_roll, '')),
			name            = COALESCE(allowed_student_emails.name, NULLIF(EXCLUDED.name, '')),
			updated_at      = NOW()
	`, uuid.New(), e.Email, e.AltEmail, e.UniversityRoll, e.Name, e.Program)
	return err
}

// IsEmailAllowed reports whether an email may self-authenticate as a student.
func (r *Repository) IsEmailAllowed(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM allowed_student_emails WHERE email = $1 OR alt_email = $1
		)
	`, email).Scan(&exists)
	return exists, err
}

// SetStudentPhoto updates a student's reference photo URL.
func (r *Repository) SetStudentPhoto(ctx context.Context, universityRoll, url string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET photo_url = $2 WHERE university_roll = $1 OR roll_no = $1
	`, universityRoll, url)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("student not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.UniversityRoll, &s.RollNo, &s.Name, &s.Email,
		&s.AltEmail, &s.PhotoURL, &s.Program, &s.Section, &s.CreatedAt)
	return s, err
}
