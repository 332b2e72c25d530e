package notification

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
)

// Repository persists notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StudentExists reports whether a student id is known.
func (r *Repository) StudentExists(ctx context.Context, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, studentID).Scan(&exists)
	return exists, err
}

// Insert writes one notification.
func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, student_id, title, message, notification_type, target_role, attendance_threshold)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING created_at
	`, n.ID, n.StudentID, n.Title, n.Message, string(n.Type), n.TargetRole, n.Threshold).Scan(&n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}

// ListForStudent returns a student's notifications, newest first.
func (r *Repository) ListForStudent(ctx context.Context, studentID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT id, student_id, title, message, COALESCE(notification_type, ''),
			COALESCE(target_role, ''), attendance_threshold, is_read, created_at, read_at
		FROM notifications
		WHERE student_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.StudentID, &n.Title, &n.Message, &typ,
			&n.TargetRole, &n.Threshold, &n.IsRead, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		n.Type = Type(typ)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags one of the student's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, notificationID, studentID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND student_id = $2
	`, notificationID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// StudentIDByEmail resolves a student id by primary or alternate email.
func (r *Repository) StudentIDByEmail(ctx context.Context, email string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM students WHERE email = $1 OR alt_email = $1`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
