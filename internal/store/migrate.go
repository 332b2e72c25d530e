package store

import (
	"context"
	"fmt"
)

// schema is applied at startup. Uniqueness invariants live here, not only in
// application code: idempotent-create paths rely on these constraints to stay
// correct under concurrent inserts.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    role TEXT NOT NULL,
    department TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS allowed_student_emails (
    id UUID PRIMARY KEY,
    email TEXT UNIQUE,
    alt_email TEXT UNIQUE,
    university_roll TEXT,
    name TEXT,
    program TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    university_roll TEXT NOT NULL UNIQUE,
    roll_no TEXT UNIQUE,
    name TEXT NOT NULL,
    email TEXT,
    alt_email TEXT,
    photo_url TEXT,
    program TEXT,
    section TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS classes (
    id UUID PRIMARY KEY,
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    section TEXT NOT NULL DEFAULT '',
    teacher_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_teacher_class_section UNIQUE (teacher_id, code, section)
);

CREATE TABLE IF NOT EXISTS class_schedules (
    id UUID PRIMARY KEY,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    CONSTRAINT uq_class_schedule_day UNIQUE (class_id, day_of_week)
);

CREATE TABLE IF NOT EXISTS class_reschedules (
    id UUID PRIMARY KEY,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    original_date DATE NOT NULL,
    original_start_time TEXT NOT NULL,
    original_end_time TEXT NOT NULL,
    rescheduled_date DATE NOT NULL,
    rescheduled_start_time TEXT NOT NULL,
    rescheduled_end_time TEXT NOT NULL,
    reason TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS class_students (
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (class_id, student_id)
);

CREATE TABLE IF NOT EXISTS attendance_sessions (
    id UUID PRIMARY KEY,
    class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    teacher_id UUID NOT NULL REFERENCES users(id),
    session_date DATE NOT NULL,
    processed_image_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_sessions_class_date UNIQUE (class_id, session_date)
);

CREATE TABLE IF NOT EXISTS attendance_statuses (
    id UUID PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    status TEXT NOT NULL CHECK (status IN ('present', 'absent', 'late', 'excused')),
    recognized_by_ai BOOLEAN NOT NULL DEFAULT FALSE,
    similarity_score NUMERIC(5,2),
    marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_attendance_session_student UNIQUE (session_id, student_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    student_id UUID REFERENCES students(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    notification_type TEXT,
    target_role TEXT,
    attendance_threshold DOUBLE PRECISION,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    read_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_students_roll_no ON students(roll_no);
CREATE INDEX IF NOT EXISTS idx_sessions_class ON attendance_sessions(class_id, session_date);
CREATE INDEX IF NOT EXISTS idx_statuses_student ON attendance_statuses(student_id);
CREATE INDEX IF NOT EXISTS idx_notifications_student ON notifications(student_id, created_at DESC);
`

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
