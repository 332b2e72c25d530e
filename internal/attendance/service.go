package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
	"rollcall/internal/metrics"
)

const dateLayout = "2006-01-02"

// Store is the persistence surface the service needs.
type Store interface {
	ClassOwner(ctx context.Context, classID uuid.UUID) (uuid.UUID, error)
	InsertSession(ctx context.Context, s Session) (Session, error)
	SessionByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) (*Session, error)
	SessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListSessions(ctx context.Context, classID uuid.UUID, from, to *time.Time) ([]Session, error)
	StudentByRoll(ctx context.Context, roll string) (*StudentRef, error)
	IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	UpsertStatus(ctx context.Context, rec StatusRecord) error
	SessionStatuses(ctx context.Context, sessionID uuid.UUID) ([]StatusView, error)
}

// Service coordinates session creation and the status ledger.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) authorizeClass(ctx context.Context, classID uuid.UUID, caller auth.Caller) error {
	owner, err := s.store.ClassOwner(ctx, classID)
	if err != nil {
		return err
	}
	if !caller.Role.IsAdmin() && owner != caller.UserID {
		return apperr.Forbidden("you do not have permission to take attendance for this class")
	}
	return nil
}

// CreateOrGetSession returns the session for (class, date), creating it when
// absent. A second call with the same arguments returns the existing row.
// Safe under concurrent calls: the insert path catches the unique-constraint
// violation and falls back to a read.
func (s *Service) CreateOrGetSession(ctx context.Context, classID uuid.UUID, caller auth.Caller, dateStr, imageURL string) (Session, error) {
	if err := s.authorizeClass(ctx, classID, caller); err != nil {
		return Session{}, err
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return Session{}, apperr.Invalid("invalid date format, use YYYY-MM-DD")
	}

	if existing, err := s.store.SessionByClassDate(ctx, classID, date); err != nil {
		return Session{}, err
	} else if existing != nil {
		return *existing, nil
	}

	created, err := s.store.InsertSession(ctx, Session{
		ClassID:           classID,
		TeacherID:         caller.UserID,
		Date:              date,
		ProcessedImageURL: imageURL,
	})
	if errors.Is(err, ErrDuplicateSession) {
		// Lost the race; somebody else created it between check and insert.
		existing, rerr := s.store.SessionByClassDate(ctx, classID, date)
		if rerr != nil {
			return Session{}, rerr
		}
		if existing == nil {
			return Session{}, err
		}
		return *existing, nil
	}
	if err != nil {
		return Session{}, err
	}
	metrics.SessionsCreated.Inc()
	return created, nil
}

// ListSessions returns the class's sessions with their status lists.
// Malformed date filters are silently ignored rather than rejected; bulk
// upload tooling depends on that.
func (s *Service) ListSessions(ctx context.Context, classID uuid.UUID, caller auth.Caller, fromStr, toStr string) ([]SessionWithStatuses, error) {
	if err := s.authorizeClass(ctx, classID, caller); err != nil {
		return nil, err
	}

	var from, to *time.Time
	if fromStr != "" {
		if d, err := time.Parse(dateLayout, fromStr); err == nil {
			from = &d
		}
	}
	if toStr != "" {
		if d, err := time.Parse(dateLayout, toStr); err == nil {
			to = &d
		}
	}

	sessions, err := s.store.ListSessions(ctx, classID, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]SessionWithStatuses, 0, len(sessions))
	for _, sess := range sessions {
		statuses, err := s.store.SessionStatuses(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, SessionWithStatuses{Session: sess, Statuses: statuses})
	}
	return out, nil
}

// UpsertStatuses applies a batch of status updates to a session. Invalid
// rows (unknown roll, not enrolled, bad status) are skipped so one bad row
// never voids a 60-student batch. Returns the session's full status list
// after applying all valid updates.
func (s *Service) UpsertStatuses(ctx context.Context, sessionID uuid.UUID, caller auth.Caller, updates []StatusUpdate) ([]StatusView, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.IsAdmin() && sess.TeacherID != caller.UserID {
		return nil, apperr.Forbidden("you do not have permission to update this session")
	}

	for _, upd := range updates {
		student, err := s.store.StudentByRoll(ctx, upd.Roll)
		if err != nil {
			return nil, err
		}
		if student == nil {
			metrics.BatchRowsSkipped.WithLabelValues("unknown_student").Inc()
			continue
		}

		enrolled, err := s.store.IsEnrolled(ctx, sess.ClassID, student.ID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			metrics.BatchRowsSkipped.WithLabelValues("not_enrolled").Inc()
			continue
		}

		status, ok := ParseStatus(upd.Status)
		if !ok {
			metrics.BatchRowsSkipped.WithLabelValues("invalid_status").Inc()
			continue
		}

		// A score outside 0-100 would be rejected by the column type
		// and abort the whole batch, so skip the row here instead.
		if upd.SimilarityScore != nil && (*upd.SimilarityScore < 0 || *upd.SimilarityScore > 100) {
			metrics.BatchRowsSkipped.WithLabelValues("invalid_similarity").Inc()
			continue
		}

		err = s.store.UpsertStatus(ctx, StatusRecord{
			SessionID:       sessionID,
			StudentID:       student.ID,
			Status:          status,
			RecognizedByAI:  upd.RecognizedByAI,
			SimilarityScore: upd.SimilarityScore,
		})
		if err != nil {
			return nil, err
		}
		metrics.StatusesUpserted.Inc()
	}

	return s.store.SessionStatuses(ctx, sessionID)
}
