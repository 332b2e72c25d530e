package notification

import (
	"context"
	"log"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/metrics"
)

// Store is the persistence surface the service needs.
type Store interface {
	StudentExists(ctx context.Context, studentID uuid.UUID) (bool, error)
	Insert(ctx context.Context, n Notification) (Notification, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID, studentID uuid.UUID) error
	StudentIDByEmail(ctx context.Context, email string) (*uuid.UUID, error)
}

// ThresholdSource yields student ids whose attendance sits at or below a
// percentage threshold, optionally scoped to a single class.
type ThresholdSource interface {
	BelowThreshold(ctx context.Context, threshold float64, classID *uuid.UUID) ([]uuid.UUID, error)
}

// Service sends and reads notifications.
type Service struct {
	store      Store
	thresholds ThresholdSource
}

// NewService creates a notification service.
func NewService(store Store, thresholds ThresholdSource) *Service {
	return &Service{store: store, thresholds: thresholds}
}

// NotifyStudent sends a manual notification to one student.
func (s *Service) NotifyStudent(ctx context.Context, studentID uuid.UUID, title, message string) (Notification, error) {
	if title == "" || message == "" {
		return Notification{}, apperr.Invalid("title and message are required")
	}
	exists, err := s.store.StudentExists(ctx, studentID)
	if err != nil {
		return Notification{}, err
	}
	if !exists {
		return Notification{}, apperr.NotFound("student not found")
	}
	n, err := s.store.Insert(ctx, Notification{
		StudentID:  &studentID,
		Title:      title,
		Message:    message,
		Type:       TypeManual,
		TargetRole: "STUDENT",
	})
	if err != nil {
		return Notification{}, err
	}
	metrics.NotificationsSent.Inc()
	return n, nil
}

// BroadcastResult reports how a threshold broadcast went.
type BroadcastResult struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// NotifyBelowThreshold fans a notification out to every student whose
// attendance percentage is at or below the threshold. Inserts are best
// effort: one student failing does not stop the rest.
func (s *Service) NotifyBelowThreshold(ctx context.Context, threshold float64, title, message string, classID *uuid.UUID) (BroadcastResult, error) {
	if threshold < 0 || threshold > 100 {
		return BroadcastResult{}, apperr.Invalid("threshold must be between 0 and 100")
	}
	if title == "" || message == "" {
		return BroadcastResult{}, apperr.Invalid("title and message are required")
	}

	ids, err := s.thresholds.BelowThreshold(ctx, threshold, classID)
	if err != nil {
		return BroadcastResult{}, err
	}

	result := BroadcastResult{Matched: len(ids)}
	for _, id := range ids {
		sid := id
		_, err := s.store.Insert(ctx, Notification{
			StudentID:  &sid,
			Title:      title,
			Message:    message,
			Type:       TypeAttendance,
			TargetRole: "STUDENT",
			Threshold:  &threshold,
		})
		if err != nil {
			log.Printf("notification: insert for student %s failed: %v", id, err)
			metrics.SideEffectFailures.WithLabelValues("notification").Inc()
			result.Failed++
			continue
		}
		metrics.NotificationsSent.Inc()
		result.Sent++
	}
	return result, nil
}

// ListByEmail returns notifications for the student behind an email.
func (s *Service) ListByEmail(ctx context.Context, email string, unreadOnly bool) ([]Notification, error) {
	id, err := s.store.StudentIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, apperr.NotFound("no student record for this account")
	}
	return s.store.ListForStudent(ctx, *id, unreadOnly)
}

// MarkReadByEmail marks one notification read for the student behind an email.
func (s *Service) MarkReadByEmail(ctx context.Context, email string, notificationID uuid.UUID) error {
	id, err := s.store.StudentIDByEmail(ctx, email)
	if err != nil {
		return err
	}
	if id == nil {
		return apperr.NotFound("no student record for this account")
	}
	return s.store.MarkRead(ctx, notificationID, *id)
}
