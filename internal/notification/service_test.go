package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperr"
)

type fakeStore struct {
	students      map[uuid.UUID]bool
	emailToID     map[string]uuid.UUID
	notifications []Notification
	failFor       map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:  make(map[uuid.UUID]bool),
		emailToID: make(map[string]uuid.UUID),
		failFor:   make(map[uuid.UUID]bool),
	}
}

func (f *fakeStore) StudentExists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.students[id], nil
}

func (f *fakeStore) Insert(_ context.Context, n Notification) (Notification, error) {
	if n.StudentID != nil && f.failFor[*n.StudentID] {
		return Notification{}, errors.New("insert failed")
	}
	n.ID = uuid.New()
	f.notifications = append(f.notifications, n)
	return n, nil
}

func (f *fakeStore) ListForStudent(_ context.Context, studentID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	var out []Notification
	for _, n := range f.notifications {
		if n.StudentID == nil || *n.StudentID != studentID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeStore) MarkRead(_ context.Context, notificationID, studentID uuid.UUID) error {
	for i, n := range f.notifications {
		if n.ID == notificationID && n.StudentID != nil && *n.StudentID == studentID {
			f.notifications[i].IsRead = true
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (f *fakeStore) StudentIDByEmail(_ context.Context, email string) (*uuid.UUID, error) {
	if id, ok := f.emailToID[email]; ok {
		return &id, nil
	}
	return nil, nil
}

type fakeThresholds struct {
	ids []uuid.UUID
}

func (f *fakeThresholds) BelowThreshold(context.Context, float64, *uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, nil
}

func TestNotifyStudentUnknownStudent(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeThresholds{})

	_, err := svc.NotifyStudent(context.Background(), uuid.New(), "Hi", "Message")
	assert.True(t, apperr.IsNotFound(err))
}

func TestNotifyStudentValidation(t *testing.T) {
	store := newFakeStore()
	student := uuid.New()
	store.students[student] = true
	svc := NewService(store, &fakeThresholds{})

	_, err := svc.NotifyStudent(context.Background(), student, "", "Message")
	assert.True(t, apperr.IsInvalid(err))

	n, err := svc.NotifyStudent(context.Background(), student, "Hi", "Message")
	require.NoError(t, err)
	assert.Equal(t, TypeManual, n.Type)
	require.NotNil(t, n.StudentID)
	assert.Equal(t, student, *n.StudentID)
}

func TestNotifyBelowThresholdBestEffort(t *testing.T) {
	store := newFakeStore()
	ok1, failing, ok2 := uuid.New(), uuid.New(), uuid.New()
	store.failFor[failing] = true
	svc := NewService(store, &fakeThresholds{ids: []uuid.UUID{ok1, failing, ok2}})

	result, err := svc.NotifyBelowThreshold(context.Background(), 75, "Low attendance", "Attend classes", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Matched)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	// The rows that did land carry the threshold for the audit trail.
	require.Len(t, store.notifications, 2)
	require.NotNil(t, store.notifications[0].Threshold)
	assert.Equal(t, 75.0, *store.notifications[0].Threshold)
	assert.Equal(t, TypeAttendance, store.notifications[0].Type)
}

func TestNotifyBelowThresholdValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeThresholds{})

	_, err := svc.NotifyBelowThreshold(context.Background(), 120, "t", "m", nil)
	assert.True(t, apperr.IsInvalid(err))

	_, err = svc.NotifyBelowThreshold(context.Background(), 75, "", "m", nil)
	assert.True(t, apperr.IsInvalid(err))
}

func TestListAndMarkReadByEmail(t *testing.T) {
	store := newFakeStore()
	student := uuid.New()
	store.students[student] = true
	store.emailToID["alice@example.edu"] = student
	svc := NewService(store, &fakeThresholds{})

	n, err := svc.NotifyStudent(context.Background(), student, "Hi", "There")
	require.NoError(t, err)

	list, err := svc.ListByEmail(context.Background(), "alice@example.edu", true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.MarkReadByEmail(context.Background(), "alice@example.edu", n.ID))

	list, err = svc.ListByEmail(context.Background(), "alice@example.edu", true)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Unknown email has no student record.
	_, err = svc.ListByEmail(context.Background(), "nobody@example.edu", false)
	assert.True(t, apperr.IsNotFound(err))

	// Another student's notification cannot be marked.
	err = svc.MarkReadByEmail(context.Background(), "alice@example.edu", uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}
