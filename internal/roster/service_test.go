package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

type fakeStore struct {
	owner         uuid.UUID
	students      map[string]Student // by university roll
	enrollments   map[uuid.UUID]map[uuid.UUID]bool
	allowed       map[string]AllowedEmail
	allowListErr  error
	upsertFailFor string
}

func newFakeStore(owner uuid.UUID) *fakeStore {
	return &fakeStore{
		owner:       owner,
		students:    make(map[string]Student),
		enrollments: make(map[uuid.UUID]map[uuid.UUID]bool),
		allowed:     make(map[string]AllowedEmail),
	}
}

func (f *fakeStore) ClassOwner(context.Context, uuid.UUID) (uuid.UUID, error) { return f.owner, nil }

func (f *fakeStore) UpsertStudent(_ context.Context, in StudentInput) (Student, error) {
	if in.UniversityRoll == f.upsertFailFor {
		return Student{}, errors.New("boom")
	}
	existing, ok := f.students[in.UniversityRoll]
	if !ok {
		existing = Student{ID: uuid.New(), UniversityRoll: in.UniversityRoll}
	}
	// Fill-missing semantics: non-empty incoming fields win, empty ones keep
	// the stored value.
	apply := func(stored *string, incoming string) {
		if incoming != "" {
			*stored = incoming
		}
	}
	apply(&existing.RollNo, in.RollNo)
	apply(&existing.Name, in.Name)
	apply(&existing.Email, in.Email)
	apply(&existing.AltEmail, in.AltEmail)
	apply(&existing.PhotoURL, in.PhotoURL)
	apply(&existing.Program, in.Program)
	apply(&existing.Section, in.Section)
	f.students[in.UniversityRoll] = existing
	return existing, nil
}

func (f *fakeStore) Enroll(_ context.Context, classID, studentID uuid.UUID) error {
	m := f.enrollments[classID]
	if m == nil {
		m = make(map[uuid.UUID]bool)
		f.enrollments[classID] = m
	}
	m[studentID] = true
	return nil
}

func (f *fakeStore) ClassStudents(_ context.Context, classID uuid.UUID) ([]Student, error) {
	var out []Student
	for _, st := range f.students {
		if f.enrollments[classID][st.ID] {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertAllowedEmail(_ context.Context, e AllowedEmail) error {
	if f.allowListErr != nil {
		return f.allowListErr
	}
	f.allowed[e.Email] = e
	return nil
}

func (f *fakeStore) StudentByRoll(_ context.Context, roll string) (*Student, error) {
	if st, ok := f.students[roll]; ok {
		return &st, nil
	}
	return nil, nil
}

func (f *fakeStore) StudentByEmail(_ context.Context, email string) (*Student, error) {
	for _, st := range f.students {
		if st.Email == email || st.AltEmail == email {
			return &st, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetStudentPhoto(_ context.Context, universityRoll, url string) error {
	st, ok := f.students[universityRoll]
	if !ok {
		return apperr.NotFound("student not found")
	}
	st.PhotoURL = url
	f.students[universityRoll] = st
	return nil
}

func TestUpsertRosterBatchSkipsBadRows(t *testing.T) {
	teacher := uuid.New()
	store := newFakeStore(teacher)
	store.upsertFailFor = "ROLL003"
	svc := NewService(store)
	caller := auth.Caller{UserID: teacher, Role: auth.RoleTeacher}
	classID := uuid.New()

	inputs := []StudentInput{
		{UniversityRoll: "ROLL001", Name: "Alice", Email: "alice@example.edu"},
		{Name: "No Roll"},                          // missing key, skipped
		{UniversityRoll: "ROLL003", Name: "Boom"},  // store failure, skipped
		{UniversityRoll: "ROLL002", Name: "Bobby"}, // fine
	}

	students, err := svc.UpsertRosterBatch(context.Background(), classID, caller, inputs)
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestUpsertRosterBatchFillsMissingFields(t *testing.T) {
	teacher := uuid.New()
	store := newFakeStore(teacher)
	svc := NewService(store)
	caller := auth.Caller{UserID: teacher, Role: auth.RoleTeacher}
	classID := uuid.New()

	_, err := svc.UpsertRosterBatch(context.Background(), classID, caller, []StudentInput{
		{UniversityRoll: "ROLL001", Name: "Alice", Email: "alice@example.edu", Program: "CSE"},
	})
	require.NoError(t, err)

	// A later upload with partial data must not blank out stored fields.
	_, err = svc.UpsertRosterBatch(context.Background(), classID, caller, []StudentInput{
		{UniversityRoll: "ROLL001", RollNo: "42"},
	})
	require.NoError(t, err)

	st := store.students["ROLL001"]
	assert.Equal(t, "Alice", st.Name)
	assert.Equal(t, "alice@example.edu", st.Email)
	assert.Equal(t, "42", st.RollNo)
}

func TestUpsertRosterBatchAllowListFailureIsNotFatal(t *testing.T) {
	teacher := uuid.New()
	store := newFakeStore(teacher)
	store.allowListErr = errors.New("allow list down")
	svc := NewService(store)
	caller := auth.Caller{UserID: teacher, Role: auth.RoleTeacher}

	students, err := svc.UpsertRosterBatch(context.Background(), uuid.New(), caller, []StudentInput{
		{UniversityRoll: "ROLL001", Name: "Alice", Email: "alice@example.edu"},
	})
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestUpsertRosterBatchRegistersAllowedEmails(t *testing.T) {
	teacher := uuid.New()
	store := newFakeStore(teacher)
	svc := NewService(store)
	caller := auth.Caller{UserID: teacher, Role: auth.RoleTeacher}

	_, err := svc.UpsertRosterBatch(context.Background(), uuid.New(), caller, []StudentInput{
		{UniversityRoll: "ROLL001", Name: "Alice", Email: "alice@example.edu"},
		{UniversityRoll: "ROLL002", Name: "NoMail"},
	})
	require.NoError(t, err)

	// Only rows carrying an email land on the allow list.
	assert.Len(t, store.allowed, 1)
	assert.Equal(t, "ROLL001", store.allowed["alice@example.edu"].UniversityRoll)
}

func TestUpsertRosterBatchForbiddenForNonOwner(t *testing.T) {
	store := newFakeStore(uuid.New())
	svc := NewService(store)

	_, err := svc.UpsertRosterBatch(context.Background(), uuid.New(), auth.Caller{UserID: uuid.New(), Role: auth.RoleTeacher}, nil)
	assert.True(t, apperr.IsForbidden(err))

	_, err = svc.UpsertRosterBatch(context.Background(), uuid.New(), auth.Caller{UserID: uuid.New(), Role: auth.RoleAdmin}, nil)
	assert.NoError(t, err)
}
