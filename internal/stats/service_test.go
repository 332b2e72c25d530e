package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperr"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
)

type fakeStore struct {
	statusRows    []StatusRow
	owner         uuid.UUID
	roster        []RosterRef
	enrolled      map[uuid.UUID]bool
	sessionDates  []time.Time
	records       []Record
	thresholdRows []ThresholdRow
}

func (f *fakeStore) AllStatusRows(context.Context) ([]StatusRow, error) { return f.statusRows, nil }
func (f *fakeStore) ClassStatusRows(context.Context, uuid.UUID) ([]StatusRow, error) {
	return f.statusRows, nil
}
func (f *fakeStore) ClassOwner(context.Context, uuid.UUID) (uuid.UUID, error) { return f.owner, nil }
func (f *fakeStore) ClassRoster(context.Context, uuid.UUID) ([]RosterRef, error) {
	return f.roster, nil
}
func (f *fakeStore) IsEnrolled(_ context.Context, _, studentID uuid.UUID) (bool, error) {
	return f.enrolled[studentID], nil
}
func (f *fakeStore) ClassSessionDates(context.Context, uuid.UUID) ([]time.Time, error) {
	return f.sessionDates, nil
}
func (f *fakeStore) StudentClassRecords(context.Context, uuid.UUID, uuid.UUID) ([]Record, error) {
	return f.records, nil
}
func (f *fakeStore) ThresholdRows(context.Context, *uuid.UUID) ([]ThresholdRow, error) {
	return f.thresholdRows, nil
}

func TestLeaderboardSelfEntryMatchesPageRanking(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	store := &fakeStore{statusRows: []StatusRow{
		{StudentID: alice, Name: "Alice", Date: d("2025-01-01"), Status: attendance.StatusPresent},
		{StudentID: bob, Name: "Bob", Date: d("2025-01-01"), Status: attendance.StatusAbsent},
	}}
	svc := NewService(store, nil)

	// Page only covers the first entry; the self lookup still resolves Bob
	// from the same ranking.
	result, err := svc.Leaderboard(context.Background(), 1, 0, &bob)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, alice, result.Items[0].StudentID)
	require.NotNil(t, result.SelfEntry)
	assert.Equal(t, 2, result.SelfEntry.Rank)
}

func TestLeaderboardClampsLimit(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)
	result, err := svc.Leaderboard(context.Background(), -5, -3, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Limit)
	assert.Equal(t, 0, result.Offset)
}

func TestClassSummaryForbiddenForNonOwner(t *testing.T) {
	owner := uuid.New()
	svc := NewService(&fakeStore{owner: owner}, nil)

	_, err := svc.ClassSummary(context.Background(), uuid.New(), auth.Caller{UserID: uuid.New(), Role: auth.RoleTeacher})
	assert.True(t, apperr.IsForbidden(err))

	_, err = svc.ClassSummary(context.Background(), uuid.New(), auth.Caller{UserID: owner, Role: auth.RoleTeacher})
	assert.NoError(t, err)

	// Admins bypass the ownership check.
	_, err = svc.ClassSummary(context.Background(), uuid.New(), auth.Caller{UserID: uuid.New(), Role: auth.RoleAdmin})
	assert.NoError(t, err)
}

func TestStudentClassStatsRequiresEnrollment(t *testing.T) {
	student := uuid.New()
	svc := NewService(&fakeStore{enrolled: map[uuid.UUID]bool{}}, nil)

	_, err := svc.StudentClassStats(context.Background(), student, uuid.New())
	assert.True(t, apperr.IsForbidden(err))
}

func TestBelowThresholdIncludesZeroSessionClasses(t *testing.T) {
	low := uuid.New()
	high := uuid.New()
	noSessions := uuid.New()
	store := &fakeStore{thresholdRows: []ThresholdRow{
		{StudentID: low, PresentCount: 5, TotalSessions: 10},       // 50%
		{StudentID: high, PresentCount: 9, TotalSessions: 10},      // 90%
		{StudentID: noSessions, PresentCount: 0, TotalSessions: 0}, // counts as 0%
		{StudentID: low, PresentCount: 6, TotalSessions: 10},       // duplicate student
	}}
	svc := NewService(store, nil)

	ids, err := svc.BelowThreshold(context.Background(), 75, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{low, noSessions}, ids)
}
