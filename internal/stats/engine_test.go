package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMaxStreak(t *testing.T) {
	assert.Equal(t, 0, MaxStreak(nil))
	assert.Equal(t, 1, MaxStreak([]time.Time{d("2025-01-01")}))

	// A gap breaks the run: 1,2,3 then 5.
	streak := MaxStreak([]time.Time{d("2025-01-01"), d("2025-01-02"), d("2025-01-03"), d("2025-01-05")})
	assert.Equal(t, 3, streak)

	// Duplicates collapse, order does not matter.
	streak = MaxStreak([]time.Time{d("2025-01-02"), d("2025-01-01"), d("2025-01-02")})
	assert.Equal(t, 2, streak)
}

func rowsFor(studentID uuid.UUID, name string, statuses map[string]attendance.Status) []StatusRow {
	classID := uuid.New()
	var rows []StatusRow
	for date, status := range statuses {
		rows = append(rows, StatusRow{
			StudentID: studentID,
			RollNo:    name,
			Name:      name,
			ClassID:   classID,
			Date:      d(date),
			Status:    status,
		})
	}
	return rows
}

func TestBuildLeaderboardExcludesStudentsWithoutRecords(t *testing.T) {
	entries := BuildLeaderboard(nil)
	assert.Empty(t, entries)
}

func TestBuildLeaderboardRanking(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	rows := rowsFor(alice, "Alice", map[string]attendance.Status{
		"2025-01-01": attendance.StatusPresent,
		"2025-01-02": attendance.StatusPresent,
		"2025-01-03": attendance.StatusLate,
		"2025-01-04": attendance.StatusAbsent,
	})
	rows = append(rows, rowsFor(bob, "Bob", map[string]attendance.Status{
		"2025-01-01": attendance.StatusPresent,
		"2025-01-02": attendance.StatusAbsent,
	})...)
	rows = append(rows, rowsFor(carol, "Carol", map[string]attendance.Status{
		"2025-01-01": attendance.StatusPresent,
		"2025-01-02": attendance.StatusPresent,
	})...)

	entries := BuildLeaderboard(rows)
	require.Len(t, entries, 3)

	// Carol 100%, Alice 75%, Bob 50%.
	assert.Equal(t, carol, entries[0].StudentID)
	assert.Equal(t, alice, entries[1].StudentID)
	assert.Equal(t, bob, entries[2].StudentID)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})

	assert.Equal(t, 100.0, entries[0].AttendancePct)
	assert.Equal(t, 75.0, entries[1].AttendancePct)
	// Late counts toward attended but not present-only.
	assert.Equal(t, 50.0, entries[1].PresentOnlyPct)
	assert.Equal(t, 3, entries[1].AttendedCount)
	assert.Equal(t, 3, entries[1].MaxStreak)
}

func TestBuildLeaderboardNameTieBreak(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	rows := rowsFor(b, "Bravo", map[string]attendance.Status{"2025-01-01": attendance.StatusPresent})
	rows = append(rows, rowsFor(a, "Alpha", map[string]attendance.Status{"2025-02-01": attendance.StatusPresent})...)

	entries := BuildLeaderboard(rows)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alpha", entries[0].Name)
	assert.Equal(t, "Bravo", entries[1].Name)
}

func TestBuildLeaderboardCoinsAndLevel(t *testing.T) {
	student := uuid.New()
	statuses := make(map[string]attendance.Status)
	// 60 consecutive present days: 100% attendance, max streak, level 3.
	start := d("2025-01-01")
	for i := 0; i < 60; i++ {
		statuses[start.AddDate(0, 0, i).Format("2006-01-02")] = attendance.StatusPresent
	}
	entries := BuildLeaderboard(rowsFor(student, "Solo", statuses))
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 3, e.Level)
	assert.Equal(t, 60, e.MaxStreak)
	// 0.7*100 + 0.2*100 + 0.1*100 with streakScore == 1.
	assert.Equal(t, 100.0, e.Coins)
}

func TestBuildLeaderboardLevelTwoNeedsVolume(t *testing.T) {
	student := uuid.New()
	// 90% from 10 records is not enough attended volume for level 2.
	statuses := make(map[string]attendance.Status)
	for i := 0; i < 9; i++ {
		statuses[d("2025-01-01").AddDate(0, 0, i).Format("2006-01-02")] = attendance.StatusPresent
	}
	statuses["2025-03-01"] = attendance.StatusAbsent

	entries := BuildLeaderboard(rowsFor(student, "Solo", statuses))
	require.Len(t, entries, 1)
	assert.Equal(t, 90.0, entries[0].AttendancePct)
	assert.Equal(t, 1, entries[0].Level)
}

func TestPage(t *testing.T) {
	entries := make([]Entry, 5)
	for i := range entries {
		entries[i].Rank = i + 1
	}

	page := Page(entries, 2, 0)
	require.Len(t, page, 2)
	assert.Equal(t, 1, page[0].Rank)

	page = Page(entries, 2, 4)
	require.Len(t, page, 1)
	assert.Equal(t, 5, page[0].Rank)

	assert.Empty(t, Page(entries, 2, 10))
}

func TestFindPreservesRank(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	rows := rowsFor(alice, "Alice", map[string]attendance.Status{"2025-01-01": attendance.StatusPresent})
	rows = append(rows, rowsFor(bob, "Bob", map[string]attendance.Status{"2025-01-01": attendance.StatusAbsent})...)

	entries := BuildLeaderboard(rows)
	self := Find(entries, bob)
	require.NotNil(t, self)
	assert.Equal(t, 2, self.Rank)

	assert.Nil(t, Find(entries, uuid.New()))
}

func TestClassSummaryIncludesUnmarkedStudents(t *testing.T) {
	marked := uuid.New()
	unmarked := uuid.New()
	roster := []RosterRef{
		{StudentID: unmarked, RollNo: "02", Name: "Quiet"},
		{StudentID: marked, RollNo: "01", Name: "Active"},
	}
	rows := []StatusRow{
		{StudentID: marked, Date: d("2025-01-01"), Status: attendance.StatusPresent},
		{StudentID: marked, Date: d("2025-01-02"), Status: attendance.StatusLate},
	}

	summaries := ClassSummary(roster, rows)
	require.Len(t, summaries, 2)

	// Sorted by roll number.
	assert.Equal(t, "01", summaries[0].RollNo)
	assert.Equal(t, 50.0, summaries[0].PresentOnlyPct)
	assert.Equal(t, 100.0, summaries[0].AttendedPct)

	assert.Equal(t, "02", summaries[1].RollNo)
	assert.Equal(t, 0, summaries[1].TotalCount)
	assert.Equal(t, 0.0, summaries[1].AttendedPct)
}

func TestBuildStudentStats(t *testing.T) {
	sessions := []time.Time{d("2025-01-01"), d("2025-01-02"), d("2025-01-03")}
	markedRecords := []Record{
		{Date: d("2025-01-01"), Status: attendance.StatusPresent},
		{Date: d("2025-01-03"), Status: attendance.StatusLate},
	}

	stats := BuildStudentStats(sessions, markedRecords)

	// Totals come from stored records only.
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 1, stats.PresentCount)
	assert.Equal(t, 1, stats.LateCount)
	assert.Equal(t, 50.0, stats.PresentOnlyPct)
	assert.Equal(t, 100.0, stats.AttendedPct)

	// Every session surfaces in the record list, newest first, with the
	// unmarked one shown as an implicit absence.
	require.Len(t, stats.Records, 3)
	assert.Equal(t, d("2025-01-03"), stats.Records[0].Date)
	assert.True(t, stats.Records[0].Marked)
	assert.Equal(t, d("2025-01-02"), stats.Records[1].Date)
	assert.False(t, stats.Records[1].Marked)
	assert.Equal(t, attendance.StatusAbsent, stats.Records[1].Status)
}
