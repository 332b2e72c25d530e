// Package stats computes attendance summaries, streaks, and the leaderboard.
//
// All derivation is done in Go over flat status rows so the leaderboard page
// and the self-entry lookup share one ranking computation and can never
// disagree.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/attendance"
)

// StatusRow is one stored status record joined with its session date and
// student display fields.
type StatusRow struct {
	StudentID uuid.UUID
	RollNo    string
	Name      string
	ClassID   uuid.UUID
	Date      time.Time
	Status    attendance.Status
}

// Entry is one ranked leaderboard row.
type Entry struct {
	StudentID      uuid.UUID `json:"studentId"`
	RollNo         string    `json:"rollNo"`
	Name           string    `json:"name"`
	PresentCount   int       `json:"presentCount"`
	LateCount      int       `json:"lateCount"`
	AbsentCount    int       `json:"absentCount"`
	ExcusedCount   int       `json:"excusedCount"`
	TotalCount     int       `json:"totalCount"`
	AttendedCount  int       `json:"attendedCount"`
	AttendancePct  float64   `json:"attendancePercentage"`
	PresentOnlyPct float64   `json:"presentOnlyPercentage"`
	Consistency    float64   `json:"consistency"`
	MaxStreak      int       `json:"maxStreak"`
	Coins          float64   `json:"coins"`
	Level          int       `json:"level"`
	Rank           int       `json:"rank"`
}

// round2 keeps user-facing numbers deterministic and reproducible.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MaxStreak returns the longest run of consecutive calendar dates. Duplicate
// dates are collapsed first. Runs are grouped by the date-minus-rank trick:
// subtracting each date's rank in sorted order yields an equal key for every
// member of a contiguous run.
func MaxStreak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	seen := make(map[time.Time]struct{}, len(dates))
	distinct := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = day(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		distinct = append(distinct, d)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	groups := make(map[time.Time]int, len(distinct))
	best := 0
	for i, d := range distinct {
		key := d.AddDate(0, 0, -i)
		groups[key]++
		if groups[key] > best {
			best = groups[key]
		}
	}
	return best
}

type tally struct {
	rollNo        string
	name          string
	present       int
	late          int
	absent        int
	excused       int
	attendedDates []time.Time
}

func (t *tally) total() int    { return t.present + t.late + t.absent + t.excused }
func (t *tally) attended() int { return t.present + t.late }

// BuildLeaderboard aggregates status rows into a fully ranked leaderboard.
// Students with no status records at all are excluded; an empty roster
// record never appears. Rank is assigned over the whole ranked sequence
// before any pagination.
func BuildLeaderboard(rows []StatusRow) []Entry {
	tallies := make(map[uuid.UUID]*tally)
	for _, row := range rows {
		t := tallies[row.StudentID]
		if t == nil {
			t = &tally{rollNo: row.RollNo, name: row.Name}
			tallies[row.StudentID] = t
		}
		switch row.Status {
		case attendance.StatusPresent:
			t.present++
		case attendance.StatusLate:
			t.late++
		case attendance.StatusAbsent:
			t.absent++
		case attendance.StatusExcused:
			t.excused++
		}
		if row.Status.Attended() {
			t.attendedDates = append(t.attendedDates, row.Date)
		}
	}

	entries := make([]Entry, 0, len(tallies))
	globalMax := 0
	for id, t := range tallies {
		if t.total() == 0 {
			continue
		}
		streak := MaxStreak(t.attendedDates)
		if streak > globalMax {
			globalMax = streak
		}
		entries = append(entries, Entry{
			StudentID:      id,
			RollNo:         t.rollNo,
			Name:           t.name,
			PresentCount:   t.present,
			LateCount:      t.late,
			AbsentCount:    t.absent,
			ExcusedCount:   t.excused,
			TotalCount:     t.total(),
			AttendedCount:  t.attended(),
			AttendancePct:  round2(float64(t.attended()) / float64(t.total()) * 100),
			PresentOnlyPct: round2(float64(t.present) / float64(t.total()) * 100),
			Consistency:    float64(t.attended()) / float64(t.total()),
			MaxStreak:      streak,
		})
	}

	for i := range entries {
		e := &entries[i]
		streakScore := 0.0
		if globalMax > 0 {
			ratio := float64(e.MaxStreak) / float64(globalMax)
			streakScore = ratio * ratio
		}
		e.Coins = round2(0.7*e.AttendancePct + 0.2*(e.Consistency*100) + 0.1*(streakScore*100))
		switch {
		case e.AttendancePct >= 90 && e.AttendedCount >= 50:
			e.Level = 3
		case e.AttendancePct >= 80 && e.AttendedCount >= 20:
			e.Level = 2
		default:
			e.Level = 1
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AttendancePct != b.AttendancePct {
			return a.AttendancePct > b.AttendancePct
		}
		if a.Consistency != b.Consistency {
			return a.Consistency > b.Consistency
		}
		if a.MaxStreak != b.MaxStreak {
			return a.MaxStreak > b.MaxStreak
		}
		return a.Name < b.Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Page slices a ranked sequence without re-ranking.
func Page(entries []Entry, limit, offset int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []Entry{}
	}
	end := len(entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return entries[offset:end]
}

// Find returns the entry for one student from an already-ranked sequence,
// or nil when the student is not on the leaderboard.
func Find(entries []Entry, studentID uuid.UUID) *Entry {
	for i := range entries {
		if entries[i].StudentID == studentID {
			return &entries[i]
		}
	}
	return nil
}

// StudentSummary is one roster row of a class attendance summary. Both
// percentage definitions are reported explicitly so call sites never guess
// which one "the" percentage is.
type StudentSummary struct {
	StudentID      uuid.UUID `json:"studentId"`
	RollNo         string    `json:"rollNo"`
	Name           string    `json:"studentName"`
	PresentCount   int       `json:"presentCount"`
	AbsentCount    int       `json:"absentCount"`
	LateCount      int       `json:"lateCount"`
	ExcusedCount   int       `json:"excusedCount"`
	TotalCount     int       `json:"totalCount"`
	PresentOnlyPct float64   `json:"presentOnlyPercentage"`
	AttendedPct    float64   `json:"attendedPercentage"`
}

// RosterRef identifies one enrolled student.
type RosterRef struct {
	StudentID uuid.UUID
	RollNo    string
	Name      string
}

// ClassSummary computes the per-student summary for a class roster. Enrolled
// students with no status records appear with zero counts; sessions a
// student was never marked for contribute nothing to the denominator.
func ClassSummary(roster []RosterRef, rows []StatusRow) []StudentSummary {
	byStudent := make(map[uuid.UUID]*tally, len(roster))
	for _, row := range rows {
		t := byStudent[row.StudentID]
		if t == nil {
			t = &tally{}
			byStudent[row.StudentID] = t
		}
		switch row.Status {
		case attendance.StatusPresent:
			t.present++
		case attendance.StatusLate:
			t.late++
		case attendance.StatusAbsent:
			t.absent++
		case attendance.StatusExcused:
			t.excused++
		}
	}

	summaries := make([]StudentSummary, 0, len(roster))
	for _, ref := range roster {
		s := StudentSummary{StudentID: ref.StudentID, RollNo: ref.RollNo, Name: ref.Name}
		if t := byStudent[ref.StudentID]; t != nil {
			s.PresentCount = t.present
			s.AbsentCount = t.absent
			s.LateCount = t.late
			s.ExcusedCount = t.excused
			s.TotalCount = t.total()
			if s.TotalCount > 0 {
				s.PresentOnlyPct = round2(float64(t.present) / float64(s.TotalCount) * 100)
				s.AttendedPct = round2(float64(t.attended()) / float64(s.TotalCount) * 100)
			}
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RollNo < summaries[j].RollNo })
	return summaries
}

// Record is one dated attendance outcome in a student's history. Sessions
// the student was never marked for surface as absent here without creating
// a stored row.
type Record struct {
	Date            time.Time         `json:"date"`
	Status          attendance.Status `json:"status"`
	Marked          bool              `json:"marked"`
	RecognizedByAI  bool              `json:"recognizedByAi"`
	SimilarityScore *float64          `json:"similarityScore,omitempty"`
}

// StudentStats is one student's view of one class.
type StudentStats struct {
	PresentCount   int      `json:"presentCount"`
	AbsentCount    int      `json:"absentCount"`
	LateCount      int      `json:"lateCount"`
	ExcusedCount   int      `json:"excusedCount"`
	TotalCount     int      `json:"totalCount"`
	PresentOnlyPct float64  `json:"presentOnlyPercentage"`
	AttendedPct    float64  `json:"attendedPercentage"`
	Records        []Record `json:"records"`
}

// BuildStudentStats merges a class's session dates with the student's stored
// records. Only stored records count toward the totals; unmarked sessions
// appear in the record list as implicit absences.
func BuildStudentStats(sessionDates []time.Time, marked []Record) StudentStats {
	byDate := make(map[time.Time]Record, len(marked))
	var stats StudentStats
	for _, rec := range marked {
		byDate[day(rec.Date)] = rec
		switch rec.Status {
		case attendance.StatusPresent:
			stats.PresentCount++
		case attendance.StatusLate:
			stats.LateCount++
		case attendance.StatusAbsent:
			stats.AbsentCount++
		case attendance.StatusExcused:
			stats.ExcusedCount++
		}
	}
	stats.TotalCount = stats.PresentCount + stats.LateCount + stats.AbsentCount + stats.ExcusedCount
	if stats.TotalCount > 0 {
		stats.PresentOnlyPct = round2(float64(stats.PresentCount) / float64(stats.TotalCount) * 100)
		attended := stats.PresentCount + stats.LateCount
		stats.AttendedPct = round2(float64(attended) / float64(stats.TotalCount) * 100)
	}

	sorted := append([]time.Time(nil), sessionDates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })
	for _, d := range sorted {
		if rec, ok := byDate[day(d)]; ok {
			rec.Marked = true
			stats.Records = append(stats.Records, rec)
			continue
		}
		stats.Records = append(stats.Records, Record{Date: day(d), Status: attendance.StatusAbsent})
	}
	return stats
}
