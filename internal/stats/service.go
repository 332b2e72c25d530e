package stats

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

// Store is the persistence surface the service needs.
type Store interface {
	AllStatusRows(ctx context.Context) ([]StatusRow, error)
	ClassStatusRows(ctx context.Context, classID uuid.UUID) ([]StatusRow, error)
	ClassOwner(ctx context.Context, classID uuid.UUID) (uuid.UUID, error)
	ClassRoster(ctx context.Context, classID uuid.UUID) ([]RosterRef, error)
	IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	ClassSessionDates(ctx context.Context, classID uuid.UUID) ([]time.Time, error)
	StudentClassRecords(ctx context.Context, studentID, classID uuid.UUID) ([]Record, error)
	ThresholdRows(ctx context.Context, classID *uuid.UUID) ([]ThresholdRow, error)
}

// LeaderboardResult is one leaderboard page plus the caller's own entry.
type LeaderboardResult struct {
	Total     int     `json:"total"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	Items     []Entry `json:"items"`
	SelfEntry *Entry  `json:"selfEntry,omitempty"`
}

// Service computes derived statistics over one consistent snapshot per call.
type Service struct {
	store Store
	cache *LeaderboardCache
}

// NewService creates a service. cache may be nil.
func NewService(store Store, cache *LeaderboardCache) *Service {
	return &Service{store: store, cache: cache}
}

// ranked returns the fully ranked sequence, from cache when fresh.
func (s *Service) ranked(ctx context.Context) ([]Entry, error) {
	if entries, ok := s.cache.Get(ctx); ok {
		return entries, nil
	}
	rows, err := s.store.AllStatusRows(ctx)
	if err != nil {
		return nil, err
	}
	entries := BuildLeaderboard(rows)
	if err := s.cache.Set(ctx, entries); err != nil {
		log.Printf("leaderboard cache set failed: %v", err)
	}
	return entries, nil
}

// Leaderboard returns one page of the ranked sequence. When selfStudentID is
// non-nil the student's entry is looked up in the same sequence, so the self
// rank and the page rank can never disagree.
func (s *Service) Leaderboard(ctx context.Context, limit, offset int, selfStudentID *uuid.UUID) (LeaderboardResult, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.ranked(ctx)
	if err != nil {
		return LeaderboardResult{}, err
	}

	result := LeaderboardResult{
		Total:  len(entries),
		Limit:  limit,
		Offset: offset,
		Items:  Page(entries, limit, offset),
	}
	if selfStudentID != nil {
		result.SelfEntry = Find(entries, *selfStudentID)
	}
	return result, nil
}

// ClassSummary returns per-student attendance summaries for a class.
func (s *Service) ClassSummary(ctx context.Context, classID uuid.UUID, caller auth.Caller) ([]StudentSummary, error) {
	owner, err := s.store.ClassOwner(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.IsAdmin() && owner != caller.UserID {
		return nil, apperr.Forbidden("you do not have permission to view this class's statistics")
	}

	roster, err := s.store.ClassRoster(ctx, classID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ClassStatusRows(ctx, classID)
	if err != nil {
		return nil, err
	}
	return ClassSummary(roster, rows), nil
}

// StudentClassStats returns one student's summary and dated records for one
// class. Forbidden when the student is not enrolled.
func (s *Service) StudentClassStats(ctx context.Context, studentID, classID uuid.UUID) (StudentStats, error) {
	enrolled, err := s.store.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return StudentStats{}, err
	}
	if !enrolled {
		return StudentStats{}, apperr.Forbidden("you are not enrolled in this class")
	}

	dates, err := s.store.ClassSessionDates(ctx, classID)
	if err != nil {
		return StudentStats{}, err
	}
	records, err := s.store.StudentClassRecords(ctx, studentID, classID)
	if err != nil {
		return StudentStats{}, err
	}
	return BuildStudentStats(dates, records), nil
}

// BelowThreshold returns the distinct students whose per-class attendance
// percentage (present-only over taken sessions) is at or below threshold in
// any scanned class. Students enrolled in classes with no sessions count as
// zero percent.
func (s *Service) BelowThreshold(ctx context.Context, threshold float64, classID *uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.store.ThresholdRows(ctx, classID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var students []uuid.UUID
	for _, row := range rows {
		pct := 0.0
		if row.TotalSessions > 0 {
			pct = float64(row.PresentCount) / float64(row.TotalSessions) * 100
		}
		if pct > threshold {
			continue
		}
		if _, ok := seen[row.StudentID]; ok {
			continue
		}
		seen[row.StudentID] = struct{}{}
		students = append(students, row.StudentID)
	}
	return students, nil
}
