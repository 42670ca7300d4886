package service

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/streamwise/internal/adapters/repository"
)

// List limits for school views.
const (
	DefaultListLimit    = 100
	DefaultMaxListLimit = 200
	pendingPreviewSize  = 10
)

// PendingStudent is a student who has not submitted marks yet.
type PendingStudent struct {
	UserID string  `json:"userId"`
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
}

// Dashboard summarizes submission progress across all students.
type Dashboard struct {
	TotalStudents             int              `json:"totalStudents"`
	MarksSubmittedCount       int              `json:"marksSubmittedCount"`
	MarksSubmittedPercent     int              `json:"marksSubmittedPercent"`
	AssessmentsCompletedCount int              `json:"assessmentsCompletedCount"`
	AssessmentsPercent        int              `json:"assessmentsPercent"`
	RecommendedStudentsCount  int              `json:"recommendedStudentsCount"`
	PendingStudents           []PendingStudent `json:"pendingStudents"`
}

// Dashboard computes the school overview.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := s.ready(); err != nil {
		return Dashboard{}, err
	}
	students, err := s.store.ListStudents(ctx, repository.StudentQuery{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list students: %w", err)
	}

	d := Dashboard{TotalStudents: len(students), PendingStudents: []PendingStudent{}}
	for _, st := range students {
		if st.HasMarks {
			d.MarksSubmittedCount++
		} else if len(d.PendingStudents) < pendingPreviewSize {
			d.PendingStudents = append(d.PendingStudents, PendingStudent{
				UserID: st.User.ID,
				Name:   st.User.Name,
				Email:  st.User.Email,
			})
		}
		if st.HasAssessment {
			d.AssessmentsCompletedCount++
		}
		if st.HasRecommendations {
			d.RecommendedStudentsCount++
		}
	}
	d.MarksSubmittedPercent = percent(d.MarksSubmittedCount, d.TotalStudents)
	d.AssessmentsPercent = percent(d.AssessmentsCompletedCount, d.TotalStudents)
	return d, nil
}

// ListStudents searches students by name or email. limit is clamped to
// [1, max list limit]; zero selects DefaultListLimit.
func (s *Service) ListStudents(ctx context.Context, search string, limit int) ([]repository.StudentStatus, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListStudents(ctx, repository.StudentQuery{
		Search: search,
		Limit:  s.clampLimit(limit),
	})
}

func (s *Service) clampLimit(limit int) int {
	if limit == 0 {
		limit = DefaultListLimit
	}
	return max(1, min(limit, s.maxListLimit))
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
