// Package repository persists users, marks, interest profiles and
// recommendation snapshots.
package repository

import (
	"context"

	"github.com/okian/streamwise/internal/domain/model"
)

// StudentQuery filters ListStudents. A zero Limit returns every match.
type StudentQuery struct {
	Search string
	Limit  int
}

// StudentStatus is a student together with their submission progress.
type StudentStatus struct {
	User               model.User       `json:"user"`
	HasMarks           bool             `json:"hasMarks"`
	HasAssessment      bool             `json:"hasAssessment"`
	HasRecommendations bool             `json:"hasRecommendations"`
	ClassLevel         model.ClassLevel `json:"classLevel,omitempty"`
}

// Store provides read/write access to persisted student state.
//
// Writes of a single logical record are atomic: readers observe either the
// previous or the new version, never a mix.
type Store interface {
	// EnsureUser inserts a user with role when id is unknown. Existing users
	// are left untouched.
	EnsureUser(ctx context.Context, id string, role model.Role) error
	// UpsertUser replaces the user row keyed by u.ID.
	UpsertUser(ctx context.Context, u model.User) error
	// GetUser returns ErrNotFound when id is unknown.
	GetUser(ctx context.Context, id string) (model.User, error)
	// ListStudents returns students ordered by id.
	ListStudents(ctx context.Context, q StudentQuery) ([]StudentStatus, error)

	// PutMarks upserts the record for (StudentID, ClassLevel). The id of an
	// existing record is kept; the stored record is returned.
	PutMarks(ctx context.Context, rec model.AcademicRecord) (model.AcademicRecord, error)
	// LatestMarks returns the record for level, or the most recently updated
	// record when level is empty.
	LatestMarks(ctx context.Context, studentID string, level model.ClassLevel) (model.AcademicRecord, error)

	// PutProfile replaces the student's interest profile.
	PutProfile(ctx context.Context, p model.InterestProfile) error
	GetProfile(ctx context.Context, studentID string) (model.InterestProfile, error)

	// SaveSnapshot records a computed recommendation. Stores may keep only
	// the latest snapshot per student.
	SaveSnapshot(ctx context.Context, s model.Snapshot) error
	LatestSnapshot(ctx context.Context, studentID string) (model.Snapshot, error)
	// CountSnapshots returns how many snapshots were written.
	CountSnapshots(ctx context.Context) (int, error)

	Close() error
}
