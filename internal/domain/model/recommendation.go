package model

import "time"

// AlternativeReason tags why a second stream was surfaced.
type AlternativeReason string

// Alternative reasons.
const (
	ReasonWithin5  AlternativeReason = "within_5"
	ReasonWithin10 AlternativeReason = "within_10"
)

// MissingDataMessage is the fixed error text of a MissingData marker.
const MissingDataMessage = "Missing data"

// Recommendation is the full, derived scoring result for a student.
type Recommendation struct {
	Primary     Category             `json:"primary"`
	Alternative *Category            `json:"alternative,omitempty"`
	Reason      AlternativeReason    `json:"reason,omitempty"`
	Scores      map[Category]float64 `json:"scores"`
	Academic    map[Category]float64 `json:"academic"`
	Interest    map[Category]float64 `json:"interest"`
	RawInterest map[Category]int     `json:"rawInterest"`
}

// MissingData reports that a recommendation cannot be computed yet.
type MissingData struct {
	Error         string `json:"error"`
	HasMarks      bool   `json:"hasMarks"`
	HasAssessment bool   `json:"hasAssessment"`
}

// NewMissingData builds a marker for the given availability.
func NewMissingData(hasMarks, hasAssessment bool) *MissingData {
	return &MissingData{Error: MissingDataMessage, HasMarks: hasMarks, HasAssessment: hasAssessment}
}

// Evaluation is either a Recommendation or a MissingData marker, never both.
type Evaluation struct {
	Recommendation *Recommendation
	Missing        *MissingData
}

// Complete reports whether the evaluation produced a recommendation.
func (e Evaluation) Complete() bool { return e.Recommendation != nil }

// Snapshot is an audit copy of a computed recommendation. It is never read
// back as a source of truth.
type Snapshot struct {
	ID          string               `json:"id"`
	StudentID   string               `json:"studentId"`
	Primary     Category             `json:"primary"`
	Alternative Category             `json:"alternative,omitempty"`
	Reason      AlternativeReason    `json:"reason,omitempty"`
	Scores      map[Category]float64 `json:"scores"`
	ComputedAt  time.Time            `json:"computedAt"`
}
