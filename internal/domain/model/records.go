package model

import "time"

// SubjectMarks maps a subject name to its mark within one stream.
type SubjectMarks map[string]float64

// AcademicRecord holds one student's clamped marks for a class level.
// There is at most one active record per (student, class level).
type AcademicRecord struct {
	ID         string                    `json:"id"`
	StudentID  string                    `json:"studentId"`
	SchoolID   string                    `json:"schoolId,omitempty"`
	ClassLevel ClassLevel                `json:"classLevel"`
	Streams    map[Category]SubjectMarks `json:"streams"`
	Averages   map[Category]float64      `json:"averages"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

// SurveyAnswer is a single Likert response.
type SurveyAnswer struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// InterestProfile is the aggregated result of one complete survey submission.
type InterestProfile struct {
	ID             string           `json:"id"`
	StudentID      string           `json:"studentId"`
	Answers        []SurveyAnswer   `json:"answers"`
	InterestScores map[Category]int `json:"interestScores"`
	TotalQuestions int              `json:"totalQuestions"`
	SubmittedAt    time.Time        `json:"submittedAt"`
}
