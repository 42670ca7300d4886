package model

import "time"

// JobTrigger names the submission that caused a recompute.
type JobTrigger string

// Recompute triggers.
const (
	TriggerMarks  JobTrigger = "marks"
	TriggerSurvey JobTrigger = "survey"
)

// RecomputeJob asks a worker to recompute and snapshot a student's
// recommendation.
type RecomputeJob struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"studentId"`
	Trigger    JobTrigger `json:"trigger"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}
