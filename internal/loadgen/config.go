package loadgen

import (
	"time"

	"github.com/okian/streamwise/internal/domain/model"
)

// Config holds configuration for the load test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumStudents int           // Number of synthetic students
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	SettleTime  time.Duration // How long to wait for background snapshots
	OutputFile  string        // Output file for generated students
	Verbose     bool          // Enable verbose logging
}

// Student is one synthetic student and the recommendation the engine is
// expected to produce for it.
type Student struct {
	ID         string                                `json:"id"`
	Strength   model.Category                        `json:"strength"`
	ClassLevel model.ClassLevel                      `json:"classLevel"`
	Streams    map[model.Category]model.SubjectMarks `json:"streams"`
	Answers    []model.SurveyAnswer                  `json:"answers"`
	Expected   Expectation                           `json:"expected"`
}

// Expectation is the locally computed outcome for a student.
type Expectation struct {
	Primary     model.Category  `json:"primary"`
	Alternative *model.Category `json:"alternative,omitempty"`
}

// Stats holds test statistics
type Stats struct {
	StudentsGenerated int
	MarksSubmitted    int
	SurveysSubmitted  int
	SubmissionsFailed int
	Verified          int
	Mismatches        int
	Snapshots         int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
