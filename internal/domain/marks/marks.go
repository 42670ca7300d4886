// Package marks clamps raw subject marks and computes per-stream averages.
package marks

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/streamwise/internal/domain/model"
)

// Mark bounds.
const (
	MarkMin = 0.0
	MarkMax = 100.0
)

// Subjects lists the required subjects of every stream. A submission must
// contain each of them and nothing else.
var Subjects = map[model.Category][]string{ //nolint:gochecknoglobals // fixed table
	model.Science:    {"physics", "chemistry", "biology", "mathematics", "computerScience"},
	model.Commerce:   {"accountancy", "businessStudies", "economics", "mathematics", "english"},
	model.Arts:       {"history", "politicalScience", "sociology", "psychology", "languages", "fineArts"},
	model.Vocational: {"agriculture", "it", "homeScience", "hospitality", "design", "skills"},
}

// Clamp forces a mark into [MarkMin, MarkMax]. NaN is treated as a missing
// mark and becomes zero.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MarkMin
	}
	return math.Max(MarkMin, math.Min(MarkMax, v))
}

// Average returns the arithmetic mean of the clamped marks, or zero for an
// empty set.
func Average(m model.SubjectMarks) float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m {
		sum += Clamp(v)
	}
	return sum / float64(len(m))
}

// Normalize clamps every mark and returns the clamped marks plus one average
// per stream. It never fails.
func Normalize(streams map[model.Category]model.SubjectMarks) (map[model.Category]model.SubjectMarks, map[model.Category]float64) {
	clamped := make(map[model.Category]model.SubjectMarks, len(streams))
	averages := make(map[model.Category]float64, len(streams))
	for c, subjects := range streams {
		out := make(model.SubjectMarks, len(subjects))
		for name, v := range subjects {
			out[name] = Clamp(v)
		}
		clamped[c] = out
		averages[c] = Average(out)
	}
	return clamped, averages
}

// Validate checks the shape of a submission: a supported class level, every
// declared stream present, and exactly the required subjects per stream.
// Values themselves are never rejected; they are clamped later.
func Validate(level model.ClassLevel, streams map[model.Category]model.SubjectMarks) error {
	if !level.Valid() {
		return model.NewValidationError("classLevel", fmt.Sprintf("unsupported class level %q", level))
	}
	for c := range streams {
		if !c.Valid() {
			return model.NewValidationError("streams", fmt.Sprintf("unknown stream %q", c))
		}
	}
	for _, c := range model.Categories {
		subjects, ok := streams[c]
		if !ok {
			return model.NewValidationError("streams."+c.String(), "missing stream")
		}
		required := Subjects[c]
		for _, name := range required {
			if _, ok := subjects[name]; !ok {
				return model.NewValidationError("streams."+c.String()+"."+name, "missing subject")
			}
		}
		if len(subjects) != len(required) {
			return model.NewValidationError("streams."+c.String(), "unknown subject "+firstUnknown(subjects, required))
		}
	}
	return nil
}

func firstUnknown(subjects model.SubjectMarks, required []string) string {
	known := make(map[string]struct{}, len(required))
	for _, name := range required {
		known[name] = struct{}{}
	}
	var extra []string
	for name := range subjects {
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	if len(extra) == 0 {
		return ""
	}
	return fmt.Sprintf("%q", extra[0])
}

// NewRecord validates a submission and builds the clamped academic record.
// Persistence fields (ID, UpdatedAt) are left to the caller.
func NewRecord(studentID, schoolID string, level model.ClassLevel, streams map[model.Category]model.SubjectMarks) (model.AcademicRecord, error) {
	if studentID == "" {
		return model.AcademicRecord{}, model.NewValidationError("studentId", "must not be empty")
	}
	if err := Validate(level, streams); err != nil {
		return model.AcademicRecord{}, err
	}
	clamped, averages := Normalize(streams)
	return model.AcademicRecord{
		StudentID:  studentID,
		SchoolID:   schoolID,
		ClassLevel: level,
		Streams:    clamped,
		Averages:   averages,
	}, nil
}
