package survey

import (
	"fmt"

	"github.com/okian/streamwise/internal/domain/model"
)

// Aggregate sums Likert values per stream. A question mapped to several
// streams adds its full value to each. The submission must answer every
// question exactly once with a value on the Likert scale; anything else is a
// ValidationError and yields no sums.
func Aggregate(questions []Question, answers []model.SurveyAnswer) (map[model.Category]int, error) {
	if len(answers) != len(questions) {
		return nil, model.NewValidationError("answers",
			fmt.Sprintf("must answer all %d questions, got %d", len(questions), len(answers)))
	}
	index := make(map[string]Question, len(questions))
	for _, q := range questions {
		index[q.ID] = q
	}

	sums := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		sums[c] = 0
	}
	answered := make(map[string]struct{}, len(answers))
	for i, a := range answers {
		q, ok := index[a.ID]
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("answers[%d].id", i), fmt.Sprintf("unknown question %q", a.ID))
		}
		if _, dup := answered[a.ID]; dup {
			return nil, model.NewValidationError(fmt.Sprintf("answers[%d].id", i), fmt.Sprintf("question %q answered twice", a.ID))
		}
		answered[a.ID] = struct{}{}
		if a.Value < LikertMin || a.Value > LikertMax {
			return nil, model.NewValidationError(fmt.Sprintf("answers[%d].value", i),
				fmt.Sprintf("value %d outside %d-%d", a.Value, LikertMin, LikertMax))
		}
		for _, c := range q.Categories {
			sums[c] += a.Value
		}
	}
	return sums, nil
}

// Normalize rescales raw sums onto 0-100 using the per-stream maxima. The
// maxima must be positive for every stream (see ValidateTable).
func Normalize(raw, maxima map[model.Category]int) map[model.Category]float64 {
	out := make(map[model.Category]float64, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = float64(raw[c]) / float64(maxima[c]) * 100
	}
	return out
}

// NewProfile aggregates a submission into an interest profile. Persistence
// fields (ID, SubmittedAt) are left to the caller.
func NewProfile(questions []Question, studentID string, answers []model.SurveyAnswer) (model.InterestProfile, error) {
	if studentID == "" {
		return model.InterestProfile{}, model.NewValidationError("studentId", "must not be empty")
	}
	sums, err := Aggregate(questions, answers)
	if err != nil {
		return model.InterestProfile{}, err
	}
	kept := make([]model.SurveyAnswer, len(answers))
	copy(kept, answers)
	return model.InterestProfile{
		StudentID:      studentID,
		Answers:        kept,
		InterestScores: sums,
		TotalQuestions: len(questions),
	}, nil
}
