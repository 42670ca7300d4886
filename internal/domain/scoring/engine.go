package scoring

import (
	"fmt"

	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/survey"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithQuestions replaces the question table. The table is validated by New.
func WithQuestions(questions []survey.Question) Option {
	return func(e *Engine) {
		if len(questions) > 0 {
			e.questions = questions
		}
	}
}

// Engine turns an academic record and an interest profile into a
// recommendation. It holds only immutable tables and is safe for concurrent
// use.
type Engine struct {
	questions []survey.Question
	maxima    map[model.Category]int
}

// New builds an Engine and enforces the table invariants. A failure here is
// a configuration error and should stop the process.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{questions: survey.Questions}
	for _, opt := range opts {
		opt(e)
	}
	if err := survey.ValidateTable(e.questions); err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	e.maxima = survey.Maxima(e.questions)
	return e, nil
}

// Questions returns the survey table used by the engine.
func (e *Engine) Questions() []survey.Question { return e.questions }

// Maxima returns a copy of the per-stream theoretical maxima.
func (e *Engine) Maxima() map[model.Category]int {
	out := make(map[model.Category]int, len(e.maxima))
	for c, v := range e.maxima {
		out[c] = v
	}
	return out
}

// Profile aggregates survey answers with the engine's table.
func (e *Engine) Profile(studentID string, answers []model.SurveyAnswer) (model.InterestProfile, error) {
	return survey.NewProfile(e.questions, studentID, answers)
}

// Evaluate computes the recommendation. When either input is nil it returns
// a MissingData marker instead; it never scores partial data.
func (e *Engine) Evaluate(record *model.AcademicRecord, profile *model.InterestProfile) model.Evaluation {
	if record == nil || profile == nil {
		return model.Evaluation{Missing: model.NewMissingData(record != nil, profile != nil)}
	}
	return model.Evaluation{Recommendation: e.Recommend(record.Averages, profile.InterestScores)}
}

// Recommend runs normalization, blending and ranking over already-validated
// inputs and returns the full breakdown.
func (e *Engine) Recommend(academic map[model.Category]float64, rawInterest map[model.Category]int) *model.Recommendation {
	interest := survey.Normalize(rawInterest, e.maxima)
	scores := Blend(academic, interest)
	primary, alt, reason := Decide(scores)

	acad := make(map[model.Category]float64, len(model.Categories))
	raw := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		acad[c] = academic[c]
		raw[c] = rawInterest[c]
	}
	return &model.Recommendation{
		Primary:     primary,
		Alternative: alt,
		Reason:      reason,
		Scores:      scores,
		Academic:    acad,
		Interest:    interest,
		RawInterest: raw,
	}
}
