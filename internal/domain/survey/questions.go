// Package survey maps interest-survey answers onto streams and normalizes
// the resulting sums.
package survey

import (
	"errors"
	"fmt"

	"github.com/okian/streamwise/internal/domain/model"
)

// Survey constants.
const (
	SurveyLength = 15
	LikertMin    = 1
	LikertMax    = 5
)

// ErrInvalidTable reports a broken question table. It is a startup failure.
var ErrInvalidTable = errors.New("invalid survey table")

// Question is one survey statement and the streams it contributes to.
type Question struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Categories []model.Category `json:"categories"`
}

// Questions is the fixed survey. Some questions model shared traits and
// contribute to more than one stream.
var Questions = []Question{ //nolint:gochecknoglobals // fixed table
	{ID: "q1", Text: "I enjoy solving complex mathematical problems", Categories: []model.Category{model.Science}},
	{ID: "q2", Text: "I am curious about how things work scientifically", Categories: []model.Category{model.Science}},
	{ID: "q3", Text: "I like conducting experiments and analyzing results", Categories: []model.Category{model.Science}},
	{ID: "q4", Text: "I am interested in business and entrepreneurship", Categories: []model.Category{model.Commerce}},
	{ID: "q5", Text: "I enjoy working with numbers and financial data", Categories: []model.Category{model.Commerce}},
	{ID: "q6", Text: "I like understanding market trends and economics", Categories: []model.Category{model.Commerce}},
	{ID: "q7", Text: "I express myself well through writing or speaking", Categories: []model.Category{model.Arts}},
	{ID: "q8", Text: "I am interested in history, culture, and society", Categories: []model.Category{model.Arts}},
	{ID: "q9", Text: "I enjoy creative activities like art, music, or literature", Categories: []model.Category{model.Arts}},
	{ID: "q10", Text: "I prefer hands-on, practical work", Categories: []model.Category{model.Vocational}},
	{ID: "q11", Text: "I enjoy building or creating things with my hands", Categories: []model.Category{model.Vocational}},
	{ID: "q12", Text: "I like learning technical skills and crafts", Categories: []model.Category{model.Vocational}},
	{ID: "q13", Text: "I am good at logical reasoning and analysis", Categories: []model.Category{model.Science, model.Commerce}},
	{ID: "q14", Text: "I prefer working on projects that help people directly", Categories: []model.Category{model.Arts, model.Vocational}},
	{ID: "q15", Text: "I am comfortable presenting ideas to groups", Categories: []model.Category{model.Commerce, model.Arts}},
}

// ValidateTable checks the configuration invariants of a question table:
// unique ids, at least one known stream per question, and at least one
// question per declared stream.
func ValidateTable(questions []Question) error {
	seen := make(map[string]struct{}, len(questions))
	covered := make(map[model.Category]int, len(model.Categories))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question with empty id", ErrInvalidTable)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question %q", ErrInvalidTable, q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Categories) == 0 {
			return fmt.Errorf("%w: question %q maps to no stream", ErrInvalidTable, q.ID)
		}
		for _, c := range q.Categories {
			if !c.Valid() {
				return fmt.Errorf("%w: question %q maps to unknown stream %q", ErrInvalidTable, q.ID, c)
			}
			covered[c]++
		}
	}
	for _, c := range model.Categories {
		if covered[c] == 0 {
			return fmt.Errorf("%w: stream %q has zero theoretical maximum", ErrInvalidTable, c)
		}
	}
	return nil
}

// Maxima returns the theoretical maximum raw sum per stream: the number of
// questions mapped to it times LikertMax.
func Maxima(questions []Question) map[model.Category]int {
	out := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = 0
	}
	for _, q := range questions {
		for _, c := range q.Categories {
			out[c] += LikertMax
		}
	}
	return out
}
