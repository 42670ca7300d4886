package service_test

import (
	"slices"
	"time"

	"github.com/okian/streamwise/internal/domain/marks"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/survey"
)

// uniformStreams gives every subject of a stream the same mark.
func uniformStreams(values map[model.Category]float64) map[model.Category]model.SubjectMarks {
	out := make(map[model.Category]model.SubjectMarks, len(marks.Subjects))
	for c, subjects := range marks.Subjects {
		m := make(model.SubjectMarks, len(subjects))
		for _, s := range subjects {
			m[s] = values[c]
		}
		out[c] = m
	}
	return out
}

// favouring answers 5 on every question touching c and 1 elsewhere.
func favouring(c model.Category) []model.SurveyAnswer {
	out := make([]model.SurveyAnswer, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		v := survey.LikertMin
		if slices.Contains(q.Categories, c) {
			v = survey.LikertMax
		}
		out = append(out, model.SurveyAnswer{ID: q.ID, Value: v})
	}
	return out
}

func scenarioMarks() map[model.Category]model.SubjectMarks {
	return uniformStreams(map[model.Category]float64{
		model.Science: 80, model.Commerce: 40, model.Arts: 30, model.Vocational: 20,
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
