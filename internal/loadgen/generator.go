package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/streamwise/internal/domain/marks"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/scoring"
	"github.com/okian/streamwise/internal/domain/survey"
	"github.com/okian/streamwise/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	archetypeDivisor   = 4
)

// Mark ranges per archetype. Strong streams score high, the rest spread
// across the scale so close calls and alternatives also show up.
const (
	strongMarkMin   = 70.0
	strongMarkRange = 30.0
	otherMarkMin    = 20.0
	otherMarkRange  = 70.0
	strongAnswerMin = 4
	otherAnswerMax  = 3
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [lo, hi].
func randomInt(lo, hi int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(hi-lo+1)))
	return lo + int(n.Int64())
}

// generateStudents creates the configured number of students concurrently
// and computes each expected recommendation with engine.
func generateStudents(ctx context.Context, config *Config, engine *scoring.Engine, stats *Stats) ([]Student, error) {
	logger.Get().Info(ctx, "generating students", logger.Int("numStudents", config.NumStudents))

	students := make([]Student, config.NumStudents)

	type studentResult struct {
		index   int
		student Student
		err     error
	}
	resultChan := make(chan studentResult, config.NumStudents)

	// Use worker pool for generation
	workerCount := max(1, min(config.Workers, config.NumStudents))
	perWorker := config.NumStudents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumStudents // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- studentResult{index: i, err: ctx.Err()}
					return
				default:
					s, err := generateStudent(engine)
					resultChan <- studentResult{index: i, student: s, err: err}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumStudents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate student %d: %w", result.index, result.err)
			}
			students[result.index] = result.student
		}
	}

	stats.StudentsGenerated = len(students)
	logger.Get().Info(ctx, "generated students successfully", logger.Int("count", len(students)))
	return students, nil
}

// generateStudent builds one student with a randomly chosen strong stream.
func generateStudent(engine *scoring.Engine) (Student, error) {
	n, _ := rand.Int(rand.Reader, big.NewInt(archetypeDivisor))
	strength := model.Categories[n.Int64()]

	level := model.Class10
	if randomInt(0, 1) == 1 {
		level = model.Class12
	}

	streams := make(map[model.Category]model.SubjectMarks, len(marks.Subjects))
	for c, subjects := range marks.Subjects {
		m := make(model.SubjectMarks, len(subjects))
		for _, name := range subjects {
			if c == strength {
				m[name] = roundMark(strongMarkMin + getRandomFloat()*strongMarkRange)
			} else {
				m[name] = roundMark(otherMarkMin + getRandomFloat()*otherMarkRange)
			}
		}
		streams[c] = m
	}

	answers := make([]model.SurveyAnswer, 0, len(engine.Questions()))
	for _, q := range engine.Questions() {
		v := randomInt(survey.LikertMin, otherAnswerMax)
		for _, c := range q.Categories {
			if c == strength {
				v = randomInt(strongAnswerMin, survey.LikertMax)
			}
		}
		answers = append(answers, model.SurveyAnswer{ID: q.ID, Value: v})
	}

	s := Student{
		ID:         "load-" + uuid.NewString(),
		Strength:   strength,
		ClassLevel: level,
		Streams:    streams,
		Answers:    answers,
	}
	exp, err := expect(engine, s)
	if err != nil {
		return Student{}, err
	}
	s.Expected = exp
	return s, nil
}

// expect runs the same pipeline the service runs on stored inputs.
func expect(engine *scoring.Engine, s Student) (Expectation, error) {
	rec, err := marks.NewRecord(s.ID, "", s.ClassLevel, s.Streams)
	if err != nil {
		return Expectation{}, err
	}
	profile, err := engine.Profile(s.ID, s.Answers)
	if err != nil {
		return Expectation{}, err
	}
	eval := engine.Evaluate(&rec, &profile)
	return Expectation{Primary: eval.Recommendation.Primary, Alternative: eval.Recommendation.Alternative}, nil
}

// roundMark keeps one decimal so the payload stays readable.
func roundMark(v float64) float64 {
	return float64(int(v*10)) / 10
}
