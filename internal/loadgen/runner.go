package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/streamwise/internal/domain/scoring"
	"github.com/okian/streamwise/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
	percentMultiplier   = 100
)

// Run executes the complete load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting streamwise load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("students", config.NumStudents),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	engine, err := scoring.New()
	if err != nil {
		return err
	}

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate students
	students, err := generateStudents(ctx, config, engine, stats)
	if err != nil {
		return fmt.Errorf("student generation failed: %w", err)
	}

	// Step 3: Submit marks and surveys concurrently
	if err := submitStudents(ctx, config, students, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}
	if stats.SubmissionsFailed > 0 {
		return fmt.Errorf("submission failed for %d students", stats.SubmissionsFailed)
	}

	// Step 4: Let the recompute workers catch up
	if err := waitForSnapshots(ctx, config, len(students), stats); err != nil {
		return fmt.Errorf("snapshot wait failed: %w", err)
	}

	// Step 5: Verify synchronous recommendations
	verifyErr := verifyRecommendations(ctx, config, students, stats)

	// Step 6: Save students to file
	if config.OutputFile != "" {
		if err := saveStudentsToFile(ctx, config.OutputFile, students); err != nil {
			logger.Get().Warn(ctx, "failed to save students to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return fmt.Errorf("result verification failed: %w", verifyErr)
	}
	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	var health struct {
		Status string `json:"status"`
	}
	if err := client.do(ctx, http.MethodGet, "/healthz", "", nil, &health); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if health.Status != "ok" {
		return errors.New("service reported status " + health.Status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveStudentsToFile writes the generated students as a JSON array.
func saveStudentsToFile(ctx context.Context, filename string, students []Student) error {
	if len(students) == 0 {
		return errors.New("no students to save")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(students, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal students: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "students saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, studentsPerSecond float64
	if stats.StudentsGenerated > 0 {
		successRate = float64(stats.Verified) / float64(stats.StudentsGenerated) * percentMultiplier
	}
	if stats.Duration > 0 {
		studentsPerSecond = float64(stats.SurveysSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("studentsGenerated", stats.StudentsGenerated),
		logger.Int("marksSubmitted", stats.MarksSubmitted),
		logger.Int("surveysSubmitted", stats.SurveysSubmitted),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("studentsPerSecond", studentsPerSecond))
}
