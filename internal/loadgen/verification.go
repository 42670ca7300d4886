package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/pkg/logger"
)

// ErrMismatch reports recommendations that differ from the local engine.
var ErrMismatch = errors.New("recommendation mismatch")

const snapshotPollInterval = 250 * time.Millisecond

type recommendationResponse struct {
	Primary     model.Category  `json:"primary"`
	Alternative *model.Category `json:"alternative,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// verifyRecommendations fetches every student's recommendation and compares
// it with the expectation computed at generation time.
func verifyRecommendations(ctx context.Context, config *Config, students []Student, stats *Stats) error {
	logger.Get().Info(ctx, "verifying recommendations", logger.Int("students", len(students)))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	admin, err := client.issueToken(ctx, "loadgen-admin", model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to issue admin token: %w", err)
	}

	var (
		mu         sync.Mutex
		verified   int
		mismatches []string
		wg         sync.WaitGroup
	)
	work := make(chan Student)
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				var got recommendationResponse
				err := client.do(ctx, http.MethodGet, "/students/"+s.ID+"/recommendation", admin, nil, &got)
				mu.Lock()
				switch {
				case err != nil:
					mismatches = append(mismatches, fmt.Sprintf("%s: %v", s.ID, err))
				case !matches(s.Expected, got):
					mismatches = append(mismatches, fmt.Sprintf("%s: want %s got %s", s.ID, s.Expected.Primary, got.Primary))
				default:
					verified++
				}
				mu.Unlock()
			}
		}()
	}
	for _, s := range students {
		work <- s
	}
	close(work)
	wg.Wait()

	stats.Verified = verified
	stats.Mismatches = len(mismatches)
	for i, m := range mismatches {
		if i >= 10 {
			break
		}
		logger.Get().Warn(ctx, "recommendation mismatch", logger.String("detail", m))
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %d of %d students", ErrMismatch, len(mismatches), len(students))
	}
	logger.Get().Info(ctx, "recommendations verified", logger.Int("verified", verified))
	return nil
}

func matches(want Expectation, got recommendationResponse) bool {
	if got.Error != "" || got.Primary != want.Primary {
		return false
	}
	switch {
	case want.Alternative == nil && got.Alternative == nil:
		return true
	case want.Alternative == nil || got.Alternative == nil:
		return false
	default:
		return *want.Alternative == *got.Alternative
	}
}

// waitForSnapshots polls the school dashboard until at least want students
// have a background snapshot or the settle time runs out. Running out is
// not an error.
func waitForSnapshots(ctx context.Context, config *Config, want int, stats *Stats) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	admin, err := client.issueToken(ctx, "loadgen-admin", model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to issue admin token: %w", err)
	}

	deadline := time.Now().Add(config.SettleTime)
	ticker := time.NewTicker(snapshotPollInterval)
	defer ticker.Stop()

	for {
		var d struct {
			RecommendedStudentsCount int `json:"recommendedStudentsCount"`
		}
		if err := client.do(ctx, http.MethodGet, "/school/dashboard", admin, nil, &d); err != nil {
			return err
		}
		stats.Snapshots = d.RecommendedStudentsCount
		if d.RecommendedStudentsCount >= want || time.Now().After(deadline) {
			logger.Get().Info(ctx, "snapshot progress",
				logger.Int("withSnapshot", d.RecommendedStudentsCount),
				logger.Int("expected", want))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
