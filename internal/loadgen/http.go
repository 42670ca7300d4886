package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/pkg/logger"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a JSON request and decodes a 200 response into out. Any other
// status is an error carrying the response body.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// issueToken asks the service for a development token.
func (c *HTTPClient) issueToken(ctx context.Context, userID string, role model.Role) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := map[string]any{"userId": userID, "role": role}
	if err := c.do(ctx, http.MethodPost, "/auth/token", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// submitStudents submits marks and surveys concurrently using a worker pool.
func submitStudents(ctx context.Context, config *Config, students []Student, stats *Stats) error {
	logger.Get().Info(ctx, "submitting students", logger.Int("students", len(students)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	var (
		marksOK  int64
		surveyOK int64
		failed   int64
		done     int64
	)

	studentChan := make(chan Student, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range studentChan {
				m, sv, err := submitSingleStudent(ctx, client, s)
				if m {
					atomic.AddInt64(&marksOK, 1)
				}
				if sv {
					atomic.AddInt64(&surveyOK, 1)
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "submission failed", logger.String("studentID", s.ID), logger.Error(err))
					}
				}
				if n := atomic.AddInt64(&done, 1); config.Verbose && n%100 == 0 {
					logger.Get().Info(ctx, "progress", logger.Int64("submitted", n), logger.Int("total", len(students)))
				}
			}
		}()
	}

	go func() {
		defer close(studentChan)
		for _, s := range students {
			select {
			case <-ctx.Done():
				return
			case studentChan <- s:
			}
		}
	}()

	wg.Wait()

	stats.MarksSubmitted = int(atomic.LoadInt64(&marksOK))
	stats.SurveysSubmitted = int(atomic.LoadInt64(&surveyOK))
	stats.SubmissionsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "submission completed",
		logger.Int("marks", stats.MarksSubmitted),
		logger.Int("surveys", stats.SurveysSubmitted),
		logger.Int("failed", stats.SubmissionsFailed))
	return ctx.Err()
}

// submitSingleStudent authenticates as the student and submits both inputs.
func submitSingleStudent(ctx context.Context, client *HTTPClient, s Student) (marksOK, surveyOK bool, err error) {
	token, err := client.issueToken(ctx, s.ID, model.RoleStudent)
	if err != nil {
		return false, false, err
	}
	base := "/students/" + s.ID
	marksReq := map[string]any{"classLevel": s.ClassLevel, "streams": s.Streams}
	if err := client.do(ctx, http.MethodPut, base+"/marks", token, marksReq, nil); err != nil {
		return false, false, err
	}
	if err := client.do(ctx, http.MethodPut, base+"/survey", token, map[string]any{"answers": s.Answers}, nil); err != nil {
		return true, false, err
	}
	return true, true, nil
}
