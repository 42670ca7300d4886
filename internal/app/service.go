// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/streamwise/internal/adapters/mq/queue"
	workerpool "github.com/okian/streamwise/internal/adapters/mq/worker"
	"github.com/okian/streamwise/internal/adapters/repository"
	"github.com/okian/streamwise/internal/domain/courses"
	"github.com/okian/streamwise/internal/domain/dedupe"
	"github.com/okian/streamwise/internal/domain/marks"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/scoring"
	"github.com/okian/streamwise/internal/domain/survey"
	"github.com/okian/streamwise/pkg/logger"
	"github.com/okian/streamwise/pkg/metrics"
)

// Service implements the API dependencies for stream guidance.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	engine  *scoring.Engine
	catalog []courses.Course
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	coalesceSize int
	maxListLimit int
	now          func() time.Time

	// State
	started bool
	initErr error

	logger logger.Logger
}

// New constructs a new Service with default configuration. The store and the
// recompute pipeline are created by Start when not supplied through options.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		coalesceSize: 50_000,
		maxListLimit: DefaultMaxListLimit,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine, s.initErr = scoring.New()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.initErr != nil {
		return fmt.Errorf("scoring engine: %w", s.initErr)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.catalog == nil {
		s.catalog = []courses.Course{}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.coalesceSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, workerpool.ProcessorFunc(s.recompute))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "stream guidance service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("coalesceSize", s.coalesceSize),
		logger.Int("courses", len(s.catalog)),
	)

	return nil
}

// Stop drains pending recomputes and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping stream guidance service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "stream guidance service stopped")
	return errors.Join(errs...)
}

// SurveyQuestions returns the fixed interest survey.
func (s *Service) SurveyQuestions() []survey.Question {
	return s.engine.Questions()
}

// SubmitMarks validates, clamps and stores a student's marks for a class
// level, replacing any earlier submission for that level. schoolID is set
// when school staff submit on the student's behalf.
func (s *Service) SubmitMarks(ctx context.Context, studentID, schoolID string, level model.ClassLevel, streams map[model.Category]model.SubjectMarks) (model.AcademicRecord, error) {
	if err := s.ready(); err != nil {
		return model.AcademicRecord{}, err
	}
	rec, err := marks.NewRecord(studentID, schoolID, level, streams)
	if err != nil {
		metrics.RecordSubmission(string(model.TriggerMarks), "rejected")
		s.logger.Debug(ctx, "marks rejected", logger.String("studentID", studentID), logger.Error(err))
		return model.AcademicRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.UpdatedAt = s.now().UTC()

	if err := s.store.EnsureUser(ctx, studentID, model.RoleStudent); err != nil {
		return model.AcademicRecord{}, fmt.Errorf("ensure student: %w", err)
	}
	stored, err := s.store.PutMarks(ctx, rec)
	if err != nil {
		metrics.RecordSubmission(string(model.TriggerMarks), "failed")
		return model.AcademicRecord{}, fmt.Errorf("store marks: %w", err)
	}

	metrics.RecordSubmission(string(model.TriggerMarks), "accepted")
	s.logger.Info(ctx, "marks stored",
		logger.String("studentID", studentID),
		logger.String("classLevel", string(level)),
		logger.String("schoolID", schoolID),
	)
	s.scheduleRecompute(ctx, studentID, model.TriggerMarks)
	return stored, nil
}

// GetMarks returns the record for level, or the most recent one when level
// is empty.
func (s *Service) GetMarks(ctx context.Context, studentID string, level model.ClassLevel) (model.AcademicRecord, error) {
	if err := s.ready(); err != nil {
		return model.AcademicRecord{}, err
	}
	if level != "" && !level.Valid() {
		return model.AcademicRecord{}, model.NewValidationError("classLevel", fmt.Sprintf("unknown class level %q", level))
	}
	return s.store.LatestMarks(ctx, studentID, level)
}

// SubmitInterestSurvey aggregates a complete survey submission and replaces
// the student's interest profile. Invalid submissions leave the stored
// profile untouched.
func (s *Service) SubmitInterestSurvey(ctx context.Context, studentID string, answers []model.SurveyAnswer) (model.InterestProfile, error) {
	if err := s.ready(); err != nil {
		return model.InterestProfile{}, err
	}
	profile, err := s.engine.Profile(studentID, answers)
	if err != nil {
		metrics.RecordSubmission(string(model.TriggerSurvey), "rejected")
		s.logger.Debug(ctx, "survey rejected", logger.String("studentID", studentID), logger.Error(err))
		return model.InterestProfile{}, err
	}
	profile.ID = uuid.NewString()
	profile.SubmittedAt = s.now().UTC()

	if err := s.store.EnsureUser(ctx, studentID, model.RoleStudent); err != nil {
		return model.InterestProfile{}, fmt.Errorf("ensure student: %w", err)
	}
	if err := s.store.PutProfile(ctx, profile); err != nil {
		metrics.RecordSubmission(string(model.TriggerSurvey), "failed")
		return model.InterestProfile{}, fmt.Errorf("store profile: %w", err)
	}

	metrics.RecordSubmission(string(model.TriggerSurvey), "accepted")
	s.logger.Info(ctx, "interest profile stored", logger.String("studentID", studentID))
	s.scheduleRecompute(ctx, studentID, model.TriggerSurvey)
	return profile, nil
}

// GetSurvey returns the student's current interest profile.
func (s *Service) GetSurvey(ctx context.Context, studentID string) (model.InterestProfile, error) {
	if err := s.ready(); err != nil {
		return model.InterestProfile{}, err
	}
	return s.store.GetProfile(ctx, studentID)
}

// ComputeRecommendation derives the recommendation from the student's most
// recent marks and current interest profile. Missing inputs produce a
// MissingData marker, not an error.
func (s *Service) ComputeRecommendation(ctx context.Context, studentID string) (model.Evaluation, error) {
	if err := s.ready(); err != nil {
		return model.Evaluation{}, err
	}
	start := time.Now()
	eval, err := s.evaluate(ctx, studentID)
	if err != nil {
		return model.Evaluation{}, err
	}
	if eval.Missing != nil {
		metrics.RecordMissingData(eval.Missing.HasMarks, eval.Missing.HasAssessment)
		return eval, nil
	}
	metrics.RecordRecommendation(string(eval.Recommendation.Primary), string(eval.Recommendation.Reason),
		float64(time.Since(start).Microseconds())/1000)
	return eval, nil
}

func (s *Service) evaluate(ctx context.Context, studentID string) (model.Evaluation, error) {
	var (
		record  *model.AcademicRecord
		profile *model.InterestProfile
	)
	rec, err := s.store.LatestMarks(ctx, studentID, "")
	switch {
	case err == nil:
		record = &rec
	case !errors.Is(err, model.ErrNotFound):
		return model.Evaluation{}, fmt.Errorf("load marks: %w", err)
	}
	p, err := s.store.GetProfile(ctx, studentID)
	switch {
	case err == nil:
		profile = &p
	case !errors.Is(err, model.ErrNotFound):
		return model.Evaluation{}, fmt.Errorf("load profile: %w", err)
	}
	return s.engine.Evaluate(record, profile), nil
}

// LatestSnapshot returns the most recent background snapshot for the
// student, or ErrNotFound when the recompute workers have not produced one.
func (s *Service) LatestSnapshot(ctx context.Context, studentID string) (model.Snapshot, error) {
	if err := s.ready(); err != nil {
		return model.Snapshot{}, err
	}
	return s.store.LatestSnapshot(ctx, studentID)
}

// Courses ranks the active catalog for the student. Unknown students are
// matched with an empty profile.
func (s *Service) Courses(ctx context.Context, studentID string, limit int) ([]courses.Match, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, studentID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		u = model.User{ID: studentID, Role: model.RoleStudent}
	}
	return courses.Rank(u, s.catalog, limit), nil
}

// Catalog returns the active courses, optionally filtered by category.
func (s *Service) Catalog(category string) []courses.Course {
	if category != "" {
		return courses.ForCategory(s.catalog, category)
	}
	out := make([]courses.Course, 0, len(s.catalog))
	for _, c := range s.catalog {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// ready reports ErrNotStarted until a store is available.
func (s *Service) ready() error {
	if s.store == nil {
		return ErrNotStarted
	}
	return nil
}

// scheduleRecompute enqueues a snapshot job unless one is already pending
// for the student. Failures are logged and never surface to the submitter.
func (s *Service) scheduleRecompute(ctx context.Context, studentID string, trigger model.JobTrigger) {
	if s.deduper == nil || s.queue == nil {
		s.logger.Debug(ctx, "recompute skipped, workers not started", logger.String("studentID", studentID))
		return
	}
	if s.deduper.SeenAndRecord(ctx, studentID) {
		metrics.RecordJobCoalesced()
		return
	}
	job := model.RecomputeJob{ID: uuid.NewString(), StudentID: studentID, Trigger: trigger}
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		s.deduper.Unrecord(ctx, studentID)
		s.logger.Warn(ctx, "recompute not scheduled",
			logger.String("studentID", studentID),
			logger.String("trigger", string(trigger)),
			logger.Error(err),
		)
	}
}

// recompute is the worker processor: it releases the pending key first so
// submissions arriving during the computation schedule a fresh job.
func (s *Service) recompute(ctx context.Context, job model.RecomputeJob) error { //nolint:gocritic // hugeParam: matches worker.ProcessorFunc
	s.deduper.Unrecord(ctx, job.StudentID)

	eval, err := s.evaluate(ctx, job.StudentID)
	if err != nil {
		return err
	}
	if !eval.Complete() {
		return nil
	}
	rec := eval.Recommendation
	snap := model.Snapshot{
		ID:         uuid.NewString(),
		StudentID:  job.StudentID,
		Primary:    rec.Primary,
		Reason:     rec.Reason,
		Scores:     rec.Scores,
		ComputedAt: s.now().UTC(),
	}
	if rec.Alternative != nil {
		snap.Alternative = *rec.Alternative
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	metrics.RecordSnapshotPersisted()
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"queueSize":    s.queueSize,
		"coalesceSize": s.coalesceSize,
	}

	if s.started {
		stats["workerCount"] = s.pool.Size()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["pendingRecomputes"] = s.deduper.Size()
		stats["processedJobs"] = s.pool.Processed()
		if n, err := s.store.CountSnapshots(ctx); err == nil {
			stats["snapshots"] = n
		} else {
			s.logger.Warn(ctx, "count snapshots failed", logger.Error(err))
		}
	}

	return stats
}
