package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/pkg/metrics"
)

type marksKey struct {
	studentID string
	level     model.ClassLevel
}

// MemoryStore is a mutex-guarded in-memory Store. All values are copied on
// the way in and out so callers never share maps with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]model.User
	marks     map[marksKey]model.AcademicRecord
	profiles  map[string]model.InterestProfile
	snapshots map[string]model.Snapshot // latest per student
	snapCount int                       // snapshots written

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:                 make(map[string]model.User),
		marks:                 make(map[marksKey]model.AcademicRecord),
		profiles:              make(map[string]model.InterestProfile),
		snapshots:             make(map[string]model.Snapshot),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) EnsureUser(_ context.Context, id string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		s.users[id] = model.User{ID: id, Role: role}
	}
	return nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	s.users[u.ID] = cloneUser(u)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) ListStudents(_ context.Context, q StudentQuery) ([]StudentStatus, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id, u := range s.users {
		if u.Role != model.RoleStudent {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.DisplayName()), needle) &&
			!strings.Contains(strings.ToLower(u.EmailAddress()), needle) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}

	out := make([]StudentStatus, 0, len(ids))
	for _, id := range ids {
		st := StudentStatus{User: cloneUser(s.users[id])}
		if rec, ok := s.latestMarksLocked(id, ""); ok {
			st.HasMarks = true
			st.ClassLevel = rec.ClassLevel
		}
		_, st.HasAssessment = s.profiles[id]
		_, st.HasRecommendations = s.snapshots[id]
		out = append(out, st)
	}
	return out, nil
}

func (s *MemoryStore) PutMarks(_ context.Context, rec model.AcademicRecord) (model.AcademicRecord, error) {
	key := marksKey{studentID: rec.StudentID, level: rec.ClassLevel}
	stored := cloneRecord(rec)

	s.mu.Lock()
	if prev, ok := s.marks[key]; ok {
		stored.ID = prev.ID
	}
	s.marks[key] = stored
	s.mu.Unlock()

	return cloneRecord(stored), nil
}

func (s *MemoryStore) LatestMarks(_ context.Context, studentID string, level model.ClassLevel) (model.AcademicRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.latestMarksLocked(studentID, level)
	if !ok {
		return model.AcademicRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) latestMarksLocked(studentID string, level model.ClassLevel) (model.AcademicRecord, bool) {
	if level != "" {
		rec, ok := s.marks[marksKey{studentID: studentID, level: level}]
		return rec, ok
	}
	var (
		best  model.AcademicRecord
		found bool
	)
	// Class levels are visited in a fixed order so equal timestamps resolve
	// to the higher level.
	for _, lvl := range []model.ClassLevel{model.Class10, model.Class12} {
		rec, ok := s.marks[marksKey{studentID: studentID, level: lvl}]
		if !ok {
			continue
		}
		if !found || !rec.UpdatedAt.Before(best.UpdatedAt) {
			best, found = rec, true
		}
	}
	return best, found
}

func (s *MemoryStore) PutProfile(_ context.Context, p model.InterestProfile) error {
	s.mu.Lock()
	s.profiles[p.StudentID] = cloneProfile(p)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, studentID string) (model.InterestProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[studentID]
	if !ok {
		return model.InterestProfile{}, ErrNotFound
	}
	return cloneProfile(p), nil
}

// SaveSnapshot replaces the student's snapshot. Only the SQL store keeps the
// full history.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	snap.Scores = cloneScores(snap.Scores)
	s.mu.Lock()
	s.snapshots[snap.StudentID] = snap
	s.snapCount++
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LatestSnapshot(_ context.Context, studentID string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[studentID]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	snap.Scores = cloneScores(snap.Scores)
	return snap, nil
}

func (s *MemoryStore) CountSnapshots(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapCount, nil
}

// startMetricsUpdater starts a background goroutine that publishes row counts.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	users, marks, profiles, snaps := len(s.users), len(s.marks), len(s.profiles), s.snapCount
	s.mu.RUnlock()

	metrics.UpdateRepositoryRecords("users", users)
	metrics.UpdateRepositoryRecords("academic_records", marks)
	metrics.UpdateRepositoryRecords("interest_profiles", profiles)
	metrics.UpdateRepositoryRecords("snapshots", snaps)
}

func cloneUser(u model.User) model.User {
	if u.Interests != nil {
		u.Interests = append([]string(nil), u.Interests...)
	}
	return u
}

func cloneRecord(r model.AcademicRecord) model.AcademicRecord {
	streams := make(map[model.Category]model.SubjectMarks, len(r.Streams))
	for c, marks := range r.Streams {
		cp := make(model.SubjectMarks, len(marks))
		for k, v := range marks {
			cp[k] = v
		}
		streams[c] = cp
	}
	r.Streams = streams
	r.Averages = cloneScores(r.Averages)
	return r
}

func cloneProfile(p model.InterestProfile) model.InterestProfile {
	p.Answers = append([]model.SurveyAnswer(nil), p.Answers...)
	scores := make(map[model.Category]int, len(p.InterestScores))
	for c, v := range p.InterestScores {
		scores[c] = v
	}
	p.InterestScores = scores
	return p
}

func cloneScores(in map[model.Category]float64) map[model.Category]float64 {
	out := make(map[model.Category]float64, len(in))
	for c, v := range in {
		out[c] = v
	}
	return out
}
