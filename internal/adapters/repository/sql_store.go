package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/pkg/metrics"
)

// SQLStore is a Store over database/sql. Queries use $N placeholders, which
// both the pgx and the modernc sqlite drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// NewSQLStore wraps an opened database. See Open.
func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// observe records latency and outcome of op; defer the returned func.
func observe(op string, errp *error) func() {
	start := time.Now()
	return func() {
		metrics.RecordRepositoryOp(op, float64(time.Since(start).Microseconds())/1000, *errp)
	}
}

func (s *SQLStore) EnsureUser(ctx context.Context, id string, role model.Role) (err error) {
	defer observe("ensure_user", &err)()
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, role) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, id, string(role))
	return err
}

func (s *SQLStore) UpsertUser(ctx context.Context, u model.User) (err error) {
	defer observe("upsert_user", &err)()
	interests, err := json.Marshal(nonNilStrings(u.Interests))
	if err != nil {
		return err
	}
	var level *string
	if u.EducationLevel != nil {
		v := string(*u.EducationLevel)
		level = &v
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, name, email, role, school_name, education_level, interests_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, role=EXCLUDED.role,
		school_name=EXCLUDED.school_name, education_level=EXCLUDED.education_level, interests_json=EXCLUDED.interests_json`,
		u.ID, nullString(u.Name), nullString(u.Email), string(u.Role), nullString(u.SchoolName), nullString(level), string(interests))
	return err
}

const userColumns = `u.id, u.name, u.email, u.role, u.school_name, u.education_level, u.interests_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (model.User, error) {
	var (
		u                                model.User
		name, email, school, level, role sql.NullString
		interests                        string
	)
	dest := append([]any{&u.ID, &name, &email, &role, &school, &level, &interests}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role.String)
	u.Name = stringPtr(name)
	u.Email = stringPtr(email)
	u.SchoolName = stringPtr(school)
	if level.Valid {
		l := model.EducationLevel(level.String)
		u.EducationLevel = &l
	}
	if err := json.Unmarshal([]byte(interests), &u.Interests); err != nil {
		return model.User{}, err
	}
	if len(u.Interests) == 0 {
		u.Interests = nil
	}
	return u, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (_ model.User, err error) {
	defer observe("get_user", &err)()
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLStore) ListStudents(ctx context.Context, q StudentQuery) (_ []StudentStatus, err error) {
	defer observe("list_students", &err)()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	limit := q.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+`,
		EXISTS (SELECT 1 FROM academic_records m WHERE m.student_id=u.id),
		EXISTS (SELECT 1 FROM interest_profiles p WHERE p.student_id=u.id),
		EXISTS (SELECT 1 FROM recommendation_snapshots r WHERE r.student_id=u.id),
		COALESCE((SELECT m.class_level FROM academic_records m WHERE m.student_id=u.id
			ORDER BY m.updated_at DESC, m.class_level DESC LIMIT 1), '')
		FROM users u
		WHERE u.role=$1 AND ($2='' OR LOWER(COALESCE(u.name, '')) LIKE $3 OR LOWER(COALESCE(u.email, '')) LIKE $3)
		ORDER BY u.id
		LIMIT $4`,
		string(model.RoleStudent), search, "%"+search+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StudentStatus{}
	for rows.Next() {
		var (
			st    StudentStatus
			level string
		)
		st.User, err = scanUser(rows, &st.HasMarks, &st.HasAssessment, &st.HasRecommendations, &level)
		if err != nil {
			return nil, err
		}
		st.ClassLevel = model.ClassLevel(level)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutMarks(ctx context.Context, rec model.AcademicRecord) (_ model.AcademicRecord, err error) {
	defer observe("put_marks", &err)()
	streams, err := json.Marshal(rec.Streams)
	if err != nil {
		return model.AcademicRecord{}, err
	}
	averages, err := json.Marshal(rec.Averages)
	if err != nil {
		return model.AcademicRecord{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO academic_records (id, student_id, school_id, class_level, streams_json, averages_json, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, class_level) DO UPDATE SET school_id=EXCLUDED.school_id,
		streams_json=EXCLUDED.streams_json, averages_json=EXCLUDED.averages_json, updated_at=EXCLUDED.updated_at`,
		rec.ID, rec.StudentID, rec.SchoolID, string(rec.ClassLevel), string(streams), string(averages), rec.UpdatedAt.UnixMilli())
	if err != nil {
		return model.AcademicRecord{}, err
	}
	return s.LatestMarks(ctx, rec.StudentID, rec.ClassLevel)
}

func (s *SQLStore) LatestMarks(ctx context.Context, studentID string, level model.ClassLevel) (_ model.AcademicRecord, err error) {
	defer observe("latest_marks", &err)()
	row := s.db.QueryRowContext(ctx, `SELECT id, student_id, school_id, class_level, streams_json, averages_json, updated_at
		FROM academic_records
		WHERE student_id=$1 AND ($2='' OR class_level=$2)
		ORDER BY updated_at DESC, class_level DESC
		LIMIT 1`, studentID, string(level))

	var (
		rec               model.AcademicRecord
		lvl               string
		streams, averages string
		updated           int64
	)
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.SchoolID, &lvl, &streams, &averages, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AcademicRecord{}, ErrNotFound
		}
		return model.AcademicRecord{}, err
	}
	rec.ClassLevel = model.ClassLevel(lvl)
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	if err := json.Unmarshal([]byte(streams), &rec.Streams); err != nil {
		return model.AcademicRecord{}, err
	}
	if err := json.Unmarshal([]byte(averages), &rec.Averages); err != nil {
		return model.AcademicRecord{}, err
	}
	return rec, nil
}

func (s *SQLStore) PutProfile(ctx context.Context, p model.InterestProfile) (err error) {
	defer observe("put_profile", &err)()
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(p.InterestScores)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO interest_profiles (student_id, id, answers_json, scores_json, total_questions, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET id=EXCLUDED.id, answers_json=EXCLUDED.answers_json,
		scores_json=EXCLUDED.scores_json, total_questions=EXCLUDED.total_questions, submitted_at=EXCLUDED.submitted_at`,
		p.StudentID, p.ID, string(answers), string(scores), p.TotalQuestions, p.SubmittedAt.UnixMilli())
	return err
}

func (s *SQLStore) GetProfile(ctx context.Context, studentID string) (_ model.InterestProfile, err error) {
	defer observe("get_profile", &err)()
	row := s.db.QueryRowContext(ctx, `SELECT id, student_id, answers_json, scores_json, total_questions, submitted_at
		FROM interest_profiles WHERE student_id=$1`, studentID)

	var (
		p               model.InterestProfile
		answers, scores string
		submitted       int64
	)
	if err := row.Scan(&p.ID, &p.StudentID, &answers, &scores, &p.TotalQuestions, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.InterestProfile{}, ErrNotFound
		}
		return model.InterestProfile{}, err
	}
	p.SubmittedAt = time.UnixMilli(submitted).UTC()
	if err := json.Unmarshal([]byte(answers), &p.Answers); err != nil {
		return model.InterestProfile{}, err
	}
	if err := json.Unmarshal([]byte(scores), &p.InterestScores); err != nil {
		return model.InterestProfile{}, err
	}
	return p, nil
}

func (s *SQLStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) (err error) {
	defer observe("save_snapshot", &err)()
	scores, err := json.Marshal(snap.Scores)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO recommendation_snapshots (id, student_id, primary_category, alternative, reason, scores_json, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.StudentID, string(snap.Primary), string(snap.Alternative), string(snap.Reason), string(scores), snap.ComputedAt.UnixMilli())
	return err
}

func (s *SQLStore) LatestSnapshot(ctx context.Context, studentID string) (_ model.Snapshot, err error) {
	defer observe("latest_snapshot", &err)()
	row := s.db.QueryRowContext(ctx, `SELECT id, student_id, primary_category, alternative, reason, scores_json, computed_at
		FROM recommendation_snapshots WHERE student_id=$1 ORDER BY seq DESC LIMIT 1`, studentID)

	var (
		snap                         model.Snapshot
		primary, alternative, reason string
		scores                       string
		computed                     int64
	)
	if err := row.Scan(&snap.ID, &snap.StudentID, &primary, &alternative, &reason, &scores, &computed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snapshot{}, ErrNotFound
		}
		return model.Snapshot{}, err
	}
	snap.Primary = model.Category(primary)
	snap.Alternative = model.Category(alternative)
	snap.Reason = model.AlternativeReason(reason)
	snap.ComputedAt = time.UnixMilli(computed).UTC()
	if err := json.Unmarshal([]byte(scores), &snap.Scores); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (s *SQLStore) CountSnapshots(ctx context.Context) (_ int, err error) {
	defer observe("count_snapshots", &err)()
	var n int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendation_snapshots`).Scan(&n)
	return n, err
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
