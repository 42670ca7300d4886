package api

import (
	"net/http"
	"strconv"

	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/domain/courses"
	"github.com/okian/streamwise/internal/domain/guidance"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/survey"
)

// marksRequest mirrors the OpenAPI schema for PUT .../marks. Subject-level
// checks happen in the domain so unknown subjects get a precise field.
type marksRequest struct {
	ClassLevel model.ClassLevel                      `json:"classLevel" validate:"required,oneof=Class10 Class12"`
	Streams    map[model.Category]model.SubjectMarks `json:"streams" validate:"required"`
}

type surveyRequest struct {
	Answers []model.SurveyAnswer `json:"answers" validate:"required"`
}

type questionsResponse struct {
	Questions []survey.Question `json:"questions"`
	Scale     scale             `json:"scale"`
}

type scale struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type recommendationResponse struct {
	*model.Recommendation
	Guidance []guidance.Guidance `json:"guidance"`
}

type coursesResponse struct {
	Matches []courses.Match `json:"matches"`
}

// handleQuestions handles GET /survey/questions.
func (s *Server) handleQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, questionsResponse{
		Questions: s.deps.SurveyQuestions(),
		Scale:     scale{Min: survey.LikertMin, Max: survey.LikertMax},
	})
}

// handleSubmitMarks serves both the student and the school marks routes.
// When the caller is not the student, the caller's id is recorded as the
// submitting school.
func (s *Server) handleSubmitMarks(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_marks"
	studentID := studentParam(r)
	var req marksRequest
	if err := s.decode(op, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	schoolID := ""
	if caller, ok := auth.FromContext(r.Context()); ok && caller.Subject != studentID {
		schoolID = caller.Subject
	}
	rec, err := s.deps.SubmitMarks(r.Context(), studentID, schoolID, req.ClassLevel, req.Streams)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleGetMarks handles GET /students/{studentId}/marks?classLevel=.
func (s *Server) handleGetMarks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_marks"
	level := model.ClassLevel(r.URL.Query().Get("classLevel"))
	rec, err := s.deps.GetMarks(r.Context(), studentParam(r), level)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleSubmitSurvey handles PUT /students/{studentId}/survey.
func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_survey"
	var req surveyRequest
	if err := s.decode(op, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.deps.SubmitInterestSurvey(r.Context(), studentParam(r), req.Answers)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleGetSurvey handles GET /students/{studentId}/survey.
func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	profile, err := s.deps.GetSurvey(r.Context(), studentParam(r))
	if err != nil {
		s.writeError(w, r, Wrap("api.get_survey", err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleRecommendation always recomputes from the stored inputs. Missing
// inputs are a 200 with the MissingData marker.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	eval, err := s.deps.ComputeRecommendation(r.Context(), studentParam(r))
	if err != nil {
		s.writeError(w, r, Wrap("api.recommendation", err))
		return
	}
	if !eval.Complete() {
		writeJSON(w, http.StatusOK, eval.Missing)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		Recommendation: eval.Recommendation,
		Guidance:       guidance.ForRecommendation(eval.Recommendation),
	})
}

// handleSnapshot handles GET /students/{studentId}/recommendation/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.LatestSnapshot(r.Context(), studentParam(r))
	if err != nil {
		s.writeError(w, r, Wrap("api.snapshot", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleCourses handles GET /students/{studentId}/courses?limit=.
func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	const op = "api.courses"
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	matches, err := s.deps.Courses(r.Context(), studentParam(r), limit)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Matches: matches})
}

// handleCatalog handles GET /courses?category=.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"courses": s.deps.Catalog(r.URL.Query().Get("category")),
	})
}

// intQuery parses an optional integer query parameter; absent means zero.
func intQuery(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(key, "must be an integer")
	}
	return n, nil
}
