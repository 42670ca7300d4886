// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/streamwise/internal/adapters/http/swagger"
	"github.com/okian/streamwise/internal/adapters/repository"
	service "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/domain/courses"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/survey"
	"github.com/okian/streamwise/pkg/logger"
	"github.com/okian/streamwise/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	auth.UserLookup
	StatsProvider

	SurveyQuestions() []survey.Question
	SubmitMarks(ctx context.Context, studentID, schoolID string, level model.ClassLevel, streams map[model.Category]model.SubjectMarks) (model.AcademicRecord, error)
	GetMarks(ctx context.Context, studentID string, level model.ClassLevel) (model.AcademicRecord, error)
	SubmitInterestSurvey(ctx context.Context, studentID string, answers []model.SurveyAnswer) (model.InterestProfile, error)
	GetSurvey(ctx context.Context, studentID string) (model.InterestProfile, error)
	ComputeRecommendation(ctx context.Context, studentID string) (model.Evaluation, error)
	LatestSnapshot(ctx context.Context, studentID string) (model.Snapshot, error)
	Courses(ctx context.Context, studentID string, limit int) ([]courses.Match, error)
	Catalog(category string) []courses.Course

	Dashboard(ctx context.Context) (service.Dashboard, error)
	ListStudents(ctx context.Context, search string, limit int) ([]repository.StudentStatus, error)

	SetRole(ctx context.Context, userID string, role model.Role) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, upd service.ProfileUpdate) (model.User, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	tokens   *auth.Service
	validate *validator.Validate
	log      logger.Logger

	corsOrigins    []string
	requestTimeout time.Duration
	devTokens      bool
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRequestTimeout bounds handler execution.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithDevTokens exposes POST /auth/token.
func WithDevTokens(enabled bool) Option {
	return func(s *Server) {
		s.devTokens = enabled
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, tokens *auth.Service, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		tokens:         tokens,
		validate:       newValidator(),
		requestTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("http")
	}
	return s
}

// Router builds the chi router with every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(s.log), middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(s.requestTimeout))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", s.handleStats)
	swagger.Register(r)

	r.Get("/survey/questions", s.handleQuestions)
	r.Get("/courses", s.handleCatalog)
	if s.devTokens {
		r.Post("/auth/token", s.handleIssueToken)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(s.tokens, s.deps))

		pr.Get("/me", s.handleMe)
		pr.Put("/me/role", s.handleSetRole)
		pr.Put("/me/profile", s.handleUpdateProfile)

		pr.Route("/students/{studentId}", func(sr chi.Router) {
			sr.Use(auth.RequireSelfOr(studentParam, model.RoleSchool, model.RoleAdmin))
			sr.Put("/marks", s.handleSubmitMarks)
			sr.Get("/marks", s.handleGetMarks)
			sr.Put("/survey", s.handleSubmitSurvey)
			sr.Get("/survey", s.handleGetSurvey)
			sr.Get("/recommendation", s.handleRecommendation)
			sr.Get("/recommendation/snapshot", s.handleSnapshot)
			sr.Get("/courses", s.handleCourses)
		})

		pr.Route("/school", func(sr chi.Router) {
			sr.Use(auth.Require(model.RoleSchool, model.RoleAdmin))
			sr.Get("/dashboard", s.handleDashboard)
			sr.Get("/students", s.handleListStudents)
			sr.Put("/students/{studentId}/marks", s.handleSubmitMarks)
		})
	})

	return r
}

func studentParam(r *http.Request) string {
	return chi.URLParam(r, "studentId")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(op string, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return s.check(op, dst)
}

// check turns the first validator failure into a ValidationError.
func (s *Server) check(op string, v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return Wrap(op, model.NewValidationError(fe.Field(), "failed "+fe.Tag()+" check"))
	}
	return WrapKind(op, ErrBadRequest, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes the JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("requestID", middleware.GetReqID(r.Context())),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorBody(status, code, err))
}
