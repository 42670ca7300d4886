package api

import (
	"net/http"

	"github.com/okian/streamwise/internal/adapters/repository"
)

type studentsResponse struct {
	Students []studentRow `json:"students"`
}

type studentRow struct {
	ID                 string  `json:"id"`
	Name               *string `json:"name,omitempty"`
	Email              *string `json:"email,omitempty"`
	ClassLevel         string  `json:"classLevel,omitempty"`
	HasMarks           bool    `json:"hasMarks"`
	HasAssessment      bool    `json:"hasAssessment"`
	HasRecommendations bool    `json:"hasRecommendations"`
}

// handleDashboard handles GET /school/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, Wrap("api.dashboard", err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListStudents handles GET /school/students?search=&limit=.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_students"
	limit, err := intQuery(r, "limit")
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	students, err := s.deps.ListStudents(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, studentsResponse{Students: toRows(students)})
}

func toRows(in []repository.StudentStatus) []studentRow {
	out := make([]studentRow, 0, len(in))
	for _, st := range in {
		out = append(out, studentRow{
			ID:                 st.User.ID,
			Name:               st.User.Name,
			Email:              st.User.Email,
			ClassLevel:         string(st.ClassLevel),
			HasMarks:           st.HasMarks,
			HasAssessment:      st.HasAssessment,
			HasRecommendations: st.HasRecommendations,
		})
	}
	return out
}
