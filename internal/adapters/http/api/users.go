package api

import (
	"net/http"
	"time"

	service "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/domain/model"
)

type roleRequest struct {
	Role model.Role `json:"role" validate:"required,oneof=student school admin"`
}

type profileRequest struct {
	Name           *string               `json:"name" validate:"omitempty,min=1,max=200"`
	Email          *string               `json:"email" validate:"omitempty,email"`
	SchoolName     *string               `json:"schoolName" validate:"omitempty,max=200"`
	EducationLevel *model.EducationLevel `json:"educationLevel" validate:"omitempty,oneof=class_10 class_12 graduate"`
	Interests      *[]string             `json:"interests" validate:"omitempty,max=50,dive,max=100"`
}

type tokenRequest struct {
	UserID string     `json:"userId" validate:"required,max=128"`
	Role   model.Role `json:"role" validate:"required,oneof=student school admin"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleMe returns the caller's stored user. Callers without a stored user
// get the identity carried by their token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	u, err := s.deps.GetUser(r.Context(), caller.Subject)
	if err != nil {
		if status, _ := classify(err); status != http.StatusNotFound {
			s.writeError(w, r, Wrap("api.me", err))
			return
		}
		u = model.User{ID: caller.Subject, Role: caller.Role}
	}
	writeJSON(w, http.StatusOK, u)
}

// handleSetRole handles PUT /me/role.
func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_role"
	var req roleRequest
	if err := s.decode(op, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	caller, _ := auth.FromContext(r.Context())
	u, err := s.deps.SetRole(r.Context(), caller.Subject, req.Role)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleUpdateProfile handles PUT /me/profile. Absent fields are kept.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_profile"
	var req profileRequest
	if err := s.decode(op, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	caller, _ := auth.FromContext(r.Context())
	u, err := s.deps.UpdateProfile(r.Context(), caller.Subject, service.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		SchoolName:     req.SchoolName,
		EducationLevel: req.EducationLevel,
		Interests:      req.Interests,
	})
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleIssueToken handles POST /auth/token. It is only routed when dev
// tokens are enabled; real deployments get tokens from the identity
// provider.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	const op = "api.issue_token"
	var req tokenRequest
	if err := s.decode(op, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, exp, err := s.tokens.Issue(req.UserID, req.Role)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp})
}
