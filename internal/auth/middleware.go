package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/streamwise/internal/domain/model"
)

// UserLookup resolves the stored user for a token subject.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

// Middleware authenticates the bearer token and stores the Identity in the
// request context. When lookup knows the subject, the stored role wins over
// the token claim so role changes apply without a new token.
func Middleware(s *Service, lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				deny(w, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			claims, err := s.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				deny(w, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			id := Identity{Subject: claims.Sub, Role: claims.Role}
			if lookup != nil {
				if u, err := lookup.GetUser(r.Context(), claims.Sub); err == nil && u.Role.Valid() {
					id.Role = u.Role
				} else if err != nil && !errors.Is(err, model.ErrNotFound) {
					deny(w, http.StatusInternalServerError, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Require admits callers whose role is one of roles.
func Require(roles ...model.Role) func(http.Handler) http.Handler {
	return RequireSelfOr(nil, roles...)
}

// RequireSelfOr admits the caller when subjectOf(r) is the caller's own id,
// or when the caller's role is one of roles.
func RequireSelfOr(subjectOf func(*http.Request) string, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			if subjectOf != nil && subjectOf(r) == id.Subject {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, ErrForbidden)
		})
	}
}

// deny writes the JSON error body. Causes of 5xx responses stay in the
// server log.
func deny(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_"),
		"message": msg,
	})
}
