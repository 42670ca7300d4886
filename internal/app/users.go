package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/streamwise/internal/domain/model"
)

// ProfileUpdate carries the optional fields of PUT /me/profile. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	SchoolName     *string
	EducationLevel *model.EducationLevel
	Interests      *[]string
}

// GetUser returns the stored user.
func (s *Service) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// SetRole assigns role to the user, creating the user when unknown.
func (s *Service) SetRole(ctx context.Context, userID string, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, model.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	u, err := s.loadOrNew(ctx, userID, role)
	if err != nil {
		return model.User{}, err
	}
	u.Role = role
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies upd to the user. Unknown users are created as
// students.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (model.User, error) {
	if upd.EducationLevel != nil && !upd.EducationLevel.Valid() {
		return model.User{}, model.NewValidationError("educationLevel", fmt.Sprintf("unknown education level %q", *upd.EducationLevel))
	}
	u, err := s.loadOrNew(ctx, userID, model.RoleStudent)
	if err != nil {
		return model.User{}, err
	}
	if upd.Name != nil {
		u.Name = upd.Name
	}
	if upd.Email != nil {
		u.Email = upd.Email
	}
	if upd.SchoolName != nil {
		u.SchoolName = upd.SchoolName
	}
	if upd.EducationLevel != nil {
		u.EducationLevel = upd.EducationLevel
	}
	if upd.Interests != nil {
		u.Interests = cleanInterests(*upd.Interests)
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

func (s *Service) loadOrNew(ctx context.Context, id string, role model.Role) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	if id == "" {
		return model.User{}, model.NewValidationError("id", "must not be empty")
	}
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{ID: id, Role: role}, nil
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// cleanInterests trims entries and drops blanks and case-insensitive repeats.
func cleanInterests(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
