package service

import (
	"context"
	"strings"

	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
)

// UserInput creates a staff account.
type UserInput struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UserPatch is a sparse user update. Nil fields are left alone.
type UserPatch struct {
	Name   *string     `json:"name"`
	Role   *model.Role `json:"role"`
	Active *bool       `json:"active"`
}

// Empty reports whether p changes nothing.
func (p UserPatch) Empty() bool { return p == UserPatch{} }

func (p UserPatch) apply(u *model.User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

// CreateUser adds an active staff account. Emails are unique.
func (s *Service) CreateUser(ctx context.Context, actor *authz.Actor, in UserInput) (u model.User, err error) {
	const uc, op = "create_user", "service.CreateUser"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageUsers, authz.Resource{}); err != nil {
		return model.User{}, err
	}
	return s.createUser(ctx, op, in)
}

// Bootstrap creates the first admin of an empty installation. It fails with
// Conflict once any user exists.
func (s *Service) Bootstrap(ctx context.Context, name, email string) (u model.User, err error) {
	const uc, op = "bootstrap", "service.Bootstrap"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	unlock := s.locks.Lock("bootstrap")
	defer unlock()

	users, err := s.store.Users.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	if len(users) > 0 {
		return model.User{}, apperr.NewKind(op, apperr.ErrConflict, "users already exist")
	}
	return s.createUser(ctx, op, UserInput{Name: name, Email: email, Role: model.RoleAdmin})
}

func (s *Service) createUser(ctx context.Context, op string, in UserInput) (model.User, error) {
	u := model.User{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Role:      in.Role,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := u.Validate(); err != nil {
		return model.User{}, err
	}

	unlock := s.locks.Lock(emailLockKey("user:" + u.Email))
	defer unlock()

	existing, err := s.store.Users.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Email, u.Email) {
			return model.User{}, apperr.NewKind(op, apperr.ErrConflict, "a user with email %s already exists", u.Email)
		}
	}
	created, err := s.store.Users.Create(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	s.purge(ctx, cache.TagUsers)
	return created, nil
}

// UpdateUser changes name, role or active flag.
func (s *Service) UpdateUser(ctx context.Context, actor *authz.Actor, id string, patch UserPatch) (u model.User, err error) {
	const uc, op = "update_user", "service.UpdateUser"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ManageUsers, authz.Resource{}); err != nil {
		return model.User{}, err
	}
	if patch.Empty() {
		return s.store.Users.Update(ctx, id)
	}
	if id == actor.ID && ((patch.Active != nil && !*patch.Active) || (patch.Role != nil && *patch.Role != model.RoleAdmin)) {
		return model.User{}, apperr.NewKind(op, apperr.ErrConflict, "admins cannot demote or deactivate themselves")
	}

	updated, err := s.store.Users.Update(ctx, id, func(stored *model.User) error {
		patch.apply(stored)
		return stored.Validate()
	})
	if err != nil {
		return model.User{}, err
	}
	s.purge(ctx, cache.TagUsers)
	return updated, nil
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context, actor *authz.Actor) (out []model.User, err error) {
	const uc, op = "list_users", "service.ListUsers"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewSettings, authz.Resource{}); err != nil {
		return nil, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeyUsers, []cache.Tag{cache.TagUsers}, s.listTTL, s.store.Users.List)
}

// ListInterviewers returns active users who can be assigned rounds:
// interviewers and hiring managers.
func (s *Service) ListInterviewers(ctx context.Context, actor *authz.Actor) (out []model.User, err error) {
	const uc, op = "list_interviewers", "service.ListInterviewers"
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func() { err = s.finish(ctx, uc, err) }()

	if err := authz.Authorize(op, actor, authz.ViewPipeline, authz.Resource{}); err != nil {
		return nil, err
	}
	return cache.GetCached(ctx, s.cache, cache.KeyInterviewers, []cache.Tag{cache.TagUsers}, s.listTTL,
		func(ctx context.Context) ([]model.User, error) {
			all, err := s.store.Users.List(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]model.User, 0, len(all))
			for _, u := range all {
				if u.Active && (u.Role == model.RoleInterviewer || u.Role == model.RoleHiringManager) {
					out = append(out, u)
				}
			}
			return out, nil
		})
}
