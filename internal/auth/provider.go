package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/internal/domain/model"
)

// Provider turns a bearer token into the acting user.
type Provider struct {
	maker *Maker
	users repository.Collection[model.User]
}

// NewProvider creates a Provider.
func NewProvider(maker *Maker, users repository.Collection[model.User]) *Provider {
	return &Provider{maker: maker, users: users}
}

// Maker returns the token maker.
func (p *Provider) Maker() *Maker { return p.maker }

// Resolve verifies token and loads its user. The current stored role wins
// over the role recorded in the token. Unknown and inactive users are
// Unauthorized.
func (p *Provider) Resolve(ctx context.Context, token string) (authz.Actor, error) {
	const op = "auth.Resolve"

	token = strings.TrimSpace(token)
	if token == "" {
		return authz.Actor{}, apperr.NewKind(op, apperr.ErrUnauthorized, "missing session token")
	}
	claims, err := p.maker.VerifyToken(token)
	if err != nil {
		return authz.Actor{}, apperr.WrapKind(op, apperr.ErrUnauthorized, err)
	}

	u, err := p.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return authz.Actor{}, apperr.NewKind(op, apperr.ErrUnauthorized, "unknown user")
	}
	if err != nil {
		return authz.Actor{}, err
	}
	if !u.Active {
		return authz.Actor{}, apperr.NewKind(op, apperr.ErrUnauthorized, "user is inactive")
	}
	return authz.FromUser(u), nil
}
