package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vovakirdan/roomcast/internal/core"
	"github.com/vovakirdan/roomcast/internal/store"
)

// TokenVerifier checks a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// IdentityLookup resolves a user id to a user record.
type IdentityLookup interface {
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// Authenticator turns bearer tokens into session identities.
type Authenticator struct {
	verifier TokenVerifier
	users    IdentityLookup
}

// NewAuthenticator creates an authenticator from its two collaborators.
func NewAuthenticator(verifier TokenVerifier, users IdentityLookup) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Authenticate returns the identity behind token. Every failure wraps
// core.ErrAuthFailure.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (core.Identity, error) {
	subject, err := a.verifier.Verify(token)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: %w", core.ErrAuthFailure, err)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: subject %q is not a user id", core.ErrAuthFailure, subject)
	}

	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: lookup user %d: %w", core.ErrAuthFailure, userID, err)
	}
	if !user.IsActive {
		return core.Identity{}, fmt.Errorf("%w: user %d is inactive", core.ErrAuthFailure, userID)
	}

	return core.Identity{
		UserID: user.ID,
		Name:   user.FullName,
		Active: user.IsActive,
	}, nil
}
