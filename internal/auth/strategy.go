package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell-app/inkwell/internal/shared"
)

// GoogleProfile is the provider profile handed over after the OAuth
// redirect/callback exchange.
type GoogleProfile struct {
	Subject     string
	DisplayName string
	GivenName   string
	FamilyName  string
	Picture     string
}

// LocalStrategy resolves email/password credentials into a verified user.
type LocalStrategy struct {
	repo   Repository
	hasher *Hasher
}

// NewLocalStrategy constructs the local strategy.
func NewLocalStrategy(repo Repository, hasher *Hasher) *LocalStrategy {
	return &LocalStrategy{repo: repo, hasher: hasher}
}

// Authenticate validates credentials against the credential store. Unknown
// email and wrong password are deliberately indistinguishable: both return
// shared.ErrInvalidCredentials.
func (s *LocalStrategy) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: lookup by email: %w", err)
	}
	if user.Local == nil || !s.hasher.Verify(password, user.Local.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// GoogleStrategy resolves a federated profile into a user, provisioning a new
// account on first sight of a subject.
type GoogleStrategy struct {
	repo Repository
}

// NewGoogleStrategy constructs the federated strategy.
func NewGoogleStrategy(repo Repository) *GoogleStrategy {
	return &GoogleStrategy{repo: repo}
}

// Resolve returns the user bound to the profile's subject, creating one when
// the subject has never been seen. Absence means provision, not rejection.
func (s *GoogleStrategy) Resolve(ctx context.Context, profile GoogleProfile) (*User, error) {
	user, err := s.repo.FindByGoogleID(ctx, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: lookup by google id: %w", err)
	}

	draft := NewGoogleUser(profile)
	if err := s.repo.Create(ctx, draft); err != nil {
		// Two callbacks for the same new subject can race; the loser hits
		// the unique index and treats the winner's row as found.
		if errors.Is(err, shared.ErrDuplicateIdentity) {
			return s.repo.FindByGoogleID(ctx, profile.Subject)
		}
		return nil, fmt.Errorf("auth: provision google user: %w", err)
	}
	return draft, nil
}

// Strategies is the closed set of authentication strategies configured for a
// deployment. It is built once at process start and injected; an absent
// strategy makes its entry point answer with shared.ErrStrategyUnavailable
// instead of attempting authentication.
type Strategies struct {
	local  *LocalStrategy
	google *GoogleStrategy
}

// NewStrategies assembles the registry. google may be nil when the
// deployment has no Google OAuth credentials.
func NewStrategies(local *LocalStrategy, google *GoogleStrategy) *Strategies {
	return &Strategies{local: local, google: google}
}

// Local returns the local strategy.
func (s *Strategies) Local() (*LocalStrategy, error) {
	if s == nil || s.local == nil {
		return nil, shared.ErrStrategyUnavailable
	}
	return s.local, nil
}

// Google returns the federated strategy.
func (s *Strategies) Google() (*GoogleStrategy, error) {
	if s == nil || s.google == nil {
		return nil, shared.ErrStrategyUnavailable
	}
	return s.google, nil
}

// HasGoogle reports whether federated login is configured; the UI hides the
// Google option when it is not.
func (s *Strategies) HasGoogle() bool {
	return s != nil && s.google != nil
}
