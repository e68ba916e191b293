package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-app/inkwell/internal/shared"
)

// Service sequences the credential store, hasher and strategies behind the
// HTTP handler.
type Service struct {
	repo       Repository
	hasher     *Hasher
	strategies *Strategies
	audit      *shared.AuditLogger
}

// NewService constructs a new Service. audit may be nil.
func NewService(repo Repository, hasher *Hasher, strategies *Strategies, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, hasher: hasher, strategies: strategies, audit: audit}
}

// RegisterInput carries a validated registration form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a local account. The plaintext is hashed exactly once,
// here, before the record is persisted. Duplicate identities surface as
// shared.ErrDuplicateIdentity whether caught by the pre-check or by the
// unique index during a racing create.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	existing, err := s.repo.FindByIdentifier(ctx, in.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: duplicate pre-check: %w", err)
	}
	if existing != nil {
		return nil, shared.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := NewLocalUser(in.Email, hash, in.FirstName, in.LastName)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, user.ID, "auth.register", map[string]any{"method": string(MethodLocal)})
	return user, nil
}

// Login resolves local credentials through the local strategy.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	strategy, err := s.strategies.Local()
	if err != nil {
		return nil, err
	}
	user, err := strategy.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, user.ID, "auth.login", map[string]any{"method": string(MethodLocal)})
	return user, nil
}

// ResolveGoogle resolves a federated profile through the Google strategy,
// provisioning an account on first sight.
func (s *Service) ResolveGoogle(ctx context.Context, profile GoogleProfile) (*User, error) {
	strategy, err := s.strategies.Google()
	if err != nil {
		return nil, err
	}
	user, err := strategy.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, user.ID, "auth.login", map[string]any{"method": string(MethodGoogle)})
	return user, nil
}

// HasGoogle reports whether federated login is configured.
func (s *Service) HasGoogle() bool {
	return s.strategies.HasGoogle()
}

// ResolveUser re-fetches the live account bound to a session reference.
func (s *Service) ResolveUser(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// RegisterSession persists the session metadata in postgres for operators.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", Meta: meta})
}
