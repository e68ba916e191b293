package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/shared"
	_ "github.com/inkwell-app/inkwell/testing"
)

// memRepo is an in-memory Repository used across the auth tests.
type memRepo struct {
	users       []*auth.User
	createErr   error
	createCalls int
	sessions    map[string]string
}

func (m *memRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	email = auth.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Method == auth.MethodLocal && u.Email() == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByGoogleID(ctx context.Context, subject string) (*auth.User, error) {
	for _, u := range m.users {
		if u.Google != nil && u.Google.Subject == subject {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	identifier = auth.NormalizeEmail(identifier)
	for _, u := range m.users {
		if u.Email() == identifier {
			return u, nil
		}
		if u.Google != nil && u.Google.Subject == identifier {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) Create(ctx context.Context, user *auth.User) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if user.Local != nil {
		if _, err := m.FindByEmail(ctx, user.Local.Email); err == nil {
			return shared.ErrDuplicateIdentity
		}
	}
	if user.Google != nil {
		if _, err := m.FindByGoogleID(ctx, user.Google.Subject); err == nil {
			return shared.ErrDuplicateIdentity
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *memRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	if m.sessions == nil {
		m.sessions = make(map[string]string)
	}
	m.sessions[id] = userID
	return nil
}

func (m *memRepo) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func localUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	digest, err := auth.NewHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return auth.NewLocalUser(email, digest, "Test", "User")
}

func TestLocalStrategyAuthenticate(t *testing.T) {
	repo := &memRepo{users: []*auth.User{localUser(t, "user@test.local", "correctpass")}}
	strategy := auth.NewLocalStrategy(repo, auth.NewHasher())

	user, err := strategy.Authenticate(context.Background(), "user@test.local", "correctpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email() != "user@test.local" {
		t.Fatalf("unexpected user %q", user.Email())
	}
}

func TestLocalStrategyIndistinguishableFailures(t *testing.T) {
	repo := &memRepo{users: []*auth.User{localUser(t, "user@test.local", "correctpass")}}
	strategy := auth.NewLocalStrategy(repo, auth.NewHasher())

	if _, err := strategy.Authenticate(context.Background(), "nobody@test.local", "correctpass"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := strategy.Authenticate(context.Background(), "user@test.local", "wrongpass"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGoogleStrategyResolveExisting(t *testing.T) {
	existing := auth.NewGoogleUser(auth.GoogleProfile{Subject: "subj-1", DisplayName: "Jane Doe"})
	repo := &memRepo{users: []*auth.User{existing}}
	strategy := auth.NewGoogleStrategy(repo)

	user, err := strategy.Resolve(context.Background(), auth.GoogleProfile{Subject: "subj-1", DisplayName: "Jane Renamed"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != existing.ID {
		t.Fatalf("expected existing account, got %q", user.ID)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no provisioning for known subject")
	}
}

func TestGoogleStrategyProvisionsOnFirstSight(t *testing.T) {
	repo := &memRepo{}
	strategy := auth.NewGoogleStrategy(repo)

	user, err := strategy.Resolve(context.Background(), auth.GoogleProfile{
		Subject:     "subj-new",
		DisplayName: "New Person",
		GivenName:   "New",
		FamilyName:  "Person",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.Method != auth.MethodGoogle || user.Google.Subject != "subj-new" {
		t.Fatalf("expected provisioned federated account, got %+v", user)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one persisted user, got %d", len(repo.users))
	}
}

func TestGoogleStrategyCallbackRace(t *testing.T) {
	winner := auth.NewGoogleUser(auth.GoogleProfile{Subject: "subj-race"})
	repo := &raceRepo{winner: winner}
	strategy := auth.NewGoogleStrategy(repo)

	user, err := strategy.Resolve(context.Background(), auth.GoogleProfile{Subject: "subj-race"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != winner.ID {
		t.Fatalf("expected loser to adopt winner's row, got %q", user.ID)
	}
}

// raceRepo simulates a concurrent callback: the first lookup misses, the
// create hits the unique index, and the re-fetch finds the winner's row.
type raceRepo struct {
	memRepo
	winner  *auth.User
	lookups int
}

func (r *raceRepo) FindByGoogleID(ctx context.Context, subject string) (*auth.User, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, shared.ErrNotFound
	}
	return r.winner, nil
}

func (r *raceRepo) Create(ctx context.Context, user *auth.User) error {
	return shared.ErrDuplicateIdentity
}

func TestStrategiesUnavailable(t *testing.T) {
	strategies := auth.NewStrategies(auth.NewLocalStrategy(&memRepo{}, auth.NewHasher()), nil)

	if strategies.HasGoogle() {
		t.Fatalf("expected google strategy absent")
	}
	if _, err := strategies.Google(); !errors.Is(err, shared.ErrStrategyUnavailable) {
		t.Fatalf("expected ErrStrategyUnavailable, got %v", err)
	}
	if _, err := strategies.Local(); err != nil {
		t.Fatalf("expected local strategy available, got %v", err)
	}
}
