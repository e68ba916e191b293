package shared_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-app/inkwell/internal/shared"
	_ "github.com/inkwell-app/inkwell/testing"
)

func newSession(t *testing.T) *shared.Session {
	t.Helper()
	sm, _ := newManager(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sess
}

func TestCSRFEnsureTokenIsStable(t *testing.T) {
	manager := shared.NewCSRFManager("secret")
	sess := newSession(t)
	ctx := context.Background()

	first, err := manager.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if first == "" {
		t.Fatalf("expected non-empty token")
	}
	time.Sleep(time.Millisecond)
	second, err := manager.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first != second {
		t.Fatalf("expected a stable token per session")
	}
}

func TestCSRFVerifyToken(t *testing.T) {
	manager := shared.NewCSRFManager("secret")
	sess := newSession(t)
	ctx := context.Background()

	token, err := manager.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := manager.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := manager.VerifyToken(ctx, sess, "forged"); !errors.Is(err, shared.ErrCSRFTokenMismatch) {
		t.Fatalf("expected ErrCSRFTokenMismatch, got %v", err)
	}
	if err := manager.VerifyToken(ctx, sess, ""); !errors.Is(err, shared.ErrCSRFTokenMissing) {
		t.Fatalf("expected ErrCSRFTokenMissing for empty token, got %v", err)
	}
	if err := manager.VerifyToken(ctx, nil, token); !errors.Is(err, shared.ErrCSRFTokenMissing) {
		t.Fatalf("expected ErrCSRFTokenMissing for nil session, got %v", err)
	}
}
