package notes_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/notes"
	"github.com/inkwell-app/inkwell/internal/shared"
	"github.com/inkwell-app/inkwell/internal/view"
	_ "github.com/inkwell-app/inkwell/testing"
)

func newNotesRouter(t *testing.T, repo notes.RepositoryPort) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, 0, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := notes.NewHandler(logger, notes.NewService(repo), templates, csrfManager)

	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, sessionManager
}

func authedRequest(t *testing.T, sm *shared.SessionManager, user *auth.User, method, target string, form url.Values) *http.Request {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	if user != nil {
		ctx = auth.ContextWithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

func testUser() *auth.User {
	return auth.NewLocalUser("user@test.local", "$2a$10$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvabcdefgh12", "Test", "User")
}

func TestDashboardRequiresLogin(t *testing.T) {
	router, sm := newNotesRouter(t, &memRepo{})

	req := authedRequest(t, sm, nil, http.MethodGet, "/dashboard", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestDashboardListsOwnNotes(t *testing.T) {
	user := testUser()
	repo := &memRepo{notes: []notes.Note{
		{ID: "n1", UserID: user.ID, Title: "Groceries", Body: "milk"},
		{ID: "n2", UserID: "someone-else", Title: "Hidden", Body: "secret"},
	}}
	router, sm := newNotesRouter(t, repo)

	req := authedRequest(t, sm, user, http.MethodGet, "/dashboard", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Groceries") {
		t.Fatalf("expected own note in dashboard")
	}
	if strings.Contains(res.Body.String(), "Hidden") {
		t.Fatalf("expected foreign note excluded from dashboard")
	}
}

func TestCreateNote(t *testing.T) {
	user := testUser()
	repo := &memRepo{}
	router, sm := newNotesRouter(t, repo)

	form := url.Values{"title": {"New note"}, "body": {"note body"}}
	req := authedRequest(t, sm, user, http.MethodPost, "/notes", form)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if len(repo.notes) != 1 || repo.notes[0].UserID != user.ID {
		t.Fatalf("expected note persisted for user, got %+v", repo.notes)
	}
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	user := testUser()
	repo := &memRepo{}
	router, sm := newNotesRouter(t, repo)

	form := url.Values{"title": {""}, "body": {"note body"}}
	req := authedRequest(t, sm, user, http.MethodPost, "/notes", form)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "A title is required") {
		t.Fatalf("expected validation message in body")
	}
	if len(repo.notes) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestEditForeignNoteNotFound(t *testing.T) {
	user := testUser()
	repo := &memRepo{notes: []notes.Note{{ID: "n1", UserID: "someone-else", Title: "Hidden"}}}
	router, sm := newNotesRouter(t, repo)

	req := authedRequest(t, sm, user, http.MethodGet, "/notes/n1/edit", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign note, got %d", res.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	user := testUser()
	repo := &memRepo{notes: []notes.Note{{ID: "n1", UserID: user.ID, Title: "Old"}}}
	router, sm := newNotesRouter(t, repo)

	req := authedRequest(t, sm, user, http.MethodPost, "/notes/n1/delete", url.Values{})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if len(repo.notes) != 0 {
		t.Fatalf("expected note deleted")
	}
}
