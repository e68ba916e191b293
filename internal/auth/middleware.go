package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwell-app/inkwell/internal/shared"
)

type userContextKey struct{}

// ContextWithUser stores the resolved user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the resolved user, nil when anonymous.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// CurrentUser resolves the session reference back into a live user record on
// every request. Only the user ID lives in the session; the account itself
// is re-fetched so later profile changes are always reflected.
type CurrentUser struct {
	service *Service
	logger  *slog.Logger
}

// NewCurrentUser constructs the middleware.
func NewCurrentUser(service *Service, logger *slog.Logger) *CurrentUser {
	return &CurrentUser{service: service, logger: logger}
}

// Middleware attaches the resolved user to the request context. A session
// referencing a vanished account reverts to the anonymous experience rather
// than failing the request.
func (c *CurrentUser) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := c.service.ResolveUser(r.Context(), sess.User())
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				c.logger.Error("resolve session user", slog.Any("error", err))
			}
			sess.SetUser("")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireUser routes anonymous requests to the login form.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
