package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/observability"
	"github.com/inkwell-app/inkwell/internal/shared"
	"github.com/inkwell-app/inkwell/internal/view"
)

const oauthStateKey = "oauth_state"

// FormError is a user-facing message rendered above a form.
type FormError struct {
	Msg string
}

// PageData is the view-model bag handed to auth templates.
type PageData struct {
	Description   string
	Action        string
	Errors        []FormError
	FormData      map[string]string
	HasGoogleAuth bool
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	google         OAuthProvider
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	metrics        *observability.Metrics
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance. google is nil when the strategy
// is not configured for this deployment.
func NewHandler(logger *slog.Logger, service *Service, google OAuthProvider, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		google:         google,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		metrics:        metrics,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Get("/login-failure", h.showLoginFailure)
	r.Get("/auth/choose", h.showChoose)
	r.Get("/auth/google", h.handleGoogleStart)
	r.Get("/auth/google/callback", h.handleGoogleCallback)
}

type registerForm struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register.html", "Register - Inkwell", http.StatusOK, PageData{
		Description:   "Create a new account",
		FormData:      map[string]string{},
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		FirstName:       r.PostFormValue("firstName"),
		LastName:        r.PostFormValue("lastName"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	// Password fields are never echoed back on re-render.
	formData := map[string]string{
		"firstName": form.FirstName,
		"lastName":  form.LastName,
		"email":     form.Email,
	}

	formErrors := h.validateRegister(form)
	if len(formErrors) > 0 {
		h.renderRegister(w, r, formErrors, formData, http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrDuplicateIdentity):
			h.observeAuth("local", "duplicate")
			h.renderRegister(w, r, []FormError{{Msg: "Email already registered"}}, formData, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			h.renderRegister(w, r, []FormError{{Msg: "Password must be at least 6 characters"}}, formData, http.StatusBadRequest)
		default:
			h.logger.Error("registration failed", slog.Any("error", err))
			h.observeAuth("local", "error")
			h.renderRegister(w, r, []FormError{{Msg: "Registration failed. Please try again."}}, formData, http.StatusInternalServerError)
		}
		return
	}

	h.observeAuth("local", "registered")
	h.establishSession(r, user)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login.html", "Login - Inkwell", http.StatusOK, PageData{
		Description:   "Login to your account",
		FormData:      map[string]string{},
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	formData := map[string]string{"email": email}

	user, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			// One generic message for unknown email and wrong password.
			h.observeAuth("local", "rejected")
			h.renderLogin(w, r, []FormError{{Msg: "Invalid email or password"}}, formData, http.StatusBadRequest)
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		h.observeAuth("local", "error")
		h.renderLogin(w, r, []FormError{{Msg: "Login failed. Please try again."}}, formData, http.StatusInternalServerError)
		return
	}

	h.observeAuth("local", "success")
	h.establishSession(r, user)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) showChoose(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action != "login" {
		action = "register"
	}
	title := "Sign Up - Inkwell"
	description := "Create a new account"
	if action == "login" {
		title = "Sign In - Inkwell"
		description = "Login to your account"
	}
	h.render(w, r, "pages/choose.html", title, http.StatusOK, PageData{
		Description:   description,
		Action:        action,
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.googleUnavailable(w)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	state := uuid.NewString()
	sess.Set(oauthStateKey, state)
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.googleUnavailable(w)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login-failure", http.StatusSeeOther)
		return
	}

	query := r.URL.Query()
	expectedState := sess.Get(oauthStateKey)
	sess.Delete(oauthStateKey)
	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("google login denied", slog.String("error", errParam))
		h.observeAuth("google", "rejected")
		http.Redirect(w, r, "/login-failure", http.StatusSeeOther)
		return
	}
	state := query.Get("state")
	code := query.Get("code")
	if code == "" || state == "" || expectedState == "" || state != expectedState {
		h.logger.Warn("google callback state mismatch")
		h.observeAuth("google", "rejected")
		http.Redirect(w, r, "/login-failure", http.StatusSeeOther)
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange", slog.Any("error", err))
		h.observeAuth("google", "error")
		http.Redirect(w, r, "/login-failure", http.StatusSeeOther)
		return
	}

	user, err := h.service.ResolveGoogle(r.Context(), profile)
	if err != nil {
		h.logger.Error("resolve google profile", slog.Any("error", err))
		h.observeAuth("google", "error")
		http.Redirect(w, r, "/login-failure", http.StatusSeeOther)
		return
	}

	h.observeAuth("google", "success")
	h.establishSession(r, user)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) showLoginFailure(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login-failure.html", "Sign In Failed - Inkwell", http.StatusOK, PageData{
		Description:   "Something went wrong during sign in",
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Warn("remove session record", slog.Any("error", err))
	}
	if err := h.sessionManager.Revoke(r.Context(), sess); err != nil && !errors.Is(err, shared.ErrSessionAbsent) {
		h.logger.Error("destroy session", slog.Any("error", err))
		http.Error(w, "Error logging out", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// establishSession binds the session to the user and mirrors it into the
// audit table. Only the user ID is serialized. The session ID is rotated
// first, invalidating whatever token the client held before authenticating.
func (h *Handler) establishSession(r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		h.logger.Warn("renew session id", slog.Any("error", err))
	}
	sess.SetUser(user.ID)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}

func (h *Handler) validateRegister(form registerForm) []FormError {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FormError{{Msg: "Please fill in all fields"}}
	}
	var out []FormError
	seenRequired := false
	for _, fieldErr := range verrs {
		switch fieldErr.Tag() {
		case "required":
			if !seenRequired {
				out = append(out, FormError{Msg: "Please fill in all fields"})
				seenRequired = true
			}
		case "email":
			out = append(out, FormError{Msg: "Please enter a valid email address"})
		case "min":
			out = append(out, FormError{Msg: "Password must be at least 6 characters"})
		case "eqfield":
			out = append(out, FormError{Msg: "Passwords do not match"})
		}
	}
	return out
}

// HasGoogle reports whether Google sign-in is actually available, which can
// differ from configuration when OIDC discovery failed at startup.
func (h *Handler) HasGoogle() bool {
	return h.service.HasGoogle()
}

func (h *Handler) googleUnavailable(w http.ResponseWriter) {
	h.observeAuth("google", "unavailable")
	http.Error(w, "Google sign-in is not configured for this deployment.", http.StatusServiceUnavailable)
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, errs []FormError, formData map[string]string, status int) {
	h.render(w, r, "pages/register.html", "Register - Inkwell", status, PageData{
		Description:   "Create a new account",
		Errors:        errs,
		FormData:      formData,
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, errs []FormError, formData map[string]string, status int) {
	h.render(w, r, "pages/login.html", "Login - Inkwell", status, PageData{
		Description:   "Login to your account",
		Errors:        errs,
		FormData:      formData,
		HasGoogleAuth: h.service.HasGoogle(),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, status int, data PageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render auth page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) observeAuth(method, outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveAuthAttempt(method, outcome)
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// ShowRegisterForTest exposes the GET handler for tests.
func (h *Handler) ShowRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.showRegister(w, r)
}

// HandleRegisterForTest exposes the POST handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}

// HandleGoogleStartForTest exposes the redirect handler for tests.
func (h *Handler) HandleGoogleStartForTest(w http.ResponseWriter, r *http.Request) {
	h.handleGoogleStart(w, r)
}

// HandleGoogleCallbackForTest exposes the callback handler for tests.
func (h *Handler) HandleGoogleCallbackForTest(w http.ResponseWriter, r *http.Request) {
	h.handleGoogleCallback(w, r)
}

// HandleLogoutForTest exposes the logout handler for tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
