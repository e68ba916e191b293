package notes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/shared"
	"github.com/inkwell-app/inkwell/internal/view"
)

const notesPerPage = 20

// Handler wires HTTP endpoints for the notes area. All routes require an
// authenticated user.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers the protected notes routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/dashboard", h.showDashboard)
		r.Get("/notes/new", h.showNewForm)
		r.Post("/notes", h.handleCreate)
		r.Get("/notes/{id}/edit", h.showEditForm)
		r.Post("/notes/{id}", h.handleUpdate)
		r.Post("/notes/{id}/delete", h.handleDelete)
	})
}

type noteForm struct {
	Title string `validate:"required,max=200"`
	Body  string `validate:"max=100000"`
}

type formPageData struct {
	Note   Note
	Errors []auth.FormError
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	items, pagination, err := h.service.List(r.Context(), user.ID, page, notesPerPage)
	if err != nil {
		h.logger.Error("list notes", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard.html", "Dashboard - Inkwell", map[string]any{
		"Notes":      items,
		"Pagination": pagination,
	})
}

func (h *Handler) showNewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/note_form.html", "New Note - Inkwell", formPageData{})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := noteForm{Title: r.PostFormValue("title"), Body: r.PostFormValue("body")}
	if err := h.validator.Struct(form); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.render(w, r, "pages/note_form.html", "New Note - Inkwell", formPageData{
			Note:   Note{Title: form.Title, Body: form.Body},
			Errors: []auth.FormError{{Msg: "A title is required"}},
		})
		return
	}
	if _, err := h.service.Create(r.Context(), user.ID, form.Title, form.Body); err != nil {
		h.logger.Error("create note", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	note, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load note", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/note_form.html", "Edit Note - Inkwell", formPageData{Note: *note})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	form := noteForm{Title: r.PostFormValue("title"), Body: r.PostFormValue("body")}
	if err := h.validator.Struct(form); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.render(w, r, "pages/note_form.html", "Edit Note - Inkwell", formPageData{
			Note:   Note{ID: id, Title: form.Title, Body: form.Body},
			Errors: []auth.FormError{{Msg: "A title is required"}},
		})
		return
	}
	if err := h.service.Update(r.Context(), id, user.ID, form.Title, form.Body); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("update note", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete note", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
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
		User:        auth.UserFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render notes page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
