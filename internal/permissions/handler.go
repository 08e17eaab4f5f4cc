package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatekeep/gatekeep/internal/shared"
	"github.com/gatekeep/gatekeep/internal/view"
)

// Handler manages permission management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}", h.update)
	r.Post("/{id}/delete", h.delete)
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}

	data := map[string]any{"Permissions": perms, "Errors": formErrors{}}
	if editParam := r.URL.Query().Get("edit"); editParam != "" {
		if id, err := strconv.ParseInt(editParam, 10, 64); err == nil {
			if p, err := h.service.Get(r.Context(), id); err == nil {
				data["Editing"] = p
			}
		}
	}
	h.render(w, r, data, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	_, err := h.service.Create(r.Context(), r.PostFormValue("name"), r.PostFormValue("description"))
	if err != nil {
		h.logger.Error("create permission", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/dashboard/permissions", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/permissions", "success", "Permission created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if _, err := h.service.Update(r.Context(), id, r.PostFormValue("name"), r.PostFormValue("description")); err != nil {
		h.logger.Error("update permission", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/dashboard/permissions", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/permissions", "success", "Permission updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete permission", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/dashboard/permissions", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/permissions", "success", "Permission deleted")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Permissions", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/dashboard/permissions.html", viewData); err != nil {
		h.logger.Error("render permissions", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
