package roles

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatekeep/gatekeep/internal/permissions"
	"github.com/gatekeep/gatekeep/internal/shared"
	"github.com/gatekeep/gatekeep/internal/view"
)

// PermissionLister supplies the assignable permission catalog for the
// role form.
type PermissionLister interface {
	List(ctx context.Context) ([]permissions.Permission, error)
}

// Handler manages role management endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	permissions PermissionLister
	templates   *view.Engine
	csrf        *shared.CSRFManager
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, permissions PermissionLister, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, permissions: permissions, templates: templates, csrf: csrf}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}", h.update)
	r.Post("/{id}/delete", h.delete)
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Checked": map[int64]bool{}}, http.StatusInternalServerError)
		return
	}
	allPerms, err := h.permissions.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions for role form", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Checked": map[int64]bool{}}, http.StatusInternalServerError)
		return
	}

	checked := map[int64]bool{}
	data := map[string]any{
		"Roles":          roles,
		"AllPermissions": allPerms,
		"Checked":        checked,
		"Errors":         formErrors{},
	}
	if editParam := r.URL.Query().Get("edit"); editParam != "" {
		if id, err := strconv.ParseInt(editParam, 10, 64); err == nil {
			if role, err := h.service.Get(r.Context(), id); err == nil {
				data["Editing"] = role
				for _, p := range role.Permissions {
					checked[p.ID] = true
				}
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
	permIDs, err := parsePermissionIDs(r.PostForm["permission_ids"])
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), r.PostFormValue("name"), r.PostFormValue("description"), permIDs); err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/dashboard/roles", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/roles", "success", "Role created")
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
	permIDs, err := parsePermissionIDs(r.PostForm["permission_ids"])
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	// Unchecked boxes simply do not post, so the form always states the
	// full desired grant set.
	if _, err := h.service.Update(r.Context(), id, r.PostFormValue("name"), r.PostFormValue("description"), &permIDs); err != nil {
		h.logger.Error("update role", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/dashboard/roles", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/roles", "success", "Role updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete role", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/dashboard/roles", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/roles", "success", "Role deleted")
}

func parsePermissionIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/dashboard/roles.html", viewData); err != nil {
		h.logger.Error("render roles", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
