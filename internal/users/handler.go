package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatekeep/gatekeep/internal/roles"
	"github.com/gatekeep/gatekeep/internal/shared"
	"github.com/gatekeep/gatekeep/internal/view"
)

// RoleLister supplies the assignable roles for the user form.
type RoleLister interface {
	List(ctx context.Context) ([]roles.Role, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     RoleLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	validate  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roleLister RoleLister, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     roleLister,
		templates: templates,
		csrf:      csrf,
		validate:  validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

type createUserForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	RoleID    string `validate:"required"`
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, createUserForm{}, formErrors{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := createUserForm{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		RoleID:    r.PostFormValue("role_id"),
	}
	// Reject bad input before the provider is contacted.
	if err := h.validate.Struct(form); err != nil {
		h.renderList(w, r, form, validationErrors(err), http.StatusUnprocessableEntity)
		return
	}
	roleID, err := strconv.ParseInt(form.RoleID, 10, 64)
	if err != nil {
		h.renderList(w, r, form, formErrors{"RoleID": "Select a valid role"}, http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.service.Create(r.Context(), CreateParams{
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		RoleID:    roleID,
	}); err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		if errors.Is(err, ErrRoleAssignment) {
			// The identity exists upstream; only the membership is missing.
			h.redirectWithFlash(w, r, "/dashboard/users", "error", "The user was created, but the role could not be assigned.")
			return
		}
		h.redirectWithFlash(w, r, "/dashboard/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard/users", "success", "User created")
}

func validationErrors(err error) formErrors {
	out := formErrors{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out["general"] = "Please review the submitted values."
		return out
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "FirstName":
			out["FirstName"] = "First name is required"
		case "LastName":
			out["LastName"] = "Last name is required"
		case "Email":
			if fe.Tag() == "email" {
				out["Email"] = "Enter a valid email address"
			} else {
				out["Email"] = "Email is required"
			}
		case "RoleID":
			out["RoleID"] = "Select a role"
		}
	}
	return out
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, form createUserForm, errs formErrors, status int) {
	data := map[string]any{"Form": form, "Errors": errs}

	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
		status = http.StatusBadGateway
	} else {
		data["Users"] = users
	}
	if roleList, err := h.roles.List(r.Context()); err != nil {
		h.logger.Error("list roles for user form", slog.Any("error", err))
	} else {
		data["Roles"] = roleList
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Users", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/dashboard/users.html", viewData); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
