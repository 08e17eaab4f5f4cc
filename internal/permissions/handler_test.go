package permissions_test

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
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/permissions"
	"github.com/gatekeep/gatekeep/internal/shared"
	"github.com/gatekeep/gatekeep/internal/view"
)

func newPermissionsRouter(t *testing.T, repo permissions.RepositoryPort) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := permissions.NewHandler(logger, permissions.NewService(repo), templates, csrf)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sm.Load(req.Context(), req)
			require.NoError(t, err)
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/dashboard/permissions", handler.MountRoutes)
	return r, sm
}

func TestPermissionsListRendersTable(t *testing.T) {
	repo := newFakeRepo()
	_, err := repo.Create(context.Background(), "users.read", "View directory users")
	require.NoError(t, err)
	router, _ := newPermissionsRouter(t, repo)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/dashboard/permissions", nil))

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "users.read")
}

func TestPermissionsCreateRedirects(t *testing.T) {
	repo := newFakeRepo()
	router, _ := newPermissionsRouter(t, repo)

	form := url.Values{}
	form.Set("name", "roles.write")
	form.Set("description", "Manage roles")

	req := httptest.NewRequest(http.MethodPost, "/dashboard/permissions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/dashboard/permissions", res.Header().Get("Location"))
	require.Len(t, repo.items, 1)
}

func TestPermissionsDeleteMissingShowsError(t *testing.T) {
	router, _ := newPermissionsRouter(t, newFakeRepo())

	req := httptest.NewRequest(http.MethodPost, "/dashboard/permissions/99/delete", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	// Failures still redirect; the message travels as a flash.
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/dashboard/permissions", res.Header().Get("Location"))
}

func TestPermissionsEditQueryPopulatesForm(t *testing.T) {
	repo := newFakeRepo()
	created, err := repo.Create(context.Background(), "users.read", "View directory users")
	require.NoError(t, err)
	router, _ := newPermissionsRouter(t, repo)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/dashboard/permissions?edit=1", nil))

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `value="`+created.Name+`"`)
	require.Contains(t, res.Body.String(), "Save Changes")
}
