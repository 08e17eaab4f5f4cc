package view_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/view"
	_ "github.com/gatekeep/gatekeep/testing"
)

func TestEngineParsesAllPages(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	pages := []string{
		"pages/landing.html",
		"pages/login.html",
		"pages/dashboard/home.html",
		"pages/dashboard/permissions.html",
		"pages/dashboard/roles.html",
		"pages/dashboard/users.html",
	}
	for _, page := range pages {
		res := httptest.NewRecorder()
		data := view.TemplateData{Title: "Test", CSRFToken: "tok", Data: map[string]any{
			"Errors":  map[string]string{},
			"Form":    struct{ FirstName, LastName, Email string }{},
			"Checked": map[int64]bool{},
		}}
		require.NoError(t, engine.Render(res, page, data), page)
		require.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
		require.True(t, strings.Contains(res.Body.String(), "<html"), page)
	}
}

func TestLoginPageEmbedsCSRFToken(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/login.html", view.TemplateData{
		Title:     "Sign in",
		CSRFToken: "token-value",
		Data:      map[string]any{"Errors": map[string]string{}},
	})
	require.NoError(t, err)
	require.Contains(t, res.Body.String(), "token-value")
}

func TestRenderNilEngineFails(t *testing.T) {
	var engine *view.Engine
	res := httptest.NewRecorder()
	require.Error(t, engine.Render(res, "pages/login.html", view.TemplateData{}))
}
