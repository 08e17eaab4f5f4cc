package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/identity"
	_ "github.com/gatekeep/gatekeep/testing"
)

func TestListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/admin/users", r.URL.Path)
		require.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{
				{
					"id":            "id-1",
					"email":         "a@test.local",
					"user_metadata": map[string]string{"first_name": "Ada", "last_name": "Lovelace"},
					"created_at":    "2026-01-02T03:04:05Z",
				},
			},
		})
	}))
	defer srv.Close()

	client := identity.NewClient(srv.URL, "service-key", time.Second)
	list, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "id-1", list[0].ID)
	require.Equal(t, "Ada", list[0].UserMetadata.FirstName)
	require.Equal(t, 2026, list[0].CreatedAt.Year())
}

func TestCreateUserSendsMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/users", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var params identity.CreateUserParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "new@test.local", params.Email)
		require.True(t, params.EmailConfirm)
		require.Equal(t, "Grace", params.UserMetadata.FirstName)

		_ = json.NewEncoder(w).Encode(identity.User{
			ID:           "id-new",
			Email:        params.Email,
			UserMetadata: params.UserMetadata,
		})
	}))
	defer srv.Close()

	client := identity.NewClient(srv.URL, "service-key", time.Second)
	user, err := client.CreateUser(context.Background(), identity.CreateUserParams{
		Email:        "new@test.local",
		EmailConfirm: true,
		UserMetadata: identity.Metadata{FirstName: "Grace", LastName: "Hopper"},
	})
	require.NoError(t, err)
	require.Equal(t, "id-new", user.ID)
}

func TestCreateUserAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"msg":"email already registered"}`))
	}))
	defer srv.Close()

	client := identity.NewClient(srv.URL, "service-key", time.Second)
	_, err := client.CreateUser(context.Background(), identity.CreateUserParams{Email: "dup@test.local"})
	require.Error(t, err)

	var apiErr *identity.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, "email already registered", apiErr.Message)
}

func TestListUsersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := identity.NewClient(srv.URL, "service-key", time.Second)
	_, err := client.ListUsers(context.Background())

	var apiErr *identity.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
}
