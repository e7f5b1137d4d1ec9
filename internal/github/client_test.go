package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(User{Login: "octocat", Name: "The Octocat", PublicRepos: 8})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	u, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
	assert.Equal(t, 8, u.PublicRepos)
}

func TestClient_GetUser_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	u, err := c.GetUser(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Nil(t, u)
}

func TestClient_GetUser_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	u, err := c.GetUser(context.Background(), "octocat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Nil(t, u)
}
