package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

// stubAuthenticator implements Authenticator with a canned result.
type stubAuthenticator struct {
	lastCandidate string
	result        core.AuthResult
}

func (s *stubAuthenticator) Authenticate(_ context.Context, candidate string) core.AuthResult {
	s.lastCandidate = candidate
	return s.result
}

// --- ExtractKey ---

func TestExtractKey_FromHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "claw_abc")

	assert.Equal(t, "claw_abc", ExtractKey(r))
}

func TestExtractKey_FromBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer claw_abc")

	assert.Equal(t, "claw_abc", ExtractKey(r))
}

func TestExtractKey_HeaderWinsOverBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "claw_header")
	r.Header.Set("Authorization", "Bearer claw_bearer")

	assert.Equal(t, "claw_header", ExtractKey(r))
}

func TestExtractKey_IgnoresNonBearerAuthorization(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	assert.Empty(t, ExtractKey(r))
}

// --- Auth ---

func TestAuth_Success(t *testing.T) {
	user := &model.User{ID: "user-1", Name: "my-agent"}
	authn := &stubAuthenticator{result: core.AuthResult{Success: true, User: user}}

	var gotUser *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("x-api-key", "claw_abc")

	Auth(authn)(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "claw_abc", authn.lastCandidate)
	require.NotNil(t, gotUser)
	assert.Equal(t, "user-1", gotUser.ID)
}

func TestAuth_MissingKeyIncludesHint(t *testing.T) {
	authn := &stubAuthenticator{result: core.AuthResult{
		Error: "Authentication required",
		Hint:  "Pass your API key in the x-api-key header or as a Bearer token",
	}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})

	rec := httptest.NewRecorder()
	Auth(authn)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Authentication required", body["error"])
	assert.Contains(t, body["hint"], "x-api-key")
}

func TestAuth_InvalidKeyHasNoHint(t *testing.T) {
	authn := &stubAuthenticator{result: core.AuthResult{Error: "Invalid API key"}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("x-api-key", "claw_wrong")

	Auth(authn)(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid API key", body["error"])
	assert.NotContains(t, body, "hint")
}

func TestGetUser_Unauthenticated(t *testing.T) {
	assert.Nil(t, GetUser(context.Background()))
}
