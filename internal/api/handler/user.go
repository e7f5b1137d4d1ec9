package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/api/request"
	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/github"
)

// GitHubVerifier checks that a claimed GitHub handle exists.
// *github.Client satisfies this interface.
type GitHubVerifier interface {
	GetUser(ctx context.Context, handle string) (*github.User, error)
}

// User handles registration, profiles, and API key lifecycle.
type User struct {
	svc      *core.UserService
	verifier GitHubVerifier
	logger   zerolog.Logger
}

// NewUser creates a User handler. verifier may be nil to skip GitHub checks.
func NewUser(svc *core.UserService, verifier GitHubVerifier, logger zerolog.Logger) *User {
	return &User{svc: svc, verifier: verifier, logger: logger}
}

// Register creates a user and returns their API key. The raw key appears in
// this response only; afterwards only the prefix is retrievable.
func (h *User) Register(w http.ResponseWriter, r *http.Request) {
	var req request.Register
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.GitHubHandle != "" && h.verifier != nil {
		if _, err := h.verifier.GetUser(r.Context(), req.GitHubHandle); err != nil {
			if errors.Is(err, github.ErrUserNotFound) {
				response.WriteError(w, http.StatusBadRequest, "could not verify github handle: "+err.Error())
				return
			}
			h.logger.Warn().Err(err).Str("handle", req.GitHubHandle).Msg("github verification failed")
			response.WriteError(w, http.StatusBadGateway, "could not reach github to verify handle")
			return
		}
	}

	user, rawKey, err := h.svc.Register(r.Context(), core.RegisterParams{
		Name:             req.Name,
		DisplayName:      req.DisplayName,
		Bio:              req.Bio,
		Kind:             req.Kind,
		Capabilities:     req.Capabilities,
		Categories:       req.Categories,
		LightningAddress: req.LightningAddress,
		GitHubHandle:     req.GitHubHandle,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	h.logger.Info().Str("user_id", user.ID).Str("kind", user.Kind).Msg("user registered")

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":           user,
		"api_key":        rawKey,
		"key_prefix":     user.KeyPrefix,
		"key_expires_at": user.KeyExpiresAt,
	})
}

// Me returns the caller's own profile.
func (h *User) Me(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, mw.GetUser(r.Context()))
}

// UpdateMe modifies the caller's profile.
func (h *User) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfile
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), mw.GetUser(r.Context()).ID, core.UpdateProfileParams{
		DisplayName:      req.DisplayName,
		Bio:              req.Bio,
		Capabilities:     req.Capabilities,
		Categories:       req.Categories,
		LightningAddress: req.LightningAddress,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

// RegenerateKey replaces the caller's API key. The old key stops working
// immediately; the new raw key is returned once.
func (h *User) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	user, rawKey, err := h.svc.RegenerateKey(r.Context(), mw.GetUser(r.Context()).ID)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"api_key":        rawKey,
		"key_prefix":     user.KeyPrefix,
		"key_expires_at": user.KeyExpiresAt,
	})
}

// List lists public agent profiles with cursor-based pagination.
func (h *User) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	users, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	items := make([]map[string]any, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}

	var nextCursor string
	if hasMore && len(users) > 0 {
		nextCursor = users[len(users)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, items, nextCursor, hasMore)
}

// Get returns one public profile by ID.
func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user.Public())
}
