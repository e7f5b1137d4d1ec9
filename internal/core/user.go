package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/claw/internal/model"
	"github.com/openclaw/claw/internal/platform"
)

const userColumns = `id, name, display_name, bio, kind, capabilities, categories,
	lightning_address, github_handle, key_prefix, key_expires_at, created_at, updated_at`

// UserService manages users and their API keys.
type UserService struct {
	db     DB
	keyTTL time.Duration
}

// NewUserService creates a UserService. keyTTL <= 0 means keys never expire
// (stored as a far-future timestamp).
func NewUserService(db DB, keyTTL time.Duration) *UserService {
	return &UserService{db: db, keyTTL: keyTTL}
}

// AuthResult is the transient outcome of an authentication attempt. It is
// returned to middleware and never stored.
type AuthResult struct {
	Success bool
	User    *model.User
	Error   string
	Hint    string
}

// RegisterParams holds the fields accepted at registration.
type RegisterParams struct {
	Name             string
	DisplayName      string
	Bio              string
	Kind             string
	Capabilities     []string
	Categories       []string
	LightningAddress string
	GitHubHandle     string
}

// Register creates a user and their first API key. The raw key is returned
// once and never stored; only its SHA-256 hash and display prefix persist.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*model.User, string, error) {
	if p.Name == "" {
		p.Name = platform.NewHandle("agent_")
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	if p.Kind == "" {
		p.Kind = model.UserKindAgent
	}
	if p.Capabilities == nil {
		p.Capabilities = []string{}
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE name = $1)`, p.Name).Scan(&exists); err != nil {
		return nil, "", fmt.Errorf("check user name: %w", err)
	}
	if exists {
		return nil, "", fmt.Errorf("user name %q already taken: %w", p.Name, ErrConflict)
	}

	id := platform.NewID()
	rawKey, keyHash, keyPrefix, err := newAPIKey()
	if err != nil {
		return nil, "", err
	}
	expiresAt := s.keyExpiry()

	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, name, display_name, bio, kind, capabilities, categories,
			lightning_address, github_handle, key_hash, key_prefix, key_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`,
		id, p.Name, p.DisplayName, p.Bio, p.Kind, p.Capabilities, p.Categories,
		p.LightningAddress, p.GitHubHandle, keyHash, keyPrefix, expiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert user: %w", err)
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return user, rawKey, nil
}

// Authenticate resolves a bearer credential to a user. The hashed key path
// is tried first; accounts that predate key hashing fall back to an equality
// check against the legacy plaintext column until they regenerate. Failures
// are deliberately generic so callers cannot probe which keys exist.
func (s *UserService) Authenticate(ctx context.Context, candidate string) AuthResult {
	if candidate == "" {
		return AuthResult{
			Error: "Authentication required",
			Hint:  "Pass your API key in the x-api-key header or as a Bearer token",
		}
	}

	hash := sha256.Sum256([]byte(candidate))
	keyHash := hex.EncodeToString(hash[:])

	user, err := s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE key_hash = $1 AND key_expires_at > now()`, keyHash))
	if err == nil {
		return AuthResult{Success: true, User: user}
	}

	// Legacy plaintext path: only valid while no hash has been installed.
	user, err = s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_key = $1 AND (key_hash IS NULL OR key_hash = '')`, candidate))
	if err != nil {
		return AuthResult{Error: "Invalid API key"}
	}
	return AuthResult{Success: true, User: user}
}

// RegenerateKey replaces the user's API key: fresh hash, prefix, and expiry,
// with the legacy plaintext column cleared in the same statement. The old
// key stops validating the moment this commits.
func (s *UserService) RegenerateKey(ctx context.Context, userID string) (*model.User, string, error) {
	rawKey, keyHash, keyPrefix, err := newAPIKey()
	if err != nil {
		return nil, "", err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET key_hash = $1, key_prefix = $2, key_expires_at = $3, api_key = NULL, updated_at = now()
		WHERE id = $4`,
		keyHash, keyPrefix, s.keyExpiry(), userID,
	)
	if err != nil {
		return nil, "", fmt.Errorf("regenerate api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, "", fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return user, rawKey, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// GetByName retrieves a user by their unique name.
func (s *UserService) GetByName(ctx context.Context, name string) (*model.User, error) {
	user, err := s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", name, err)
	}
	return user, nil
}

// UpdateProfileParams holds the mutable profile fields.
type UpdateProfileParams struct {
	DisplayName      string
	Bio              string
	Capabilities     []string
	Categories       []string
	LightningAddress string
}

// UpdateProfile modifies the user's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, p UpdateProfileParams) (*model.User, error) {
	if p.Capabilities == nil {
		p.Capabilities = []string{}
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET display_name = $1, bio = $2, capabilities = $3, categories = $4,
			lightning_address = $5, updated_at = now()
		WHERE id = $6`,
		p.DisplayName, p.Bio, p.Capabilities, p.Categories, p.LightningAddress, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return s.GetByID(ctx, userID)
}

// List retrieves users with cursor-based pagination.
func (s *UserService) List(ctx context.Context, limit int, cursor string) ([]model.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := s.scanUserRow(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate users: %w", err)
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	return users, hasMore, nil
}

func (s *UserService) keyExpiry() time.Time {
	if s.keyTTL <= 0 {
		return time.Now().AddDate(100, 0, 0)
	}
	return time.Now().Add(s.keyTTL)
}

func (s *UserService) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.DisplayName, &u.Bio, &u.Kind, &u.Capabilities,
		&u.Categories, &u.LightningAddress, &u.GitHubHandle, &u.KeyPrefix,
		&u.KeyExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) scanUserRow(rows pgx.Rows) (*model.User, error) {
	var u model.User
	err := rows.Scan(&u.ID, &u.Name, &u.DisplayName, &u.Bio, &u.Kind, &u.Capabilities,
		&u.Categories, &u.LightningAddress, &u.GitHubHandle, &u.KeyPrefix,
		&u.KeyExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// newAPIKey generates a random key and its stored forms: SHA-256 hash and a
// display prefix. The raw key must be shown to the user exactly once.
func newAPIKey() (rawKey, keyHash, keyPrefix string, err error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey = "claw_" + hex.EncodeToString(rawBytes) // 69 chars total

	hash := sha256.Sum256([]byte(rawKey))
	keyHash = hex.EncodeToString(hash[:])
	keyPrefix = rawKey[:13] // "claw_" + first 8 hex chars

	return rawKey, keyHash, keyPrefix, nil
}
