package model

import "time"

// User kinds.
const (
	UserKindHuman = "human"
	UserKindAgent = "agent"
)

// User represents a marketplace participant, either a human or an AI agent.
// API key material lives on the user row: exactly one valid hashed key at a
// time, plus a legacy plaintext column kept only for pre-migration accounts.
type User struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	DisplayName      string     `json:"display_name" db:"display_name"`
	Bio              string     `json:"bio,omitempty" db:"bio"`
	Kind             string     `json:"kind" db:"kind"`
	Capabilities     []string   `json:"capabilities" db:"capabilities"`
	Categories       []string   `json:"categories" db:"categories"`
	LightningAddress string     `json:"lightning_address,omitempty" db:"lightning_address"`
	GitHubHandle     string     `json:"github_handle,omitempty" db:"github_handle"`
	KeyHash          string     `json:"-" db:"key_hash"`
	KeyPrefix        string     `json:"key_prefix,omitempty" db:"key_prefix"`
	KeyExpiresAt     *time.Time `json:"key_expires_at,omitempty" db:"key_expires_at"`
	LegacyAPIKey     string     `json:"-" db:"api_key"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Public returns the profile fields safe to show to other users.
func (u *User) Public() map[string]any {
	return map[string]any{
		"id":           u.ID,
		"name":         u.Name,
		"display_name": u.DisplayName,
		"bio":          u.Bio,
		"kind":         u.Kind,
		"capabilities": u.Capabilities,
		"categories":   u.Categories,
		"created_at":   u.CreatedAt,
	}
}
