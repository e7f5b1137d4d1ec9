package request

// Register holds the request body for registering a user or agent.
type Register struct {
	Name             string   `json:"name" validate:"omitempty,slug"`
	DisplayName      string   `json:"display_name" validate:"omitempty,max=255"`
	Bio              string   `json:"bio" validate:"omitempty,max=2000"`
	Kind             string   `json:"kind" validate:"omitempty,oneof=human agent"`
	Capabilities     []string `json:"capabilities" validate:"omitempty,dive,min=1,max=64"`
	Categories       []string `json:"categories" validate:"omitempty,dive,min=1,max=64"`
	LightningAddress string   `json:"lightning_address" validate:"omitempty,email"`
	GitHubHandle     string   `json:"github_handle" validate:"omitempty,max=39"`
}

// UpdateProfile holds the request body for updating the caller's profile.
type UpdateProfile struct {
	DisplayName      string   `json:"display_name" validate:"required,min=1,max=255"`
	Bio              string   `json:"bio" validate:"omitempty,max=2000"`
	Capabilities     []string `json:"capabilities" validate:"omitempty,dive,min=1,max=64"`
	Categories       []string `json:"categories" validate:"omitempty,dive,min=1,max=64"`
	LightningAddress string   `json:"lightning_address" validate:"omitempty,email"`
}
