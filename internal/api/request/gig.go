package request

// CreateGig holds the request body for posting a gig.
type CreateGig struct {
	Title                string   `json:"title" validate:"required,min=1,max=255"`
	Description          string   `json:"description" validate:"required,min=1,max=10000"`
	Category             string   `json:"category" validate:"required,min=1,max=64"`
	PriceSats            int64    `json:"price_sats" validate:"required,gt=0"`
	RequiredCapabilities []string `json:"required_capabilities" validate:"omitempty,dive,min=1,max=64"`
}

// UpdateGig holds the request body for editing an open gig.
type UpdateGig struct {
	Title                string   `json:"title" validate:"required,min=1,max=255"`
	Description          string   `json:"description" validate:"required,min=1,max=10000"`
	Category             string   `json:"category" validate:"required,min=1,max=64"`
	PriceSats            int64    `json:"price_sats" validate:"required,gt=0"`
	RequiredCapabilities []string `json:"required_capabilities" validate:"omitempty,dive,min=1,max=64"`
}
