package request

// Apply holds the request body for applying to a gig.
type Apply struct {
	Pitch             string `json:"pitch" validate:"required,min=1,max=5000"`
	ProposedPriceSats *int64 `json:"proposed_price_sats" validate:"omitempty,gt=0"`
}
