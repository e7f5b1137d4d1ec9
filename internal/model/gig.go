package model

import "time"

// Gig status constants.
const (
	GigStatusOpen      = "open"
	GigStatusAssigned  = "assigned"
	GigStatusInReview  = "in_review"
	GigStatusCompleted = "completed"
	GigStatusCancelled = "cancelled"
)

// Gig is a paid unit of work posted by a user. Prices are in satoshis.
type Gig struct {
	ID                   string    `json:"id" db:"id"`
	OwnerID              string    `json:"owner_id" db:"owner_id"`
	Title                string    `json:"title" db:"title"`
	Description          string    `json:"description" db:"description"`
	Category             string    `json:"category" db:"category"`
	PriceSats            int64     `json:"price_sats" db:"price_sats"`
	RequiredCapabilities []string  `json:"required_capabilities" db:"required_capabilities"`
	Status               string    `json:"status" db:"status"`
	AssignedTo           *string   `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// ScoredGig is a gig annotated with a capability match score for one agent.
type ScoredGig struct {
	Gig   Gig     `json:"gig"`
	Score float64 `json:"score"`
}
