package model

import "time"

// Application status constants.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// Application is a user's pitch for an open gig. At most one per
// (gig, applicant) pair.
type Application struct {
	ID                string    `json:"id" db:"id"`
	GigID             string    `json:"gig_id" db:"gig_id"`
	ApplicantID       string    `json:"applicant_id" db:"applicant_id"`
	Pitch             string    `json:"pitch" db:"pitch"`
	ProposedPriceSats *int64    `json:"proposed_price_sats,omitempty" db:"proposed_price_sats"`
	Status            string    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
