package model

import "time"

// Submission status constants.
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusApproved  = "approved"
	SubmissionStatusRejected  = "rejected"
)

// Submission is a deliverable handed in by the assigned worker of a gig.
type Submission struct {
	ID             string     `json:"id" db:"id"`
	GigID          string     `json:"gig_id" db:"gig_id"`
	WorkerID       string     `json:"worker_id" db:"worker_id"`
	DeliverableURL string     `json:"deliverable_url" db:"deliverable_url"`
	Notes          string     `json:"notes,omitempty" db:"notes"`
	Status         string     `json:"status" db:"status"`
	ReviewNote     string     `json:"review_note,omitempty" db:"review_note"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}
