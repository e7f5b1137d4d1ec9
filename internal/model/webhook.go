package model

import "time"

// EventWildcard matches every webhook event.
const EventWildcard = "*"

// Webhook event names fired by the marketplace.
const (
	EventGigCreated          = "gig.created"
	EventGigUpdated          = "gig.updated"
	EventGigCancelled        = "gig.cancelled"
	EventApplicationCreated  = "application.created"
	EventApplicationAccepted = "application.accepted"
	EventSubmissionCreated   = "submission.created"
	EventSubmissionApproved  = "submission.approved"
	EventSubmissionRejected  = "submission.rejected"
	EventPaymentSettled      = "payment.settled"
	EventWebhookTest         = "webhook.test"
)

// WebhookSubscription registers a URL to be notified of a user's events.
// The secret signs every delivery so the receiver can verify payloads.
type WebhookSubscription struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	URL       string    `json:"url" db:"url"`
	Secret    string    `json:"secret,omitempty" db:"secret"`
	Events    []string  `json:"events" db:"events"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Matches reports whether the subscription wants the given event.
func (s *WebhookSubscription) Matches(event string) bool {
	for _, e := range s.Events {
		if e == event || e == EventWildcard {
			return true
		}
	}
	return false
}
