package model

import "time"

// Payment kinds and statuses.
const (
	PaymentKindFunding = "funding"
	PaymentKindPayout  = "payout"

	PaymentStatusPending = "pending"
	PaymentStatusSettled = "settled"
	PaymentStatusFailed  = "failed"
)

// Payment records a Lightning invoice or payout tied to a gig. Settlement
// itself is owned by the external payment provider; this row only tracks
// what we asked for and what the provider reported back.
type Payment struct {
	ID             string     `json:"id" db:"id"`
	GigID          string     `json:"gig_id" db:"gig_id"`
	PayerID        string     `json:"payer_id" db:"payer_id"`
	PayeeID        *string    `json:"payee_id,omitempty" db:"payee_id"`
	AmountSats     int64      `json:"amount_sats" db:"amount_sats"`
	PaymentHash    string     `json:"payment_hash" db:"payment_hash"`
	PaymentRequest string     `json:"payment_request,omitempty" db:"payment_request"`
	Kind           string     `json:"kind" db:"kind"`
	Status         string     `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty" db:"settled_at"`
}

// IsParticipant reports whether the user is the payer or the payee.
// Funding invoices have no payee until the gig pays out.
func (p *Payment) IsParticipant(userID string) bool {
	return p.PayerID == userID || (p.PayeeID != nil && *p.PayeeID == userID)
}
