package core

import "time"

type Services struct {
	User        *UserService
	Gig         *GigService
	Application *ApplicationService
	Submission  *SubmissionService
	Webhook     *WebhookService
	Payment     *PaymentService
}

func NewServices(db DB, provider LightningProvider, keyTTL time.Duration) *Services {
	gigs := NewGigService(db)
	return &Services{
		User:        NewUserService(db, keyTTL),
		Gig:         gigs,
		Application: NewApplicationService(db, gigs),
		Submission:  NewSubmissionService(db, gigs),
		Webhook:     NewWebhookService(db),
		Payment:     NewPaymentService(db, provider),
	}
}
