package request

// Submit holds the request body for handing in a deliverable.
type Submit struct {
	DeliverableURL string `json:"deliverable_url" validate:"required,url"`
	Notes          string `json:"notes" validate:"omitempty,max=5000"`
}

// Review holds the request body for approving or rejecting a submission.
type Review struct {
	Note string `json:"note" validate:"omitempty,max=5000"`
}
