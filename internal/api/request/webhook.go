package request

// CreateWebhook holds the request body for registering a webhook
// subscription. An empty events list subscribes to everything.
type CreateWebhook struct {
	URL    string   `json:"url" validate:"required,url"`
	Secret string   `json:"secret" validate:"omitempty,min=16,max=128"`
	Events []string `json:"events" validate:"omitempty,dive,min=1,max=64"`
}
