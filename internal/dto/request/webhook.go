package request

type RegisterWebhookRequest struct {
	AgentName         string   `json:"agent_name" validate:"required,min=2,max=100"`
	WebhookURL        string   `json:"webhook_url" validate:"required,url,max=2048"`
	Events            []string `json:"events" validate:"required,min=1,dive,required"`
	APIKey            string   `json:"api_key" validate:"required,min=16,max=256"`
	MaxFailedAttempts *int     `json:"max_failed_attempts,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// UpdateWebhookRequest only touches the fields that are set
type UpdateWebhookRequest struct {
	AgentName         *string  `json:"agent_name,omitempty" validate:"omitempty,min=2,max=100"`
	WebhookURL        *string  `json:"webhook_url,omitempty" validate:"omitempty,url,max=2048"`
	Events            []string `json:"events,omitempty" validate:"omitempty,min=1,dive,required"`
	MaxFailedAttempts *int     `json:"max_failed_attempts,omitempty" validate:"omitempty,gte=1,lte=100"`
}

type ListWebhooksRequest struct {
	ActiveOnly bool
	AgentName  string `validate:"omitempty,max=100"`
	PaginatedRequest
}
