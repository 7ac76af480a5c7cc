package v1

type SendTemplateResponse struct {
	MessageLogID      string          `json:"message_log_id"`
	Status            string          `json:"status"`
	ProviderMessageID string          `json:"provider_message_id,omitempty"`
	Duplicate         bool            `json:"duplicate"`
	Warnings          []IssueResponse `json:"warnings,omitempty"`
}

type IssueResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type WebhookResponse struct {
	Received int `json:"received"`
	Applied  int `json:"applied"`
}
