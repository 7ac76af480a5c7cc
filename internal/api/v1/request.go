package v1

// SendTemplateRequest is the REST shape of one templated send: the blast-level
// plan fields plus the single recipient it targets.
type SendTemplateRequest struct {
	TenantID     int64           `json:"tenant_id"`
	Provider     string          `json:"provider"`
	SenderID     string          `json:"sender_id"`
	TemplateName string          `json:"template_name"`
	TemplateID   string          `json:"template_id"`
	Language     string          `json:"language"`
	Header       HeaderRequest   `json:"header"`
	Buttons      []ButtonRequest `json:"buttons"`
	Recipient    RecipientBody   `json:"recipient"`
	RenderedBody string          `json:"rendered_body"`
	CampaignID   *int64          `json:"campaign_id"`
	FlowID       *int64          `json:"flow_id"`
}

type HeaderRequest struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type ButtonRequest struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

type RecipientBody struct {
	RecipientID    int64  `json:"recipient_id"`
	Destination    string `json:"destination"`
	BodyParams     string `json:"body_params"`
	ExtraParams    string `json:"extra_params"`
	IdempotencyKey string `json:"idempotency_key"`
}

// WebhookRequest mirrors the WhatsApp Business callback envelope. Both
// supported providers deliver status updates in this shape.
type WebhookRequest struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string          `json:"messaging_product"`
	Metadata         WebhookMetadata `json:"metadata"`
	Statuses         []WebhookStatus `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookStatus struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	RecipientID string         `json:"recipient_id"`
	Errors      []WebhookError `json:"errors"`
}

type WebhookError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
