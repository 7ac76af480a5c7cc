package model

type HeaderKind string

const (
	HeaderKindNone     HeaderKind = "none"
	HeaderKindText     HeaderKind = "text"
	HeaderKindImage    HeaderKind = "image"
	HeaderKindVideo    HeaderKind = "video"
	HeaderKindDocument HeaderKind = "document"
)

func (h HeaderKind) IsMedia() bool {
	return h == HeaderKindImage || h == HeaderKindVideo || h == HeaderKindDocument
}

type ButtonKind string

const (
	ButtonKindURL        ButtonKind = "url"
	ButtonKindQuickReply ButtonKind = "quick_reply"
	ButtonKindPhone      ButtonKind = "phone_number"
)

// ButtonMeta describes one template button as authored on the plan. At most
// three buttons are allowed per template.
type ButtonMeta struct {
	Index int        `json:"index"`
	Kind  ButtonKind `json:"kind"`
	Text  string     `json:"text"`
	URL   string     `json:"url,omitempty"`
}

// SendPlan is the per-blast immutable description of what to send: which
// tenant, through which provider and sender, which template shape. It is
// built once by the campaign or chat-reply collaborator and shared across
// every recipient of the blast.
type SendPlan struct {
	TenantID     int64
	Provider     ProviderKey
	SenderID     string
	TemplateName string
	Language     string
	HeaderKind   HeaderKind
	HeaderURL    string
	Buttons      []ButtonMeta
}

// RecipientPlan is the per-message instance: one recipient, their resolved
// parameter payloads (still JSON-encoded, in whatever convention the caller
// stored them) and the caller's idempotency key.
type RecipientPlan struct {
	RecipientID    int64
	Destination    string
	BodyParamsJSON string
	ExtraJSON      string
	IdempotencyKey string
}

// TemplateEnvelope is the provider-neutral resolved parameter set for one
// recipient. Built fresh per recipient by the envelope builder, consumed by
// the validator and the adapter component assembly; never persisted.
type TemplateEnvelope struct {
	HeaderKind   HeaderKind
	HeaderURL    string
	HeaderParams []string
	BodyParams   []string
	Buttons      []ButtonMeta
	ButtonParams map[string]string
}
