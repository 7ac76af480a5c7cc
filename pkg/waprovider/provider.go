package waprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ProviderNameMetaCloud = "META_CLOUD"
	ProviderNameD360      = "D360"
)

// Provider turns a logical send into one messaging backend's concrete HTTP
// protocol. A non-2xx provider response is a normal outcome and comes back as
// a failed SendResult, never as an error; errors are reserved for transport
// failures and configuration problems detected before the call.
type Provider interface {
	SendText(ctx context.Context, to string, body string) (SendResult, error)
	SendTemplate(ctx context.Context, to string, tpl TemplateMessage) (SendResult, error)
	SendInteractive(ctx context.Context, to string, interactive json.RawMessage) (SendResult, error)
}

type Config struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string
	// SenderOverride is the explicit per-send path identifier; DefaultSenderID
	// is the tenant's default sender for this provider. Resolution order is
	// override, then default, then a configuration error.
	SenderOverride  string
	DefaultSenderID string
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetry        int           `mapstructure:"max_retry"`
}

func (c Config) pathIdentifier() (string, error) {
	if c.SenderOverride != "" {
		return c.SenderOverride, nil
	}
	if c.DefaultSenderID != "" {
		return c.DefaultSenderID, nil
	}
	return "", fmt.Errorf("%s: no sender configured and no per-send override given", ErrorCodeNoSender)
}

// SendResult is the normalized outcome of one provider call.
type SendResult struct {
	Success           bool
	Provider          string
	ProviderMessageID string
	HTTPStatus        int
	RawBody           string
	ErrorReason       string
}

type TemplateMessage struct {
	Name       string
	Language   string
	Components []Component
}

// Component is the provider-neutral template component. The Kind and button
// discriminators are internal; adapters map them onto each provider's wire
// schema and never serialize them directly.
type Component struct {
	Kind          string // header, body, button
	ButtonSubType string // url, quick_reply
	ButtonIndex   int
	Parameters    []Parameter
}

type Parameter struct {
	Kind     string // text, image, video, document, payload
	Text     string
	MediaURL string
	Payload  string
}

// extractMessageID probes the known response shapes for a provider message
// id: messages[0].id, then message.id, then a top-level id.
func extractMessageID(body []byte) string {
	var probe struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
		Message struct {
			ID string `json:"id"`
		} `json:"message"`
		ID string `json:"id"`
	}

	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}

	if len(probe.Messages) > 0 && probe.Messages[0].ID != "" {
		return probe.Messages[0].ID
	}
	if probe.Message.ID != "" {
		return probe.Message.ID
	}
	return probe.ID
}

// extractErrorReason pulls a human-readable failure reason out of an error
// response, probing the shapes the supported providers are known to use.
func extractErrorReason(body []byte) string {
	var probe struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Errors []struct {
			Title   string `json:"title"`
			Details string `json:"details"`
		} `json:"errors"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}

	if probe.Error.Message != "" {
		return probe.Error.Message
	}
	if len(probe.Errors) > 0 {
		if probe.Errors[0].Details != "" {
			return probe.Errors[0].Details
		}
		return probe.Errors[0].Title
	}
	return probe.Message
}
