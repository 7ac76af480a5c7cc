package waprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/velora/messaging-services/msggateway/pkg/httpclient"
)

const d360DefaultBaseURL = "https://waba.360dialog.io"

// D360Provider sends through a 360dialog-hosted WhatsApp Business API. The
// gateway wants the API key both as the D360-API-KEY header and as an apikey
// query parameter; older partner stacks only read one of the two.
type D360Provider struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewD360Provider(cfg Config, client httpclient.HTTPClient) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = d360DefaultBaseURL
	}
	return &D360Provider{cfg: cfg, client: client}
}

func (d *D360Provider) SendText(ctx context.Context, to string, body string) (SendResult, error) {
	req := messageRequest{
		RecipientType: "individual",
		To:            to,
		Type:          "text",
		Text:          &textBody{Body: body},
	}

	return d.post(ctx, req)
}

func (d *D360Provider) SendTemplate(ctx context.Context, to string, tpl TemplateMessage) (SendResult, error) {
	req := messageRequest{
		RecipientType: "individual",
		To:            to,
		Type:          "template",
		Template: &templateBody{
			Name:       tpl.Name,
			Language:   languageBody{Code: tpl.Language},
			Components: toWireComponents(tpl.Components),
		},
	}

	return d.post(ctx, req)
}

func (d *D360Provider) SendInteractive(ctx context.Context, to string, interactive json.RawMessage) (SendResult, error) {
	req := messageRequest{
		RecipientType: "individual",
		To:            to,
		Type:          "interactive",
		Interactive:   interactive,
	}

	return d.post(ctx, req)
}

func (d *D360Provider) post(ctx context.Context, req messageRequest) (SendResult, error) {
	// 360dialog binds the sender phone to the API key, but the configuration
	// still must resolve to a sender so webhooks can be correlated later.
	if _, err := d.cfg.pathIdentifier(); err != nil {
		return SendResult{Provider: ProviderNameD360}, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return SendResult{Provider: ProviderNameD360}, fmt.Errorf("encoding error: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/messages?apikey=%s", d.cfg.BaseURL, url.QueryEscape(d.cfg.APIKey))
	headers := map[string]string{
		"Content-Type": "application/json",
		"D360-API-KEY": d.cfg.APIKey,
	}

	resp, err := d.client.Post(ctx, endpoint, &buf, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SendResult{Provider: ProviderNameD360}, errors.New(ErrorCodeTimeout)
		}
		return SendResult{Provider: ProviderNameD360}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	return readResult(ProviderNameD360, resp)
}
