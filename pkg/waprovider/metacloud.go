package waprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/velora/messaging-services/msggateway/pkg/httpclient"
)

const (
	metaCloudDefaultBaseURL = "https://graph.facebook.com"
	metaCloudAPIVersion     = "v19.0"
)

// MetaCloudProvider sends through the Meta WhatsApp Cloud API. The path
// identifier is the registered phone number id; authentication is a bearer
// token on every call.
type MetaCloudProvider struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewMetaCloudProvider(cfg Config, client httpclient.HTTPClient) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = metaCloudDefaultBaseURL
	}
	return &MetaCloudProvider{cfg: cfg, client: client}
}

func (m *MetaCloudProvider) SendText(ctx context.Context, to string, body string) (SendResult, error) {
	req := messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: body},
	}

	return m.post(ctx, req)
}

func (m *MetaCloudProvider) SendTemplate(ctx context.Context, to string, tpl TemplateMessage) (SendResult, error) {
	req := messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: &templateBody{
			Name:       tpl.Name,
			Language:   languageBody{Code: tpl.Language},
			Components: toWireComponents(tpl.Components),
		},
	}

	return m.post(ctx, req)
}

func (m *MetaCloudProvider) SendInteractive(ctx context.Context, to string, interactive json.RawMessage) (SendResult, error) {
	req := messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}

	return m.post(ctx, req)
}

func (m *MetaCloudProvider) post(ctx context.Context, req messageRequest) (SendResult, error) {
	phoneID, err := m.cfg.pathIdentifier()
	if err != nil {
		return SendResult{Provider: ProviderNameMetaCloud}, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return SendResult{Provider: ProviderNameMetaCloud}, fmt.Errorf("encoding error: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", m.cfg.BaseURL, metaCloudAPIVersion, phoneID)
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + m.cfg.APIKey,
	}

	resp, err := m.client.Post(ctx, url, &buf, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SendResult{Provider: ProviderNameMetaCloud}, errors.New(ErrorCodeTimeout)
		}
		return SendResult{Provider: ProviderNameMetaCloud}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	return readResult(ProviderNameMetaCloud, resp)
}

func readResult(provider string, resp *http.Response) (SendResult, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{Provider: provider, HTTPStatus: resp.StatusCode}, fmt.Errorf("reading response: %w", err)
	}

	result := SendResult{
		Provider:   provider,
		HTTPStatus: resp.StatusCode,
		RawBody:    string(body),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.ErrorReason = extractErrorReason(body)
		if result.ErrorReason == "" {
			result.ErrorReason = http.StatusText(resp.StatusCode)
		}
		return result, nil
	}

	result.Success = true
	result.ProviderMessageID = extractMessageID(body)

	return result, nil
}
