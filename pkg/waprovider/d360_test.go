package waprovider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/mocks"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
)

func d360Config() waprovider.Config {
	return waprovider.Config{
		BaseURL:         "https://waba.360dialog.io",
		APIKey:          "d360-key",
		DefaultSenderID: "2060987654",
	}
}

func TestD360Provider_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("carries the api key in header and query", func(t *testing.T) {
		client := &mocks.HTTPClient{}

		client.On("Post", ctx,
			"https://waba.360dialog.io/v1/messages?apikey=d360-key",
			mock.Anything,
			mock.MatchedBy(func(headers map[string]string) bool {
				return headers["D360-API-KEY"] == "d360-key"
			})).
			Return(httpResponse(201, `{"messages":[{"id":"gBEGkYiEB1VXAglK1ZEqA1YKPrU"}]}`), nil)

		provider := waprovider.NewD360Provider(d360Config(), client)

		result, err := provider.SendText(ctx, "+15551234567", "hello")

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "gBEGkYiEB1VXAglK1ZEqA1YKPrU", result.ProviderMessageID)
		assert.Equal(t, waprovider.ProviderNameD360, result.Provider)
		client.AssertExpectations(t)
	})

	t.Run("extracts message id from the nested message shape", func(t *testing.T) {
		client := &mocks.HTTPClient{}

		client.On("Post", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(httpResponse(200, `{"message":{"id":"msg-77"}}`), nil)

		provider := waprovider.NewD360Provider(d360Config(), client)

		result, err := provider.SendText(ctx, "+15551234567", "hello")

		assert.NoError(t, err)
		assert.Equal(t, "msg-77", result.ProviderMessageID)
	})

	t.Run("failed result carries the meta-style error detail", func(t *testing.T) {
		client := &mocks.HTTPClient{}

		client.On("Post", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(httpResponse(401, `{"meta":{"success":false},"errors":[{"code":401,"title":"Unauthorized"}]}`), nil)

		provider := waprovider.NewD360Provider(d360Config(), client)

		result, err := provider.SendText(ctx, "+15551234567", "hello")

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.ErrorReason)
	})

	t.Run("missing sender configuration is rejected before the call", func(t *testing.T) {
		client := &mocks.HTTPClient{}

		cfg := d360Config()
		cfg.DefaultSenderID = ""

		provider := waprovider.NewD360Provider(cfg, client)

		_, err := provider.SendTemplate(ctx, "+15551234567", waprovider.TemplateMessage{Name: "x", Language: "en"})

		assert.Error(t, err)
		client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
