package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
)

type Provider struct {
	mock.Mock
}

func (p *Provider) SendText(ctx context.Context, to, text string) (waprovider.SendResult, error) {
	args := p.Called(ctx, to, text)
	return args.Get(0).(waprovider.SendResult), args.Error(1)
}

func (p *Provider) SendTemplate(ctx context.Context, to string, message waprovider.TemplateMessage) (waprovider.SendResult, error) {
	args := p.Called(ctx, to, message)
	return args.Get(0).(waprovider.SendResult), args.Error(1)
}

func (p *Provider) SendInteractive(ctx context.Context, to string, payload json.RawMessage) (waprovider.SendResult, error) {
	args := p.Called(ctx, to, payload)
	return args.Get(0).(waprovider.SendResult), args.Error(1)
}

type ProviderFactory struct {
	mock.Mock
}

func (f *ProviderFactory) AdapterFor(ctx context.Context, tenantID int64, override *service.SendOverride) (waprovider.Provider, error) {
	args := f.Called(ctx, tenantID, override)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(waprovider.Provider), args.Error(1)
}

type ProviderService struct {
	mock.Mock
}

func (p *ProviderService) SendWithRetry(ctx context.Context,
	send func(ctx context.Context) (waprovider.SendResult, error)) (waprovider.SendResult, error) {
	args := p.Called(ctx, send)
	return args.Get(0).(waprovider.SendResult), args.Error(1)
}
