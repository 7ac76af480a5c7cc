package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/velora/messaging-services/msggateway/internal/config"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/pkg/httpclient"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
	"go.uber.org/zap"
)

// SendOverride requests a specific provider and sender for one send instead
// of the tenant's active configuration.
type SendOverride struct {
	Provider model.ProviderKey
	SenderID string
}

// ProviderFactory resolves a tenant (and an optional explicit override) to a
// ready-to-use adapter bound to that tenant's credentials.
type ProviderFactory interface {
	AdapterFor(ctx context.Context, tenantID int64, override *SendOverride) (waprovider.Provider, error)
}

type providerFactory struct {
	configs  repository.ProviderConfigRepository
	senders  repository.ProviderSenderRepository
	defaults config.Providers
	client   httpclient.HTTPClient
	logger   *zap.Logger
}

func NewProviderFactory(configs repository.ProviderConfigRepository, senders repository.ProviderSenderRepository,
	cfg *config.Config, client httpclient.HTTPClient, logger *zap.Logger) ProviderFactory {
	return &providerFactory{configs: configs, senders: senders, defaults: cfg.Providers, client: client, logger: logger}
}

func (f *providerFactory) AdapterFor(ctx context.Context, tenantID int64, override *SendOverride) (waprovider.Provider, error) {
	if override != nil {
		return f.adapterForOverride(ctx, tenantID, *override)
	}

	cfg, err := f.configs.GetActive(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrProviderConfigNotFound) {
			return nil, NewServiceError(ErrProviderNotConfigured.Error(),
				fmt.Errorf("tenant %d has no active provider configuration", tenantID))
		}
		return nil, err
	}

	providerCfg := waprovider.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Timeout:  f.defaults.Timeout,
		MaxRetry: f.defaults.MaxRetry,
	}

	sender, err := f.senders.GetDefaultSender(ctx, tenantID, cfg.Provider)
	if err == nil {
		providerCfg.DefaultSenderID = sender.SenderID
	} else if !errors.Is(err, repository.ErrSenderNotFound) {
		return nil, err
	}

	return f.build(cfg.Provider, providerCfg)
}

// adapterForOverride validates that the requested sender actually belongs to
// the requesting tenant and provider before binding credentials; an unknown
// pairing is a validation failure, never a silent fallback.
func (f *providerFactory) adapterForOverride(ctx context.Context, tenantID int64, override SendOverride) (waprovider.Provider, error) {
	sender, err := f.senders.GetSender(ctx, tenantID, override.Provider, override.SenderID)
	if err != nil {
		if errors.Is(err, repository.ErrSenderNotFound) {
			f.logger.Warn("Sender override rejected",
				zap.Int64("tenantID", tenantID),
				zap.String("provider", string(override.Provider)),
				zap.String("senderID", override.SenderID))
			return nil, NewServiceError(ErrSenderNotOwnedByTenant.Error(),
				fmt.Errorf("sender %q does not belong to tenant %d on provider %s",
					override.SenderID, tenantID, override.Provider))
		}
		return nil, err
	}

	cfg, err := f.configs.GetByProvider(ctx, tenantID, override.Provider)
	if err != nil {
		if errors.Is(err, repository.ErrProviderConfigNotFound) {
			return nil, NewServiceError(ErrProviderNotConfigured.Error(),
				fmt.Errorf("tenant %d has no %s configuration", tenantID, override.Provider))
		}
		return nil, err
	}

	providerCfg := waprovider.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		SenderOverride: sender.SenderID,
		Timeout:        f.defaults.Timeout,
		MaxRetry:       f.defaults.MaxRetry,
	}

	return f.build(cfg.Provider, providerCfg)
}

func (f *providerFactory) build(provider model.ProviderKey, cfg waprovider.Config) (waprovider.Provider, error) {
	switch provider {
	case model.ProviderMetaCloud:
		if cfg.BaseURL == "" {
			cfg.BaseURL = f.defaults.MetaCloud.BaseURL
		}
		return waprovider.NewMetaCloudProvider(cfg, f.client), nil
	case model.ProviderD360:
		if cfg.BaseURL == "" {
			cfg.BaseURL = f.defaults.D360.BaseURL
		}
		return waprovider.NewD360Provider(cfg, f.client), nil
	default:
		return nil, NewServiceError(ErrUnsupportedProvider.Error(),
			fmt.Errorf("unsupported provider %q", provider))
	}
}
