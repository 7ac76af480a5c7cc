package service

import (
	"context"
	"time"

	"github.com/velora/messaging-services/msggateway/internal/config"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
	"go.uber.org/zap"
)

// ProviderService retries transport-level failures with a short linear
// backoff. A failed SendResult is a definitive provider answer and is never
// retried here; only errors (network, timeout) are.
type ProviderService interface {
	SendWithRetry(ctx context.Context, send func(ctx context.Context) (waprovider.SendResult, error)) (waprovider.SendResult, error)
}

type providerService struct {
	timeout  time.Duration
	maxRetry int
	logger   *zap.Logger
}

func NewProviderService(cfg *config.Config, logger *zap.Logger) ProviderService {
	timeout := cfg.Providers.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRetry := cfg.Providers.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 3
	}

	return &providerService{timeout: timeout, maxRetry: maxRetry, logger: logger}
}

func (p *providerService) SendWithRetry(ctx context.Context,
	send func(ctx context.Context) (waprovider.SendResult, error)) (waprovider.SendResult, error) {

	var lastErr error

	for attempt := 1; attempt <= p.maxRetry; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		result, err := send(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}

		lastErr = err
		p.logger.Warn("Provider call failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", p.maxRetry))

		if attempt < p.maxRetry {
			delay := time.Duration(attempt) * 100 * time.Millisecond

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return waprovider.SendResult{}, ctx.Err()
			}
		}
	}

	p.logger.Error("All provider retry attempts exhausted",
		zap.Error(lastErr),
		zap.Int("maxRetries", p.maxRetry))

	return waprovider.SendResult{}, lastErr
}
