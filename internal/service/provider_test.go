package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/velora/messaging-services/msggateway/internal/config"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
	"go.uber.org/zap"
)

func TestProviderService_SendWithRetry(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	cfg := &config.Config{
		Providers: config.Providers{
			Timeout:  time.Second,
			MaxRetry: 3,
		},
	}

	t.Run("returns the first successful result", func(t *testing.T) {
		svc := service.NewProviderService(cfg, logger)

		calls := 0
		result, err := svc.SendWithRetry(ctx, func(ctx context.Context) (waprovider.SendResult, error) {
			calls++
			return waprovider.SendResult{Success: true, ProviderMessageID: "wamid.abc"}, nil
		})

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, calls)
	})

	t.Run("a failed provider answer is not retried", func(t *testing.T) {
		svc := service.NewProviderService(cfg, logger)

		calls := 0
		result, err := svc.SendWithRetry(ctx, func(ctx context.Context) (waprovider.SendResult, error) {
			calls++
			return waprovider.SendResult{Success: false, HTTPStatus: 400}, nil
		})

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, calls)
	})

	t.Run("transport errors retry until one attempt lands", func(t *testing.T) {
		svc := service.NewProviderService(cfg, logger)

		calls := 0
		result, err := svc.SendWithRetry(ctx, func(ctx context.Context) (waprovider.SendResult, error) {
			calls++
			if calls < 3 {
				return waprovider.SendResult{}, errors.New("connection refused")
			}
			return waprovider.SendResult{Success: true}, nil
		})

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted retries surface the last error", func(t *testing.T) {
		svc := service.NewProviderService(cfg, logger)

		lastErr := errors.New("connection refused")
		calls := 0
		_, err := svc.SendWithRetry(ctx, func(ctx context.Context) (waprovider.SendResult, error) {
			calls++
			return waprovider.SendResult{}, lastErr
		})

		assert.ErrorIs(t, err, lastErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops further attempts", func(t *testing.T) {
		svc := service.NewProviderService(cfg, logger)

		cancelledCtx, cancel := context.WithCancel(context.Background())

		calls := 0
		_, err := svc.SendWithRetry(cancelledCtx, func(ctx context.Context) (waprovider.SendResult, error) {
			calls++
			cancel()
			return waprovider.SendResult{}, errors.New("connection refused")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
