package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/mocks"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"github.com/velora/messaging-services/msggateway/pkg/cache"
	"go.uber.org/zap"
)

func TestProviderDirectory_ResolveTenant(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	ttl := time.Minute

	t.Run("sender id wins over other identifiers", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("", cache.ErrCacheMiss)
		cacheClient.On("Set", ctx, "provider_directory", mock.Anything, "42", ttl).Return(nil)
		senders.On("FindTenantBySenderID", ctx, model.ProviderMetaCloud, "1050123456").
			Return(int64(42), nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		tenantID, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider:          model.ProviderMetaCloud,
			SenderID:          "1050123456",
			DisplayAddress:    "+1 555 123 4567",
			BusinessAccountID: "waba-9",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), tenantID)
		senders.AssertNotCalled(t, "FindTenantByDisplayAddress", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to normalized display address", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("", cache.ErrCacheMiss)
		cacheClient.On("Set", ctx, "provider_directory", mock.Anything, "42", ttl).Return(nil)
		senders.On("FindTenantBySenderID", ctx, model.ProviderMetaCloud, "unknown").
			Return(int64(0), repository.ErrTenantNotFound)
		senders.On("FindTenantByDisplayAddress", ctx, model.ProviderMetaCloud, "+15551234567").
			Return(int64(42), nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		tenantID, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider:       model.ProviderMetaCloud,
			SenderID:       "unknown",
			DisplayAddress: "+1 (555) 123-4567",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), tenantID)
	})

	t.Run("falls back to business account id last", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("", cache.ErrCacheMiss)
		cacheClient.On("Set", ctx, "provider_directory", mock.Anything, "7", ttl).Return(nil)
		senders.On("FindTenantBySenderID", ctx, model.ProviderD360, "x").
			Return(int64(0), repository.ErrTenantNotFound)
		senders.On("FindTenantByBusinessAccount", ctx, model.ProviderD360, "waba-9").
			Return(int64(7), nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		tenantID, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider:          model.ProviderD360,
			SenderID:          "x",
			BusinessAccountID: "waba-9",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), tenantID)
	})

	t.Run("serves a cached hit without touching the database", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("42", nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		tenantID, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider: model.ProviderMetaCloud,
			SenderID: "1050123456",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), tenantID)
		senders.AssertNotCalled(t, "FindTenantBySenderID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("caches and serves negative entries", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("-", nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		_, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider: model.ProviderMetaCloud,
			SenderID: "ghost",
		})

		assert.ErrorIs(t, err, service.ErrTenantNotResolved)
		senders.AssertNotCalled(t, "FindTenantBySenderID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stores a negative entry after a full miss", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).Return("", cache.ErrCacheMiss)
		cacheClient.On("Set", ctx, "provider_directory", mock.Anything, "-", ttl).Return(nil)
		senders.On("FindTenantBySenderID", ctx, model.ProviderMetaCloud, "ghost").
			Return(int64(0), repository.ErrTenantNotFound)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		_, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider: model.ProviderMetaCloud,
			SenderID: "ghost",
		})

		assert.ErrorIs(t, err, service.ErrTenantNotResolved)
		cacheClient.AssertExpectations(t)
	})

	t.Run("cache outage degrades to database lookup", func(t *testing.T) {
		senders := &mocks.ProviderSenderRepository{}
		cacheClient := &mocks.Cache{}

		cacheClient.On("Get", ctx, "provider_directory", mock.Anything).
			Return("", assert.AnError)
		cacheClient.On("Set", ctx, "provider_directory", mock.Anything, "42", ttl).
			Return(assert.AnError)
		senders.On("FindTenantBySenderID", ctx, model.ProviderMetaCloud, "1050123456").
			Return(int64(42), nil)

		directory := service.NewProviderDirectory(senders, cacheClient, ttl, logger)

		tenantID, err := directory.ResolveTenant(ctx, service.DirectoryQuery{
			Provider: model.ProviderMetaCloud,
			SenderID: "1050123456",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), tenantID)
	})
}
