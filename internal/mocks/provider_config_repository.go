package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/model"
)

type ProviderConfigRepository struct {
	mock.Mock
}

func (m *ProviderConfigRepository) GetActive(ctx context.Context, tenantID int64) (*model.ProviderConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderConfig), args.Error(1)
}

func (m *ProviderConfigRepository) GetByProvider(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderConfig, error) {
	args := m.Called(ctx, tenantID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderConfig), args.Error(1)
}

type ProviderSenderRepository struct {
	mock.Mock
}

func (m *ProviderSenderRepository) GetSender(ctx context.Context, tenantID int64, provider model.ProviderKey, senderID string) (*model.ProviderSender, error) {
	args := m.Called(ctx, tenantID, provider, senderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderSender), args.Error(1)
}

func (m *ProviderSenderRepository) GetDefaultSender(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderSender, error) {
	args := m.Called(ctx, tenantID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderSender), args.Error(1)
}

func (m *ProviderSenderRepository) FindTenantBySenderID(ctx context.Context, provider model.ProviderKey, senderID string) (int64, error) {
	args := m.Called(ctx, provider, senderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProviderSenderRepository) FindTenantByDisplayAddress(ctx context.Context, provider model.ProviderKey, address string) (int64, error) {
	args := m.Called(ctx, provider, address)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProviderSenderRepository) FindTenantByBusinessAccount(ctx context.Context, provider model.ProviderKey, businessAccountID string) (int64, error) {
	args := m.Called(ctx, provider, businessAccountID)
	return args.Get(0).(int64), args.Error(1)
}
