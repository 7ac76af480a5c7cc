package repository

import (
	"context"
	"errors"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"gorm.io/gorm"
)

var ErrProviderConfigNotFound = errors.New("PROVIDER_CONFIG_NOT_FOUND")
var ErrSenderNotFound = errors.New("SENDER_NOT_FOUND")
var ErrTenantNotFound = errors.New("TENANT_NOT_FOUND")

type ProviderConfigRepository interface {
	GetActive(ctx context.Context, tenantID int64) (*model.ProviderConfig, error)
	GetByProvider(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderConfig, error)
}

type ProviderSenderRepository interface {
	GetSender(ctx context.Context, tenantID int64, provider model.ProviderKey, senderID string) (*model.ProviderSender, error)
	GetDefaultSender(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderSender, error)
	FindTenantBySenderID(ctx context.Context, provider model.ProviderKey, senderID string) (int64, error)
	FindTenantByDisplayAddress(ctx context.Context, provider model.ProviderKey, address string) (int64, error)
	FindTenantByBusinessAccount(ctx context.Context, provider model.ProviderKey, businessAccountID string) (int64, error)
}

type ProviderConfig struct {
	db *gorm.DB
}

func NewProviderConfigRepository(db *gorm.DB) ProviderConfigRepository {
	return &ProviderConfig{db: db}
}

func (p *ProviderConfig) GetActive(ctx context.Context, tenantID int64) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig

	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProviderConfigNotFound
	}

	return nil, err
}

func (p *ProviderConfig) GetByProvider(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig

	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProviderConfigNotFound
	}

	return nil, err
}

type ProviderSender struct {
	db *gorm.DB
}

func NewProviderSenderRepository(db *gorm.DB) ProviderSenderRepository {
	return &ProviderSender{db: db}
}

func (p *ProviderSender) GetSender(ctx context.Context, tenantID int64, provider model.ProviderKey, senderID string) (*model.ProviderSender, error) {
	var sender model.ProviderSender

	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ? AND sender_id = ?", tenantID, provider, senderID).
		First(&sender).Error
	if err == nil {
		return &sender, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSenderNotFound
	}

	return nil, err
}

func (p *ProviderSender) GetDefaultSender(ctx context.Context, tenantID int64, provider model.ProviderKey) (*model.ProviderSender, error) {
	var sender model.ProviderSender

	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		Order("is_default DESC, id ASC").
		First(&sender).Error
	if err == nil {
		return &sender, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSenderNotFound
	}

	return nil, err
}

func (p *ProviderSender) FindTenantBySenderID(ctx context.Context, provider model.ProviderKey, senderID string) (int64, error) {
	return p.findTenant(ctx, "provider = ? AND sender_id = ?", provider, senderID)
}

func (p *ProviderSender) FindTenantByDisplayAddress(ctx context.Context, provider model.ProviderKey, address string) (int64, error) {
	return p.findTenant(ctx, "provider = ? AND display_address = ?", provider, address)
}

func (p *ProviderSender) FindTenantByBusinessAccount(ctx context.Context, provider model.ProviderKey, businessAccountID string) (int64, error) {
	return p.findTenant(ctx, "provider = ? AND business_account_id = ?", provider, businessAccountID)
}

func (p *ProviderSender) findTenant(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var sender model.ProviderSender

	err := p.db.WithContext(ctx).Where(query, args...).First(&sender).Error
	if err == nil {
		return sender.TenantID, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrTenantNotFound
	}

	return 0, err
}
