package model

import "time"

type ProviderKey string

const (
	ProviderMetaCloud ProviderKey = "META_CLOUD"
	ProviderD360      ProviderKey = "D360"
)

// ProviderConfig holds one tenant's credentials for a messaging provider.
// Rows are written by the tenant-settings collaborator; this service only reads them.
type ProviderConfig struct {
	ID        int64       `gorm:"primaryKey;autoIncrement;<-:create"`
	TenantID  int64       `gorm:"column:tenant_id;not null;index:idx_tenant_provider,unique"`
	Provider  ProviderKey `gorm:"column:provider;type:varchar(32);not null;index:idx_tenant_provider,unique"`
	APIKey    string      `gorm:"column:api_key;type:varchar(512);not null"`
	BaseURL   string      `gorm:"column:base_url;type:varchar(255)"`
	Active    bool        `gorm:"column:active;default:true;not null"`
	CreatedAt time.Time   `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time   `gorm:"type:timestamp;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"`
}

func (ProviderConfig) TableName() string { return "provider_configs" }

// ProviderSender is a logical sender identity (a phone number registered with
// a provider) owned by a tenant. SenderID is the provider's path identifier
// for outbound calls and the primary key webhooks report back.
type ProviderSender struct {
	ID                int64       `gorm:"primaryKey;autoIncrement;<-:create"`
	TenantID          int64       `gorm:"column:tenant_id;not null;index"`
	Provider          ProviderKey `gorm:"column:provider;type:varchar(32);not null;index:idx_provider_sender,unique"`
	SenderID          string      `gorm:"column:sender_id;type:varchar(64);not null;index:idx_provider_sender,unique"`
	DisplayAddress    string      `gorm:"column:display_address;type:varchar(32)"`
	BusinessAccountID string      `gorm:"column:business_account_id;type:varchar(64)"`
	IsDefault         bool        `gorm:"column:is_default;default:false;not null"`
	CreatedAt         time.Time   `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time   `gorm:"type:timestamp;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"`
}

func (ProviderSender) TableName() string { return "provider_senders" }
