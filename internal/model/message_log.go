package model

import "time"

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "PENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
	MessageStatusFailed    MessageStatus = "FAILED"
	MessageStatusDeleted   MessageStatus = "DELETED"
)

// Rank orders the delivery states a message moves through. Terminal side
// states (FAILED, DELETED) are not ranked; their applicability is decided by
// the reconciler's conditional updates instead.
func (s MessageStatus) Rank() int {
	switch s {
	case MessageStatusPending:
		return 0
	case MessageStatusSent:
		return 1
	case MessageStatusDelivered:
		return 2
	case MessageStatusRead:
		return 3
	default:
		return -1
	}
}

// MessageLog is the send-attempt audit row for the general message log.
// Created once by the message-log sink; after creation only the status
// reconciler mutates status/timestamps/error, and retry logic the retry count.
type MessageLog struct {
	ID                string        `gorm:"primaryKey;type:char(36);<-:create"`
	TenantID          int64         `gorm:"column:tenant_id;not null;index"`
	CampaignID        *int64        `gorm:"column:campaign_id;index"`
	FlowID            *int64        `gorm:"column:flow_id"`
	RecipientID       *int64        `gorm:"column:recipient_id;index"`
	Destination       string        `gorm:"column:destination;type:varchar(32);not null"`
	Body              string        `gorm:"column:body;type:text"`
	TemplateID        string        `gorm:"column:template_id;type:varchar(128)"`
	Status            MessageStatus `gorm:"column:status;type:varchar(16);not null"`
	ErrorMessage      *string       `gorm:"column:error_message;type:text"`
	ClickCount        int           `gorm:"column:click_count;default:0;not null"`
	LastClickedAt     *time.Time    `gorm:"column:last_clicked_at;type:timestamp"`
	RetryCount        int           `gorm:"column:retry_count;default:0;not null"`
	DedupeKey         string        `gorm:"column:dedupe_key;type:varchar(128);uniqueIndex:idx_dedupe_key"`
	ProviderMessageID *string       `gorm:"column:provider_message_id;type:varchar(128);index"`
	CreatedAt         time.Time     `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP"`
	SentAt            *time.Time    `gorm:"column:sent_at;type:timestamp"`
	DeliveredAt       *time.Time    `gorm:"column:delivered_at;type:timestamp"`
	ReadAt            *time.Time    `gorm:"column:read_at;type:timestamp"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;type:timestamp;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"`
}

func (MessageLog) TableName() string { return "message_logs" }

// CampaignSendLog is the campaign-send audit row. It references its parent
// MessageLog row; the campaign sink must not persist it before the parent
// exists because the two streams are written by independent pipelines.
type CampaignSendLog struct {
	ID                string        `gorm:"primaryKey;type:char(36);<-:create"`
	TenantID          int64         `gorm:"column:tenant_id;not null;index"`
	CampaignID        int64         `gorm:"column:campaign_id;not null;index"`
	RecipientID       int64         `gorm:"column:recipient_id;not null"`
	MessageLogID      string        `gorm:"column:message_log_id;type:char(36);not null;index"`
	Status            MessageStatus `gorm:"column:status;type:varchar(16);not null"`
	ErrorMessage      *string       `gorm:"column:error_message;type:text"`
	DedupeKey         string        `gorm:"column:dedupe_key;type:varchar(128);uniqueIndex:idx_campaign_dedupe"`
	ProviderMessageID *string       `gorm:"column:provider_message_id;type:varchar(128)"`
	CreatedAt         time.Time     `gorm:"column:created_at;type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;type:timestamp;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"`
}

func (CampaignSendLog) TableName() string { return "campaign_send_logs" }

// StatusEvent is a normalized delivery-status webhook callback. Transient:
// it only drives reconciler updates and is never persisted as-is.
type StatusEvent struct {
	TenantID          int64
	Provider          ProviderKey
	ProviderMessageID string
	MessageLogID      string
	Destination       string
	Status            MessageStatus
	OccurredAt        time.Time
	ErrorCode         string
	ErrorMessage      string
}
