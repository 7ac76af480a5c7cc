package repository

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrMessageLogNotFound = errors.New("MESSAGE_LOG_NOT_FOUND")
var ErrMessageLogDuplicate = errors.New("MESSAGE_LOG_DUPLICATE")
var ErrNoRowsAffected = errors.New("NO_ROWS_AFFECTED")

// LogKey addresses one message-log row for a conditional status update.
// TenantID is mandatory on every lookup; colliding provider message ids from
// different tenants must never touch each other's rows.
type LogKey struct {
	ID                string
	TenantID          int64
	ProviderMessageID string
}

type MessageLogRepository interface {
	Create(ctx context.Context, log *model.MessageLog) error
	CreateBatch(ctx context.Context, logs []model.MessageLog) error
	BulkLoad(ctx context.Context, logs []model.MessageLog) error
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	FindByDedupeKey(ctx context.Context, tenantID int64, dedupeKey string) (*model.MessageLog, error)
	UpdateStatusSent(ctx context.Context, key LogKey, at time.Time) (int64, error)
	UpdateStatusDelivered(ctx context.Context, key LogKey, at time.Time) (int64, error)
	UpdateStatusRead(ctx context.Context, key LogKey, at time.Time) (int64, error)
	UpdateStatusFailed(ctx context.Context, key LogKey, at time.Time, errMsg string) (int64, error)
	UpdateStatusDeleted(ctx context.Context, key LogKey, at time.Time) (int64, error)
	IncrementRetry(ctx context.Context, id string) error
	RecordClick(ctx context.Context, id string, at time.Time) error
}

type MessageLog struct {
	db *gorm.DB
}

func NewMessageLogRepository(db *gorm.DB) MessageLogRepository {
	return &MessageLog{db: db}
}

func (m *MessageLog) Create(ctx context.Context, log *model.MessageLog) error {
	db := GetTx(ctx, m.db)
	err := db.Create(log).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrMessageLogDuplicate
	}

	return err
}

// CreateBatch is the row-level fallback write. INSERT IGNORE keeps it
// idempotent with the bulk path: a dedupe-key collision means the row was
// already persisted by an earlier attempt.
func (m *MessageLog) CreateBatch(ctx context.Context, logs []model.MessageLog) error {
	if len(logs) == 0 {
		return nil
	}

	db := GetTx(ctx, m.db)
	return db.Clauses(clause.Insert{Modifier: "IGNORE"}).CreateInBatches(&logs, 100).Error
}

const messageLogBulkStatement = `LOAD DATA LOCAL INFILE '%s' IGNORE INTO TABLE message_logs ` +
	`FIELDS TERMINATED BY '\t' LINES TERMINATED BY '\n' ` +
	`(id, tenant_id, campaign_id, flow_id, recipient_id, destination, body, template_id, status, ` +
	`error_message, click_count, last_clicked_at, retry_count, dedupe_key, provider_message_id, ` +
	`created_at, sent_at, delivered_at, read_at, updated_at)`

func (m *MessageLog) BulkLoad(ctx context.Context, logs []model.MessageLog) error {
	if len(logs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, l := range logs {
		writeTSVRow(&buf,
			tsvString(l.ID),
			tsvInt64(l.TenantID),
			tsvNullInt64(l.CampaignID),
			tsvNullInt64(l.FlowID),
			tsvNullInt64(l.RecipientID),
			tsvString(l.Destination),
			tsvString(l.Body),
			tsvString(l.TemplateID),
			tsvString(string(l.Status)),
			tsvNullString(l.ErrorMessage),
			tsvInt(l.ClickCount),
			tsvNullTime(l.LastClickedAt),
			tsvInt(l.RetryCount),
			tsvString(l.DedupeKey),
			tsvNullString(l.ProviderMessageID),
			tsvTime(l.CreatedAt),
			tsvNullTime(l.SentAt),
			tsvNullTime(l.DeliveredAt),
			tsvNullTime(l.ReadAt),
			tsvTime(l.UpdatedAt),
		)
	}

	db := m.db.WithContext(ctx)
	return bulkLoad(func(query string) error {
		return db.Exec(query).Error
	}, messageLogBulkStatement, &buf)
}

func (m *MessageLog) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}

	var found []string
	err := m.db.WithContext(ctx).Model(&model.MessageLog{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(found))
	for _, id := range found {
		existing[id] = struct{}{}
	}

	return existing, nil
}

func (m *MessageLog) FindByDedupeKey(ctx context.Context, tenantID int64, dedupeKey string) (*model.MessageLog, error) {
	var log model.MessageLog

	err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND dedupe_key = ?", tenantID, dedupeKey).
		First(&log).Error
	if err == nil {
		return &log, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageLogNotFound
	}

	return nil, err
}

// scope narrows an update to one tenant's row, by direct id when the event
// carries one and by provider message id otherwise.
func (m *MessageLog) scope(ctx context.Context, key LogKey) *gorm.DB {
	db := GetTx(ctx, m.db).Model(&model.MessageLog{})
	if key.ID != "" {
		return db.Where("id = ? AND tenant_id = ?", key.ID, key.TenantID)
	}
	return db.Where("tenant_id = ? AND provider_message_id = ?", key.TenantID, key.ProviderMessageID)
}

func (m *MessageLog) UpdateStatusSent(ctx context.Context, key LogKey, at time.Time) (int64, error) {
	result := m.scope(ctx, key).
		Where("status IN ?", []string{"", string(model.MessageStatusPending)}).
		Updates(map[string]interface{}{
			"status":  model.MessageStatusSent,
			"sent_at": at,
		})

	return result.RowsAffected, result.Error
}

func (m *MessageLog) UpdateStatusDelivered(ctx context.Context, key LogKey, at time.Time) (int64, error) {
	result := m.scope(ctx, key).
		Where("status <> ?", model.MessageStatusRead).
		Updates(map[string]interface{}{
			"status":       model.MessageStatusDelivered,
			"delivered_at": at,
		})

	return result.RowsAffected, result.Error
}

func (m *MessageLog) UpdateStatusRead(ctx context.Context, key LogKey, at time.Time) (int64, error) {
	result := m.scope(ctx, key).
		Updates(map[string]interface{}{
			"status":       model.MessageStatusRead,
			"read_at":      at,
			"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
		})

	return result.RowsAffected, result.Error
}

func (m *MessageLog) UpdateStatusFailed(ctx context.Context, key LogKey, at time.Time, errMsg string) (int64, error) {
	result := m.scope(ctx, key).
		Where("status NOT IN ?", []string{string(model.MessageStatusDelivered), string(model.MessageStatusRead)}).
		Updates(map[string]interface{}{
			"status":        model.MessageStatusFailed,
			"error_message": errMsg,
			"updated_at":    at,
		})

	return result.RowsAffected, result.Error
}

func (m *MessageLog) UpdateStatusDeleted(ctx context.Context, key LogKey, at time.Time) (int64, error) {
	result := m.scope(ctx, key).
		Updates(map[string]interface{}{
			"status":     model.MessageStatusDeleted,
			"updated_at": at,
		})

	return result.RowsAffected, result.Error
}

func (m *MessageLog) IncrementRetry(ctx context.Context, id string) error {
	return GetTx(ctx, m.db).Model(&model.MessageLog{}).
		Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (m *MessageLog) RecordClick(ctx context.Context, id string, at time.Time) error {
	return GetTx(ctx, m.db).Model(&model.MessageLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"click_count":     gorm.Expr("click_count + 1"),
			"last_clicked_at": at,
		}).Error
}
