package repository

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCampaignSendLogDuplicate = errors.New("CAMPAIGN_SEND_LOG_DUPLICATE")

type CampaignSendLogRepository interface {
	Create(ctx context.Context, log *model.CampaignSendLog) error
	CreateBatch(ctx context.Context, logs []model.CampaignSendLog) error
	BulkLoad(ctx context.Context, logs []model.CampaignSendLog) error
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

type CampaignSendLog struct {
	db *gorm.DB
}

func NewCampaignSendLogRepository(db *gorm.DB) CampaignSendLogRepository {
	return &CampaignSendLog{db: db}
}

func (c *CampaignSendLog) Create(ctx context.Context, log *model.CampaignSendLog) error {
	db := GetTx(ctx, c.db)
	err := db.Create(log).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrCampaignSendLogDuplicate
	}

	return err
}

func (c *CampaignSendLog) CreateBatch(ctx context.Context, logs []model.CampaignSendLog) error {
	if len(logs) == 0 {
		return nil
	}

	db := GetTx(ctx, c.db)
	return db.Clauses(clause.Insert{Modifier: "IGNORE"}).CreateInBatches(&logs, 100).Error
}

const campaignSendLogBulkStatement = `LOAD DATA LOCAL INFILE '%s' IGNORE INTO TABLE campaign_send_logs ` +
	`FIELDS TERMINATED BY '\t' LINES TERMINATED BY '\n' ` +
	`(id, tenant_id, campaign_id, recipient_id, message_log_id, status, error_message, dedupe_key, ` +
	`provider_message_id, created_at, updated_at)`

func (c *CampaignSendLog) BulkLoad(ctx context.Context, logs []model.CampaignSendLog) error {
	if len(logs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, l := range logs {
		writeTSVRow(&buf,
			tsvString(l.ID),
			tsvInt64(l.TenantID),
			tsvInt64(l.CampaignID),
			tsvInt64(l.RecipientID),
			tsvString(l.MessageLogID),
			tsvString(string(l.Status)),
			tsvNullString(l.ErrorMessage),
			tsvString(l.DedupeKey),
			tsvNullString(l.ProviderMessageID),
			tsvTime(l.CreatedAt),
			tsvTime(l.UpdatedAt),
		)
	}

	db := c.db.WithContext(ctx)
	return bulkLoad(func(query string) error {
		return db.Exec(query).Error
	}, campaignSendLogBulkStatement, &buf)
}

func (c *CampaignSendLog) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}

	var found []string
	err := c.db.WithContext(ctx).Model(&model.CampaignSendLog{}).
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
