package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/model"
)

type CampaignSendLogRepository struct {
	mock.Mock
}

func (m *CampaignSendLogRepository) Create(ctx context.Context, log *model.CampaignSendLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *CampaignSendLogRepository) CreateBatch(ctx context.Context, logs []model.CampaignSendLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *CampaignSendLogRepository) BulkLoad(ctx context.Context, logs []model.CampaignSendLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *CampaignSendLogRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}
