package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
)

type MessageLogRepository struct {
	mock.Mock
}

func (m *MessageLogRepository) Create(ctx context.Context, log *model.MessageLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MessageLogRepository) CreateBatch(ctx context.Context, logs []model.MessageLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *MessageLogRepository) BulkLoad(ctx context.Context, logs []model.MessageLog) error {
	args := m.Called(ctx, logs)
	return args.Error(0)
}

func (m *MessageLogRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MessageLogRepository) FindByDedupeKey(ctx context.Context, tenantID int64, dedupeKey string) (*model.MessageLog, error) {
	args := m.Called(ctx, tenantID, dedupeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageLog), args.Error(1)
}

func (m *MessageLogRepository) UpdateStatusSent(ctx context.Context, key repository.LogKey, at time.Time) (int64, error) {
	args := m.Called(ctx, key, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageLogRepository) UpdateStatusDelivered(ctx context.Context, key repository.LogKey, at time.Time) (int64, error) {
	args := m.Called(ctx, key, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageLogRepository) UpdateStatusRead(ctx context.Context, key repository.LogKey, at time.Time) (int64, error) {
	args := m.Called(ctx, key, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageLogRepository) UpdateStatusFailed(ctx context.Context, key repository.LogKey, at time.Time, errMsg string) (int64, error) {
	args := m.Called(ctx, key, at, errMsg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageLogRepository) UpdateStatusDeleted(ctx context.Context, key repository.LogKey, at time.Time) (int64, error) {
	args := m.Called(ctx, key, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageLogRepository) IncrementRetry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageLogRepository) RecordClick(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
