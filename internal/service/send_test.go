package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/mocks"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
	"go.uber.org/zap"
)

type capturedMessageLogs struct {
	records []model.MessageLog
}

func (c *capturedMessageLogs) Enqueue(record model.MessageLog) {
	c.records = append(c.records, record)
}

type capturedCampaignLogs struct {
	records []model.CampaignSendLog
}

func (c *capturedCampaignLogs) Enqueue(record model.CampaignSendLog) {
	c.records = append(c.records, record)
}

func sendCommand() service.SendCommand {
	return service.SendCommand{
		Plan: model.SendPlan{
			TenantID:     42,
			Provider:     model.ProviderMetaCloud,
			SenderID:     "1050123456",
			TemplateName: "order_update",
			Language:     "en",
		},
		Recipient: model.RecipientPlan{
			RecipientID:    7,
			Destination:    "+15551234567",
			BodyParamsJSON: `["Alice","#1029"]`,
			IdempotencyKey: "send-42-7",
		},
		RenderedBody: "Hi Alice, order #1029 shipped",
		TemplateID:   "tpl-1",
	}
}

func TestSend_Send(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	builder := service.NewEnvelopeBuilder(logger)
	validator := service.NewSendValidator()

	newService := func(factory *mocks.ProviderFactory, provider *mocks.ProviderService,
		logs *mocks.MessageLogRepository) (service.SendService, *capturedMessageLogs, *capturedCampaignLogs) {
		messageSink := &capturedMessageLogs{}
		campaignSink := &capturedCampaignLogs{}
		svc := service.NewSendService(builder, validator, factory, provider, logs, messageSink, campaignSink, logger)
		return svc, messageSink, campaignSink
	}

	t.Run("successful send logs a sent record", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(nil, repository.ErrMessageLogNotFound)
		factory.On("AdapterFor", ctx, int64(42),
			&service.SendOverride{Provider: model.ProviderMetaCloud, SenderID: "1050123456"}).
			Return(adapter, nil)
		provider.On("SendWithRetry", ctx,
			mock.AnythingOfType("func(context.Context) (waprovider.SendResult, error)")).
			Return(waprovider.SendResult{
				Success:           true,
				Provider:          "META_CLOUD",
				ProviderMessageID: "wamid.abc",
			}, nil)

		svc, messageSink, campaignSink := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.False(t, resp.Duplicate)
		assert.NotEmpty(t, resp.MessageLogID)
		assert.Equal(t, "wamid.abc", resp.Result.ProviderMessageID)

		assert.Len(t, messageSink.records, 1)
		record := messageSink.records[0]
		assert.Equal(t, model.MessageStatusSent, record.Status)
		assert.Equal(t, "send-42-7", record.DedupeKey)
		assert.Equal(t, int64(42), record.TenantID)
		assert.NotNil(t, record.SentAt)
		assert.NotNil(t, record.ProviderMessageID)
		assert.Equal(t, "wamid.abc", *record.ProviderMessageID)
		assert.Empty(t, campaignSink.records)
	})

	t.Run("failed provider response logs a failed record", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(nil, repository.ErrMessageLogNotFound)
		factory.On("AdapterFor", ctx, int64(42), mock.Anything).Return(adapter, nil)
		provider.On("SendWithRetry", ctx, mock.Anything).
			Return(waprovider.SendResult{
				Success:     false,
				Provider:    "META_CLOUD",
				HTTPStatus:  400,
				ErrorReason: "(#132000) template param count mismatch",
			}, nil)

		svc, messageSink, _ := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.False(t, resp.Result.Success)

		assert.Len(t, messageSink.records, 1)
		record := messageSink.records[0]
		assert.Equal(t, model.MessageStatusFailed, record.Status)
		assert.Nil(t, record.SentAt)
		assert.NotNil(t, record.ErrorMessage)
		assert.Contains(t, *record.ErrorMessage, "132000")
	})

	t.Run("transport exhaustion still logs a failed record", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(nil, repository.ErrMessageLogNotFound)
		factory.On("AdapterFor", ctx, int64(42), mock.Anything).Return(adapter, nil)
		provider.On("SendWithRetry", ctx, mock.Anything).
			Return(waprovider.SendResult{}, errors.New("context deadline exceeded"))

		svc, messageSink, _ := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.False(t, resp.Result.Success)
		assert.Len(t, messageSink.records, 1)
		assert.Equal(t, model.MessageStatusFailed, messageSink.records[0].Status)
	})

	t.Run("validation failure blocks the provider call", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}

		cmd := sendCommand()
		cmd.Recipient.Destination = ""

		svc, messageSink, _ := newService(factory, provider, logs)

		_, err := svc.Send(ctx, cmd)

		var validationErr service.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.NotEmpty(t, validationErr.Issues)
		assert.Empty(t, messageSink.records)
		factory.AssertNotCalled(t, "AdapterFor", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate idempotency key suppresses the resend", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}

		cmd := sendCommand()

		providerMessageID := "wamid.first"
		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(&model.MessageLog{
				ID:                "existing-id",
				TenantID:          42,
				Status:            model.MessageStatusSent,
				ProviderMessageID: &providerMessageID,
			}, nil)

		svc, messageSink, _ := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.True(t, resp.Duplicate)
		assert.Equal(t, "existing-id", resp.MessageLogID)
		assert.Equal(t, "wamid.first", resp.Result.ProviderMessageID)
		assert.Empty(t, messageSink.records)
		provider.AssertNotCalled(t, "SendWithRetry", mock.Anything, mock.Anything)
	})

	t.Run("previously failed key is re-attempted with a suffixed dedupe key", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(&model.MessageLog{
				ID:         "failed-id",
				TenantID:   42,
				Status:     model.MessageStatusFailed,
				DedupeKey:  "send-42-7",
				RetryCount: 1,
			}, nil)
		logs.On("IncrementRetry", ctx, "failed-id").Return(nil)
		factory.On("AdapterFor", ctx, int64(42), mock.Anything).Return(adapter, nil)
		provider.On("SendWithRetry", ctx, mock.Anything).
			Return(waprovider.SendResult{Success: true, ProviderMessageID: "wamid.retry"}, nil)

		svc, messageSink, _ := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.False(t, resp.Duplicate)
		assert.NotEqual(t, "failed-id", resp.MessageLogID)

		assert.Len(t, messageSink.records, 1)
		assert.Equal(t, "send-42-7#r2", messageSink.records[0].DedupeKey)
		logs.AssertExpectations(t)
	})

	t.Run("campaign sends enqueue the campaign record too", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()
		campaignID := int64(9001)
		cmd.CampaignID = &campaignID

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(nil, repository.ErrMessageLogNotFound)
		factory.On("AdapterFor", ctx, int64(42), mock.Anything).Return(adapter, nil)
		provider.On("SendWithRetry", ctx, mock.Anything).
			Return(waprovider.SendResult{Success: true, ProviderMessageID: "wamid.abc"}, nil)

		svc, messageSink, campaignSink := newService(factory, provider, logs)

		resp, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.Len(t, messageSink.records, 1)
		assert.Len(t, campaignSink.records, 1)

		campaignRecord := campaignSink.records[0]
		assert.Equal(t, resp.MessageLogID, campaignRecord.MessageLogID)
		assert.Equal(t, int64(9001), campaignRecord.CampaignID)
		assert.Equal(t, model.MessageStatusSent, campaignRecord.Status)
		assert.Equal(t, messageSink.records[0].DedupeKey, campaignRecord.DedupeKey)
	})

	t.Run("factory failure surfaces without logging", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}

		cmd := sendCommand()

		logs.On("FindByDedupeKey", ctx, int64(42), "send-42-7").
			Return(nil, repository.ErrMessageLogNotFound)
		factory.On("AdapterFor", ctx, int64(42), mock.Anything).
			Return(nil, service.NewServiceError(service.ErrProviderNotConfigured.Error(),
				errors.New("tenant 42 has no active provider configuration")))

		svc, messageSink, _ := newService(factory, provider, logs)

		_, err := svc.Send(ctx, cmd)

		var serviceErr service.Error
		assert.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, service.ErrProviderNotConfigured.Error(), serviceErr.Code)
		assert.Empty(t, messageSink.records)
	})

	t.Run("missing idempotency key generates one for the record", func(t *testing.T) {
		factory := &mocks.ProviderFactory{}
		provider := &mocks.ProviderService{}
		logs := &mocks.MessageLogRepository{}
		adapter := &mocks.Provider{}

		cmd := sendCommand()
		cmd.Recipient.IdempotencyKey = ""

		factory.On("AdapterFor", ctx, int64(42), mock.Anything).Return(adapter, nil)
		provider.On("SendWithRetry", ctx, mock.Anything).
			Return(waprovider.SendResult{Success: true}, nil)

		svc, messageSink, _ := newService(factory, provider, logs)

		_, err := svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.Len(t, messageSink.records, 1)
		assert.NotEmpty(t, messageSink.records[0].DedupeKey)
		logs.AssertNotCalled(t, "FindByDedupeKey", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSend_TrackClick(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	builder := service.NewEnvelopeBuilder(logger)
	validator := service.NewSendValidator()

	t.Run("records the click", func(t *testing.T) {
		logs := &mocks.MessageLogRepository{}
		logs.On("RecordClick", ctx, "log-1", mock.AnythingOfType("time.Time")).Return(nil)

		svc := service.NewSendService(builder, validator, &mocks.ProviderFactory{},
			&mocks.ProviderService{}, logs, &capturedMessageLogs{}, &capturedCampaignLogs{}, logger)

		assert.NoError(t, svc.TrackClick(ctx, "log-1"))
		logs.AssertExpectations(t)
	})

	t.Run("surfaces repository failures", func(t *testing.T) {
		logs := &mocks.MessageLogRepository{}
		logs.On("RecordClick", ctx, "log-1", mock.AnythingOfType("time.Time")).Return(assert.AnError)

		svc := service.NewSendService(builder, validator, &mocks.ProviderFactory{},
			&mocks.ProviderService{}, logs, &capturedMessageLogs{}, &capturedCampaignLogs{}, logger)

		assert.Error(t, svc.TrackClick(ctx, "log-1"))
	})
}
