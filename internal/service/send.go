package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
	"go.uber.org/zap"
)

// ValidationError carries the field-level issues of a rejected send.
type ValidationError struct {
	Issues []Issue
}

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		fields = append(fields, issue.Field)
	}
	return fmt.Sprintf("send validation failed: %s", strings.Join(fields, ", "))
}

// MessageLogEnqueuer and CampaignLogEnqueuer are the fire-and-forget sides of
// the log sinks; the send pipeline never waits on persistence.
type MessageLogEnqueuer interface {
	Enqueue(record model.MessageLog)
}

type CampaignLogEnqueuer interface {
	Enqueue(record model.CampaignSendLog)
}

// SendService is the pipeline glue: envelope, validation, adapter resolution,
// the provider call, and the audit enqueue, in that order.
type SendService interface {
	Send(ctx context.Context, cmd SendCommand) (SendMessageResponse, error)
	TrackClick(ctx context.Context, messageLogID string) error
}

type send struct {
	builder      EnvelopeBuilder
	validator    SendValidator
	factory      ProviderFactory
	provider     ProviderService
	logs         repository.MessageLogRepository
	messageSink  MessageLogEnqueuer
	campaignSink CampaignLogEnqueuer
	logger       *zap.Logger
}

func NewSendService(builder EnvelopeBuilder, validator SendValidator, factory ProviderFactory,
	provider ProviderService, logs repository.MessageLogRepository,
	messageSink MessageLogEnqueuer, campaignSink CampaignLogEnqueuer, logger *zap.Logger) SendService {
	return &send{
		builder:      builder,
		validator:    validator,
		factory:      factory,
		provider:     provider,
		logs:         logs,
		messageSink:  messageSink,
		campaignSink: campaignSink,
		logger:       logger,
	}
}

func (s *send) Send(ctx context.Context, cmd SendCommand) (SendMessageResponse, error) {
	envelope := s.builder.Build(cmd.Plan, cmd.Recipient)

	validation := s.validator.Validate(cmd.Plan, cmd.Recipient, envelope)
	if !validation.IsValid() {
		s.logger.Warn("Send rejected by pre-flight validation",
			zap.Int64("tenantID", cmd.Plan.TenantID),
			zap.String("template", cmd.Plan.TemplateName),
			zap.Int("errors", len(validation.Errors())))
		return SendMessageResponse{Warnings: validation.Issues}, ValidationError{Issues: validation.Errors()}
	}

	response, dedupeKey, done := s.resolveDedupe(ctx, cmd)
	if done {
		return response, nil
	}

	adapter, err := s.factory.AdapterFor(ctx, cmd.Plan.TenantID, s.override(cmd.Plan))
	if err != nil {
		return SendMessageResponse{}, err
	}

	result, err := s.provider.SendWithRetry(ctx, func(ctx context.Context) (waprovider.SendResult, error) {
		return adapter.SendTemplate(ctx, cmd.Recipient.Destination, waprovider.TemplateMessage{
			Name:       cmd.Plan.TemplateName,
			Language:   cmd.Plan.Language,
			Components: buildComponents(envelope),
		})
	})
	if err != nil {
		// Transport never answered; record the attempt as failed so the
		// audit trail still shows it.
		result = waprovider.SendResult{
			Provider:    string(cmd.Plan.Provider),
			ErrorReason: err.Error(),
		}
	}

	record := s.buildRecord(cmd, result, dedupeKey)
	s.messageSink.Enqueue(record)

	if cmd.CampaignID != nil {
		s.campaignSink.Enqueue(s.buildCampaignRecord(cmd, record))
	}

	s.logger.Debug("Send processed",
		zap.Int64("tenantID", cmd.Plan.TenantID),
		zap.String("messageLogID", record.ID),
		zap.Bool("success", result.Success),
		zap.String("providerMessageID", result.ProviderMessageID))

	return SendMessageResponse{
		MessageLogID: record.ID,
		Result:       result,
		Warnings:     validation.Issues,
	}, nil
}

// TrackClick records one link click against a message-log row.
func (s *send) TrackClick(ctx context.Context, messageLogID string) error {
	if err := s.logs.RecordClick(ctx, messageLogID, time.Now()); err != nil {
		s.logger.Warn("Failed to record click",
			zap.String("messageLogID", messageLogID),
			zap.Error(err))
		return err
	}
	return nil
}

// resolveDedupe decides what the idempotency key means for this send. An
// unseen key passes through unchanged. A key already logged on a non-failed
// row short-circuits the send with the original record. A key logged on a
// failed row goes back through the pipeline: the original row's retry count
// records the re-attempt, and the new audit row gets a retry-suffixed dedupe
// key so the unique index keeps one row per attempt.
func (s *send) resolveDedupe(ctx context.Context, cmd SendCommand) (SendMessageResponse, string, bool) {
	key := strings.TrimSpace(cmd.Recipient.IdempotencyKey)
	if key == "" {
		return SendMessageResponse{}, "", false
	}

	existing, err := s.logs.FindByDedupeKey(ctx, cmd.Plan.TenantID, key)
	if err != nil {
		if !errors.Is(err, repository.ErrMessageLogNotFound) {
			s.logger.Warn("Dedupe lookup failed, proceeding with send",
				zap.Int64("tenantID", cmd.Plan.TenantID),
				zap.Error(err))
		}
		return SendMessageResponse{}, key, false
	}

	if existing.Status == model.MessageStatusFailed {
		if err := s.logs.IncrementRetry(ctx, existing.ID); err != nil {
			s.logger.Warn("Failed to bump retry count on re-attempt",
				zap.String("messageLogID", existing.ID),
				zap.Error(err))
		}
		s.logger.Info("Re-attempting previously failed send",
			zap.Int64("tenantID", cmd.Plan.TenantID),
			zap.String("idempotencyKey", key),
			zap.String("messageLogID", existing.ID))
		return SendMessageResponse{}, fmt.Sprintf("%s#r%d", key, existing.RetryCount+1), false
	}

	s.logger.Info("Duplicate send suppressed",
		zap.Int64("tenantID", cmd.Plan.TenantID),
		zap.String("idempotencyKey", key),
		zap.String("messageLogID", existing.ID))

	result := waprovider.SendResult{
		Success:  true,
		Provider: string(cmd.Plan.Provider),
	}
	if existing.ProviderMessageID != nil {
		result.ProviderMessageID = *existing.ProviderMessageID
	}

	return SendMessageResponse{MessageLogID: existing.ID, Result: result, Duplicate: true}, "", true
}

func (s *send) override(plan model.SendPlan) *SendOverride {
	if plan.SenderID == "" {
		return nil
	}
	return &SendOverride{Provider: plan.Provider, SenderID: plan.SenderID}
}

func (s *send) buildRecord(cmd SendCommand, result waprovider.SendResult, dedupeKey string) model.MessageLog {
	now := time.Now()

	if dedupeKey == "" {
		dedupeKey = uuid.NewString()
	}

	recipientID := cmd.Recipient.RecipientID
	record := model.MessageLog{
		ID:          uuid.NewString(),
		TenantID:    cmd.Plan.TenantID,
		CampaignID:  cmd.CampaignID,
		FlowID:      cmd.FlowID,
		RecipientID: &recipientID,
		Destination: cmd.Recipient.Destination,
		Body:        cmd.RenderedBody,
		TemplateID:  cmd.TemplateID,
		DedupeKey:   dedupeKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if result.Success {
		record.Status = model.MessageStatusSent
		record.SentAt = &now
		if result.ProviderMessageID != "" {
			providerMessageID := result.ProviderMessageID
			record.ProviderMessageID = &providerMessageID
		}
	} else {
		record.Status = model.MessageStatusFailed
		if result.ErrorReason != "" {
			reason := result.ErrorReason
			record.ErrorMessage = &reason
		}
	}

	return record
}

func (s *send) buildCampaignRecord(cmd SendCommand, parent model.MessageLog) model.CampaignSendLog {
	record := model.CampaignSendLog{
		ID:                uuid.NewString(),
		TenantID:          parent.TenantID,
		CampaignID:        *cmd.CampaignID,
		RecipientID:       cmd.Recipient.RecipientID,
		MessageLogID:      parent.ID,
		Status:            parent.Status,
		ErrorMessage:      parent.ErrorMessage,
		DedupeKey:         parent.DedupeKey,
		ProviderMessageID: parent.ProviderMessageID,
		CreatedAt:         parent.CreatedAt,
		UpdatedAt:         parent.UpdatedAt,
	}

	return record
}

// buildComponents turns the resolved envelope into provider-neutral template
// components: media or text header, positional body parameters, then one
// component per button that has a per-recipient parameter.
func buildComponents(envelope model.TemplateEnvelope) []waprovider.Component {
	var components []waprovider.Component

	switch {
	case envelope.HeaderKind.IsMedia():
		components = append(components, waprovider.Component{
			Kind: "header",
			Parameters: []waprovider.Parameter{
				{Kind: string(envelope.HeaderKind), MediaURL: envelope.HeaderURL},
			},
		})
	case envelope.HeaderKind == model.HeaderKindText && len(envelope.HeaderParams) > 0:
		header := waprovider.Component{Kind: "header"}
		for _, param := range envelope.HeaderParams {
			header.Parameters = append(header.Parameters, waprovider.Parameter{Kind: "text", Text: param})
		}
		components = append(components, header)
	}

	if len(envelope.BodyParams) > 0 {
		body := waprovider.Component{Kind: "body"}
		for _, param := range envelope.BodyParams {
			body.Parameters = append(body.Parameters, waprovider.Parameter{Kind: "text", Text: param})
		}
		components = append(components, body)
	}

	for _, button := range envelope.Buttons {
		switch button.Kind {
		case model.ButtonKindURL:
			param, ok := envelope.ButtonParams[fmt.Sprintf("button%d.url_param", button.Index)]
			if !ok {
				continue
			}
			components = append(components, waprovider.Component{
				Kind:          "button",
				ButtonSubType: "url",
				ButtonIndex:   button.Index - 1,
				Parameters:    []waprovider.Parameter{{Kind: "text", Text: param}},
			})
		case model.ButtonKindQuickReply:
			param, ok := envelope.ButtonParams[fmt.Sprintf("button%d.payload", button.Index)]
			if !ok {
				continue
			}
			components = append(components, waprovider.Component{
				Kind:          "button",
				ButtonSubType: "quick_reply",
				ButtonIndex:   button.Index - 1,
				Parameters:    []waprovider.Parameter{{Kind: "payload", Payload: param}},
			})
		}
	}

	return components
}
