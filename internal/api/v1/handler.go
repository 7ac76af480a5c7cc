package v1

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/velora/messaging-services/msggateway/internal/constants"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	logger     *zap.Logger
	sender     service.SendService
	directory  service.ProviderDirectory
	reconciler service.StatusReconciler
}

func NewHandler(logger *zap.Logger, sender service.SendService,
	directory service.ProviderDirectory, reconciler service.StatusReconciler) *Handler {
	return &Handler{logger: logger, sender: sender, directory: directory, reconciler: reconciler}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) SendTemplate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SendTemplateRequest

	if err := c.BodyParser(&request); err != nil {
		h.logger.Warn("Failed to parse body",
			zap.Error(err),
			zap.String("body", string(c.Body())))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
		})
	}

	cmd := buildSendCommand(request)

	resp, err := h.sender.Send(ctx, cmd)
	if err != nil {
		h.logger.Error("Failed to process send",
			zap.Error(err),
			zap.Int64("tenantID", request.TenantID),
			zap.String("template", request.TemplateName),
			zap.String("destination", request.Recipient.Destination),
		)

		return err
	}

	status := model.MessageStatusSent
	if !resp.Result.Success {
		status = model.MessageStatusFailed
	}

	return c.Status(fiber.StatusCreated).JSON(SendTemplateResponse{
		MessageLogID:      resp.MessageLogID,
		Status:            string(status),
		ProviderMessageID: resp.Result.ProviderMessageID,
		Duplicate:         resp.Duplicate,
		Warnings:          buildWarnings(resp.Warnings),
	})
}

// Click registers one tracked-link click against a logged message.
func (h *Handler) Click(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageLogID := c.Params("id")
	if messageLogID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
		})
	}

	if err := h.sender.TrackClick(ctx, messageLogID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Webhook ingests delivery-status callbacks. It always answers 200 once the
// body parses; providers retry non-2xx responses and a replayed status is
// harmless to the reconciler, while a retry storm is not.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	provider, ok := parseProvider(c.Params("provider"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":    constants.ErrCodeUnsupportedProvider,
			"message": constants.GetErrorMessage(constants.ErrCodeUnsupportedProvider),
		})
	}

	var request WebhookRequest

	if err := c.BodyParser(&request); err != nil {
		h.logger.Warn("Failed to parse webhook body",
			zap.Error(err),
			zap.String("provider", string(provider)))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
		})
	}

	received, applied := 0, 0

	for _, entry := range request.Entry {
		for _, change := range entry.Changes {
			query := service.DirectoryQuery{
				Provider:          provider,
				SenderID:          change.Value.Metadata.PhoneNumberID,
				DisplayAddress:    change.Value.Metadata.DisplayPhoneNumber,
				BusinessAccountID: entry.ID,
			}

			received += len(change.Value.Statuses)

			tenantID, err := h.directory.ResolveTenant(ctx, query)
			if err != nil {
				h.logger.Warn("Webhook tenant not resolved, statuses dropped",
					zap.String("provider", string(provider)),
					zap.String("phoneNumberID", query.SenderID),
					zap.String("businessAccountID", query.BusinessAccountID),
					zap.Int("statuses", len(change.Value.Statuses)),
					zap.Error(err))
				continue
			}

			for _, status := range change.Value.Statuses {
				event, ok := buildStatusEvent(tenantID, provider, status)
				if !ok {
					h.logger.Warn("Webhook status ignored",
						zap.String("provider", string(provider)),
						zap.String("status", status.Status),
						zap.String("providerMessageID", status.ID))
					continue
				}

				if err := h.reconciler.Apply(ctx, event); err != nil {
					h.logger.Error("Failed to apply status event",
						zap.Error(err),
						zap.Int64("tenantID", tenantID),
						zap.String("providerMessageID", status.ID))
					continue
				}
				applied++
			}
		}
	}

	return c.Status(fiber.StatusOK).JSON(WebhookResponse{Received: received, Applied: applied})
}

func buildSendCommand(request SendTemplateRequest) service.SendCommand {
	buttons := make([]model.ButtonMeta, 0, len(request.Buttons))
	for _, button := range request.Buttons {
		buttons = append(buttons, model.ButtonMeta{
			Index: button.Index,
			Kind:  model.ButtonKind(button.Kind),
			Text:  button.Text,
			URL:   button.URL,
		})
	}

	headerKind := model.HeaderKindNone
	if request.Header.Kind != "" {
		headerKind = model.HeaderKind(strings.ToLower(request.Header.Kind))
	}

	return service.SendCommand{
		Plan: model.SendPlan{
			TenantID:     request.TenantID,
			Provider:     model.ProviderKey(strings.ToUpper(request.Provider)),
			SenderID:     request.SenderID,
			TemplateName: request.TemplateName,
			Language:     request.Language,
			HeaderKind:   headerKind,
			HeaderURL:    request.Header.URL,
			Buttons:      buttons,
		},
		Recipient: model.RecipientPlan{
			RecipientID:    request.Recipient.RecipientID,
			Destination:    request.Recipient.Destination,
			BodyParamsJSON: request.Recipient.BodyParams,
			ExtraJSON:      request.Recipient.ExtraParams,
			IdempotencyKey: request.Recipient.IdempotencyKey,
		},
		CampaignID:   request.CampaignID,
		FlowID:       request.FlowID,
		RenderedBody: request.RenderedBody,
		TemplateID:   request.TemplateID,
	}
}

func buildWarnings(issues []service.Issue) []IssueResponse {
	var warnings []IssueResponse
	for _, issue := range issues {
		if issue.Severity != service.SeverityWarning {
			continue
		}
		warnings = append(warnings, IssueResponse{Field: issue.Field, Message: issue.Message})
	}
	return warnings
}

func parseProvider(raw string) (model.ProviderKey, bool) {
	switch model.ProviderKey(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.ProviderMetaCloud:
		return model.ProviderMetaCloud, true
	case model.ProviderD360:
		return model.ProviderD360, true
	default:
		return "", false
	}
}

func buildStatusEvent(tenantID int64, provider model.ProviderKey, status WebhookStatus) (model.StatusEvent, bool) {
	mapped, ok := mapStatus(status.Status)
	if !ok {
		return model.StatusEvent{}, false
	}

	event := model.StatusEvent{
		TenantID:          tenantID,
		Provider:          provider,
		ProviderMessageID: status.ID,
		Destination:       status.RecipientID,
		Status:            mapped,
	}

	if unix, err := strconv.ParseInt(status.Timestamp, 10, 64); err == nil {
		event.OccurredAt = time.Unix(unix, 0)
	}

	if len(status.Errors) > 0 {
		event.ErrorCode = strconv.Itoa(status.Errors[0].Code)
		event.ErrorMessage = status.Errors[0].Title
		if event.ErrorMessage == "" {
			event.ErrorMessage = status.Errors[0].Message
		}
	}

	return event, true
}

func mapStatus(raw string) (model.MessageStatus, bool) {
	switch strings.ToLower(raw) {
	case "sent":
		return model.MessageStatusSent, true
	case "delivered":
		return model.MessageStatusDelivered, true
	case "read":
		return model.MessageStatusRead, true
	case "failed":
		return model.MessageStatusFailed, true
	case "deleted":
		return model.MessageStatusDeleted, true
	default:
		return "", false
	}
}
