package service

import (
	"context"
	"time"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"go.uber.org/zap"
)

// StatusReconciler applies delivery-status webhook events to persisted
// message-log rows. Every transition is a conditional update, never a
// read-modify-write, so concurrent and out-of-order webhook deliveries for
// the same message cannot race a status backwards. A status never regresses:
// SENT < DELIVERED < READ, with FAILED and DELETED as side states that must
// not erase a confirmed delivery.
type StatusReconciler interface {
	Apply(ctx context.Context, event model.StatusEvent) error
}

type statusReconciler struct {
	logs   repository.MessageLogRepository
	logger *zap.Logger
}

func NewStatusReconciler(logs repository.MessageLogRepository, logger *zap.Logger) StatusReconciler {
	return &statusReconciler{logs: logs, logger: logger}
}

func (r *statusReconciler) Apply(ctx context.Context, event model.StatusEvent) error {
	key := repository.LogKey{
		ID:                event.MessageLogID,
		TenantID:          event.TenantID,
		ProviderMessageID: event.ProviderMessageID,
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	var affected int64
	var err error

	switch event.Status {
	case model.MessageStatusSent:
		// Applies only from pending; a duplicate "sent" must not regress a
		// message already marked delivered.
		affected, err = r.logs.UpdateStatusSent(ctx, key, at)

	case model.MessageStatusDelivered:
		affected, err = r.logs.UpdateStatusDelivered(ctx, key, at)

	case model.MessageStatusRead:
		// Highest rank, always applies; the repository backfills a
		// delivered timestamp if none was ever recorded.
		affected, err = r.logs.UpdateStatusRead(ctx, key, at)

	case model.MessageStatusFailed:
		// A late failure notice must not erase a confirmed delivery.
		affected, err = r.logs.UpdateStatusFailed(ctx, key, at, r.failureMessage(event))

	case model.MessageStatusDeleted:
		affected, err = r.logs.UpdateStatusDeleted(ctx, key, at)

	default:
		r.logger.Warn("Unknown delivery state in status event",
			zap.String("status", string(event.Status)),
			zap.Int64("tenantID", event.TenantID),
			zap.String("providerMessageID", event.ProviderMessageID))
		return nil
	}

	if err != nil {
		r.logger.Error("Failed to apply status event",
			zap.String("status", string(event.Status)),
			zap.Int64("tenantID", event.TenantID),
			zap.String("providerMessageID", event.ProviderMessageID),
			zap.Error(err))
		return err
	}

	if affected == 0 {
		// Expected under at-least-once, out-of-order webhook delivery: the
		// record is ahead of this event, or it never matched at all.
		r.logger.Debug("Status event matched no rows",
			zap.String("status", string(event.Status)),
			zap.Int64("tenantID", event.TenantID),
			zap.String("messageLogID", event.MessageLogID),
			zap.String("providerMessageID", event.ProviderMessageID))
		return nil
	}

	r.logger.Debug("Status event applied",
		zap.String("status", string(event.Status)),
		zap.Int64("tenantID", event.TenantID),
		zap.String("providerMessageID", event.ProviderMessageID))

	return nil
}

func (r *statusReconciler) failureMessage(event model.StatusEvent) string {
	if event.ErrorCode == "" {
		return event.ErrorMessage
	}
	if event.ErrorMessage == "" {
		return event.ErrorCode
	}
	return event.ErrorCode + ": " + event.ErrorMessage
}
