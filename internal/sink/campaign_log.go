package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"go.uber.org/zap"
)

// CampaignLogSink is the batched writer for the campaign-send audit stream.
// Same shape as the message-log sink, with one extra duty: a campaign row
// references a parent message-log row written by an independent pipeline, so
// a batch is only written once every referenced parent exists. Batches with
// missing parents are requeued a bounded number of times, then dropped loudly
// rather than retried forever against a permanently-missing parent.
type CampaignLogSink struct {
	cfg      Config
	repo     repository.CampaignSendLogRepository
	parents  repository.MessageLogRepository
	tx       repository.TxManager
	logger   *zap.Logger
	queue    chan model.CampaignSendLog
	done     chan struct{}
	backlog  []model.CampaignSendLog
	attempts map[string]int
}

func NewCampaignLogSink(cfg Config, repo repository.CampaignSendLogRepository,
	parents repository.MessageLogRepository, tx repository.TxManager, logger *zap.Logger) *CampaignLogSink {
	cfg = cfg.withDefaults()
	return &CampaignLogSink{
		cfg:      cfg,
		repo:     repo,
		parents:  parents,
		tx:       tx,
		logger:   logger,
		queue:    make(chan model.CampaignSendLog, cfg.QueueCapacity),
		done:     make(chan struct{}),
		attempts: make(map[string]int),
	}
}

func (s *CampaignLogSink) Enqueue(record model.CampaignSendLog) {
	if s.cfg.OverflowPolicy == OverflowBlock {
		s.queue <- record
		return
	}

	for {
		select {
		case s.queue <- record:
			return
		default:
		}

		select {
		case dropped := <-s.queue:
			s.logger.Warn("Campaign send queue saturated, dropping oldest record",
				zap.String("droppedID", dropped.ID))
		default:
		}
	}
}

func (s *CampaignLogSink) Run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.cfg.FlushInterval)
	defer timer.Stop()

	batch := make([]model.CampaignSendLog, 0, s.cfg.BatchSize)

	for {
		select {
		case record := <-s.queue:
			batch = append(batch, record)
			if len(batch) >= s.cfg.BatchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-timer.C:
			// Requeued batches wait for the next tick, which paces
			// dependency retries to the flush interval.
			s.flushBacklog(ctx)
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(s.cfg.FlushInterval)

		case <-ctx.Done():
			s.finalFlush(batch)
			return
		}
	}
}

func (s *CampaignLogSink) Done() <-chan struct{} {
	return s.done
}

func (s *CampaignLogSink) flushBacklog(ctx context.Context) {
	for len(s.backlog) > 0 {
		n := s.cfg.BatchSize
		if n > len(s.backlog) {
			n = len(s.backlog)
		}

		batch := s.backlog[:n]
		s.backlog = s.backlog[n:]

		requeued := len(s.backlog)
		s.flush(ctx, batch)

		// flush may have pushed the batch back; stop to avoid spinning on
		// the same missing parents within one tick.
		if len(s.backlog) > requeued {
			return
		}
	}
}

func (s *CampaignLogSink) finalFlush(batch []model.CampaignSendLog) {
	flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()

	for {
		select {
		case record := <-s.queue:
			batch = append(batch, record)
			continue
		default:
		}
		break
	}

	s.flushBacklog(flushCtx)
	if len(batch) > 0 {
		s.flush(flushCtx, batch)
	}

	s.logger.Info("Campaign send sink drained")
}

func (s *CampaignLogSink) flush(ctx context.Context, batch []model.CampaignSendLog) {
	missing, err := s.missingParents(ctx, batch)
	if err != nil {
		s.logger.Error("Parent existence check failed, requeueing batch",
			zap.Int("size", len(batch)),
			zap.Error(err))
		s.requeue(batch)
		return
	}

	if len(missing) > 0 {
		key := retryKey(missing)
		s.attempts[key]++
		if s.attempts[key] > s.cfg.MaxDependencyRetries {
			delete(s.attempts, key)
			s.logger.Error("Dropping campaign send batch, parent message logs never appeared",
				zap.Int("size", len(batch)),
				zap.Int("missingParents", len(missing)),
				zap.Strings("parentIDs", missing))
			return
		}

		s.logger.Warn("Campaign send batch requeued waiting for parent message logs",
			zap.Int("size", len(batch)),
			zap.Int("missingParents", len(missing)),
			zap.Int("attempt", s.attempts[key]))
		s.requeue(batch)
		return
	}

	s.write(ctx, batch)
}

// requeue copies the batch: the caller reuses its slice for the next batch.
func (s *CampaignLogSink) requeue(batch []model.CampaignSendLog) {
	copied := make([]model.CampaignSendLog, len(batch))
	copy(copied, batch)
	s.backlog = append(s.backlog, copied...)
}

func (s *CampaignLogSink) missingParents(ctx context.Context, batch []model.CampaignSendLog) ([]string, error) {
	ids := make([]string, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, record := range batch {
		if _, ok := seen[record.MessageLogID]; ok {
			continue
		}
		seen[record.MessageLogID] = struct{}{}
		ids = append(ids, record.MessageLogID)
	}

	existing, err := s.parents.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return missingIDs(ids, existing), nil
}

func (s *CampaignLogSink) write(ctx context.Context, batch []model.CampaignSendLog) {
	start := time.Now()

	err := s.repo.BulkLoad(ctx, batch)
	if err == nil {
		s.logger.Debug("Campaign send batch flushed via bulk load",
			zap.Int("size", len(batch)),
			zap.Duration("took", time.Since(start)))
		return
	}

	s.logger.Warn("Bulk load failed, falling back to row inserts",
		zap.Int("size", len(batch)),
		zap.Error(err))

	if err := s.writeRows(ctx, batch); err != nil {
		s.logger.Error("Campaign send batch lost after row-insert verification retry",
			zap.Int("size", len(batch)),
			zap.Error(err))
	}
}

func (s *CampaignLogSink) writeRows(ctx context.Context, batch []model.CampaignSendLog) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateBatch(ctx, batch)
	})
	if err != nil {
		return err
	}

	missing, err := s.missingRows(ctx, batch)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	s.logger.Warn("Rows missing after fallback insert, re-inserting subset",
		zap.Int("missing", len(missing)))

	if err := s.repo.CreateBatch(ctx, missing); err != nil {
		return err
	}

	missing, err = s.missingRows(ctx, missing)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d campaign send rows absent after verification retry", len(missing))
	}

	return nil
}

func (s *CampaignLogSink) missingRows(ctx context.Context, batch []model.CampaignSendLog) ([]model.CampaignSendLog, error) {
	ids := make([]string, 0, len(batch))
	for _, record := range batch {
		ids = append(ids, record.ID)
	}

	existing, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []model.CampaignSendLog
	for _, record := range batch {
		if _, ok := existing[record.ID]; !ok {
			missing = append(missing, record)
		}
	}

	return missing, nil
}
