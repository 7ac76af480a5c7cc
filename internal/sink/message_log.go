package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"go.uber.org/zap"
)

// MessageLogSink is the batched writer for the general message log. Producers
// enqueue fire-and-forget; one background consumer loop owns all persistence.
type MessageLogSink struct {
	cfg    Config
	repo   repository.MessageLogRepository
	logger *zap.Logger
	queue  chan model.MessageLog
	done   chan struct{}
}

func NewMessageLogSink(cfg Config, repo repository.MessageLogRepository, logger *zap.Logger) *MessageLogSink {
	cfg = cfg.withDefaults()
	return &MessageLogSink{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		queue:  make(chan model.MessageLog, cfg.QueueCapacity),
		done:   make(chan struct{}),
	}
}

// Enqueue hands a record to the background loop without waiting on
// persistence. Under the block policy a saturated queue stalls the producer;
// under drop_oldest the oldest buffered record is discarded to make room.
func (s *MessageLogSink) Enqueue(record model.MessageLog) {
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
			s.logger.Warn("Message log queue saturated, dropping oldest record",
				zap.String("droppedID", dropped.ID))
		default:
		}
	}
}

// Run is the consumer loop. It flushes when a full batch accumulates or when
// the flush interval elapses with a partial batch, and performs one final
// best-effort flush of everything still buffered on shutdown.
func (s *MessageLogSink) Run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.cfg.FlushInterval)
	defer timer.Stop()

	batch := make([]model.MessageLog, 0, s.cfg.BatchSize)

	for {
		select {
		case record := <-s.queue:
			batch = append(batch, record)
			if len(batch) >= s.cfg.BatchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-timer.C:
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

// Done is closed once the loop has drained and exited.
func (s *MessageLogSink) Done() <-chan struct{} {
	return s.done
}

func (s *MessageLogSink) finalFlush(batch []model.MessageLog) {
	flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()

	for {
		select {
		case record := <-s.queue:
			batch = append(batch, record)
			if len(batch) >= s.cfg.BatchSize {
				s.flush(flushCtx, batch)
				batch = batch[:0]
			}
			continue
		default:
		}
		break
	}

	if len(batch) > 0 {
		s.flush(flushCtx, batch)
	}

	s.logger.Info("Message log sink drained")
}

func (s *MessageLogSink) flush(ctx context.Context, batch []model.MessageLog) {
	start := time.Now()

	err := s.repo.BulkLoad(ctx, batch)
	if err == nil {
		s.logger.Debug("Message log batch flushed via bulk load",
			zap.Int("size", len(batch)),
			zap.Duration("took", time.Since(start)))
		return
	}

	s.logger.Warn("Bulk load failed, falling back to row inserts",
		zap.Int("size", len(batch)),
		zap.Error(err))

	if err := s.writeRows(ctx, batch); err != nil {
		s.logger.Error("Message log batch lost after row-insert verification retry",
			zap.Int("size", len(batch)),
			zap.Error(err))
	}
}

// writeRows is the fallback path: ordinary batched inserts, then a
// verification that every id landed, then exactly one re-insert of the
// missing subset. Rows still absent after that indicate a persistence
// problem that must not be swallowed.
func (s *MessageLogSink) writeRows(ctx context.Context, batch []model.MessageLog) error {
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
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
		return fmt.Errorf("%d message log rows absent after verification retry", len(missing))
	}

	return nil
}

func (s *MessageLogSink) missingRows(ctx context.Context, batch []model.MessageLog) ([]model.MessageLog, error) {
	ids := make([]string, 0, len(batch))
	for _, record := range batch {
		ids = append(ids, record.ID)
	}

	existing, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []model.MessageLog
	for _, record := range batch {
		if _, ok := existing[record.ID]; !ok {
			missing = append(missing, record)
		}
	}

	return missing, nil
}
