package sink_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/velora/messaging-services/msggateway/internal/mocks"
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/internal/sink"
	"go.uber.org/zap"
)

func campaignRecord(id, parentID string) model.CampaignSendLog {
	return model.CampaignSendLog{
		ID:           id,
		TenantID:     42,
		CampaignID:   9001,
		RecipientID:  7,
		MessageLogID: parentID,
		Status:       model.MessageStatusSent,
		DedupeKey:    "dedupe-" + id,
	}
}

func TestCampaignLogSink_Run(t *testing.T) {
	logger := zap.NewNop()

	t.Run("writes once every parent exists", func(t *testing.T) {
		repo := &mocks.CampaignSendLogRepository{}
		parents := &mocks.MessageLogRepository{}
		tx := &mocks.TxManager{}
		flushed := make(chan struct{})

		parents.On("ExistingIDs", mock.Anything, []string{"parent-1"}).
			Return(map[string]struct{}{"parent-1": {}}, nil)
		repo.On("BulkLoad", mock.Anything, mock.MatchedBy(func(batch []model.CampaignSendLog) bool {
			return len(batch) == 2
		})).Run(func(mock.Arguments) { close(flushed) }).Return(nil)

		s := sink.NewCampaignLogSink(sink.Config{
			BatchSize:     100,
			FlushInterval: time.Hour,
		}, repo, parents, tx, logger)

		s.Enqueue(campaignRecord("a", "parent-1"))
		s.Enqueue(campaignRecord("b", "parent-1"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		go s.Run(ctx)

		waitFor(t, s.Done(), "sink did not stop")
		waitFor(t, flushed, "batch was never written")
		repo.AssertExpectations(t)
	})

	t.Run("holds the batch until the parent appears", func(t *testing.T) {
		repo := &mocks.CampaignSendLogRepository{}
		parents := &mocks.MessageLogRepository{}
		tx := &mocks.TxManager{}
		flushed := make(chan struct{})

		// First check: parent not yet persisted by the message-log pipeline.
		parents.On("ExistingIDs", mock.Anything, []string{"parent-late"}).
			Return(map[string]struct{}{}, nil).Once()
		parents.On("ExistingIDs", mock.Anything, []string{"parent-late"}).
			Return(map[string]struct{}{"parent-late": {}}, nil)
		repo.On("BulkLoad", mock.Anything, mock.MatchedBy(func(batch []model.CampaignSendLog) bool {
			return len(batch) == 1 && batch[0].ID == "a"
		})).Run(func(mock.Arguments) { close(flushed) }).Return(nil)

		s := sink.NewCampaignLogSink(sink.Config{
			BatchSize:     1,
			FlushInterval: 10 * time.Millisecond,
		}, repo, parents, tx, logger)

		ctx, cancel := context.WithCancel(context.Background())
		go s.Run(ctx)

		s.Enqueue(campaignRecord("a", "parent-late"))

		waitFor(t, flushed, "batch was never written after the parent appeared")
		cancel()
		waitFor(t, s.Done(), "sink did not stop")
		repo.AssertExpectations(t)
	})

	t.Run("drops the batch after bounded dependency retries", func(t *testing.T) {
		repo := &mocks.CampaignSendLogRepository{}
		parents := &mocks.MessageLogRepository{}
		tx := &mocks.TxManager{}

		var checks atomic.Int64
		gaveUp := make(chan struct{})

		parents.On("ExistingIDs", mock.Anything, []string{"parent-ghost"}).
			Run(func(mock.Arguments) {
				// Initial flush plus MaxDependencyRetries backlog retries.
				if checks.Add(1) == 3 {
					close(gaveUp)
				}
			}).
			Return(map[string]struct{}{}, nil)

		s := sink.NewCampaignLogSink(sink.Config{
			BatchSize:            1,
			FlushInterval:        10 * time.Millisecond,
			MaxDependencyRetries: 2,
		}, repo, parents, tx, logger)

		ctx, cancel := context.WithCancel(context.Background())
		go s.Run(ctx)

		s.Enqueue(campaignRecord("a", "parent-ghost"))

		waitFor(t, gaveUp, "dependency retries never exhausted")
		cancel()
		waitFor(t, s.Done(), "sink did not stop")

		repo.AssertNotCalled(t, "BulkLoad", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("bulk load failure falls back to transactional row inserts", func(t *testing.T) {
		repo := &mocks.CampaignSendLogRepository{}
		parents := &mocks.MessageLogRepository{}
		tx := &mocks.TxManager{}
		verified := make(chan struct{})

		parents.On("ExistingIDs", mock.Anything, []string{"parent-1"}).
			Return(map[string]struct{}{"parent-1": {}}, nil)
		repo.On("BulkLoad", mock.Anything, mock.Anything).Return(errors.New("infile disabled"))
		tx.On("WithTx", mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(batch []model.CampaignSendLog) bool {
			return len(batch) == 1 && batch[0].ID == "a"
		})).Return(nil)
		repo.On("ExistingIDs", mock.Anything, []string{"a"}).
			Run(func(mock.Arguments) { close(verified) }).
			Return(map[string]struct{}{"a": {}}, nil)

		s := sink.NewCampaignLogSink(sink.Config{
			BatchSize:     100,
			FlushInterval: time.Hour,
		}, repo, parents, tx, logger)

		s.Enqueue(campaignRecord("a", "parent-1"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		go s.Run(ctx)

		waitFor(t, s.Done(), "sink did not stop")
		waitFor(t, verified, "fallback write was never verified")
		tx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}
