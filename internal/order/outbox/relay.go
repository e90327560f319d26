package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/order/domain"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const sweepBatchSize = 100

type Store interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxRecord, error)
	MarkOutboxSent(ctx context.Context, eventID string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers ...kafka.Header) error
}

// Relay sweeps pending outbox rows and publishes them to the bus. A row is
// marked sent only after the broker acked the write, so delivery is
// at-least-once; consumers deduplicate.
type Relay struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewRelay(store Store, publisher Publisher, interval time.Duration, logger *zap.Logger) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("Outbox relay started", zap.Duration("interval", r.interval))

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Outbox relay stopped")
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
}

// Wait blocks until the loop has exited after cancellation.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) sweep(ctx context.Context) {
	records, err := r.store.ListPendingOutbox(ctx, sweepBatchSize)
	if err != nil {
		r.logger.Error("Failed to list pending outbox records", zap.Error(err))
		return
	}

	for _, record := range records {
		if ctx.Err() != nil {
			return
		}

		if err := r.publisher.Publish(ctx, record.Topic, record.PartitionKey, record.Payload); err != nil {
			// 실패한 레코드는 pending 상태로 남아 다음 스윕에서 재시도
			r.logger.Error("Failed to publish outbox record",
				zap.String("event_id", record.EventID),
				zap.String("topic", record.Topic),
				zap.Error(err))
			continue
		}

		metrics.EventsPublished.WithLabelValues(record.Topic).Inc()

		if err := r.store.MarkOutboxSent(ctx, record.EventID); err != nil {
			// Publish succeeded but the mark failed: next sweep publishes a
			// duplicate, which consumers dedup on orderId.
			r.logger.Error("Failed to mark outbox record sent",
				zap.String("event_id", record.EventID),
				zap.Error(err))
		}
	}
}
