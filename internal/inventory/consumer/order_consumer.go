package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/service"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Dead-letter headers describing where the message came from and why it
// failed.
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderErrorMessage      = "x-error-message"
)

const (
	maxProcessAttempts = 3
	retryBackoff       = 500 * time.Millisecond
	processTimeout     = 30 * time.Second
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers ...kafka.Header) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, event events.OrderCreatedEvent) (*service.ReconcileResult, error)
}

// OrderConsumer runs the single consume loop of the reconciler. Offsets are
// committed only after the decrement-and-publish sequence finished, so a crash
// mid-processing redelivers and the dedup record keeps the ledger correct.
type OrderConsumer struct {
	reader     MessageReader
	reconciler Reconciler
	publisher  Publisher
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewOrderConsumer(reader MessageReader, reconciler Reconciler, publisher Publisher, logger *zap.Logger) *OrderConsumer {
	return &OrderConsumer{
		reader:     reader,
		reconciler: reconciler,
		publisher:  publisher,
		logger:     logger,
	}
}

// Start launches the consume loop. Cancelling ctx stops polling; the in-flight
// message is drained before the loop exits.
func (c *OrderConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.reader.Close()

		c.logger.Info("Order consumer started", zap.String("topic", events.TopicOrderCreated))

		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("Order consumer stopped")
					return
				}
				c.logger.Error("Error fetching message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			// The in-flight message finishes even when shutdown started.
			processCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
			commit := c.processMessage(processCtx, msg)
			if commit {
				if err := c.reader.CommitMessages(processCtx, msg); err != nil {
					c.logger.Error("Error committing message",
						zap.Int64("offset", msg.Offset),
						zap.Error(err))
				}
			}
			cancel()
		}
	}()
}

// Wait blocks until the consume loop has drained and exited.
func (c *OrderConsumer) Wait() {
	c.wg.Wait()
}

// processMessage reports whether the offset may be committed.
func (c *OrderConsumer) processMessage(ctx context.Context, msg kafka.Message) bool {
	var event events.OrderCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event, routing to dead letter",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return c.deadLetter(ctx, msg, err)
	}

	c.logger.Info("Processing order created event",
		zap.String("order_id", event.OrderID),
		zap.String("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity))

	var lastErr error
	for attempt := 1; attempt <= maxProcessAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(retryBackoff)
		}

		result, err := c.reconciler.Reconcile(ctx, event)
		if err != nil {
			if errors.Is(err, service.ErrInsufficientStock) || errors.Is(err, service.ErrStockNotFound) {
				return c.publishDeductionFailed(ctx, event, err)
			}
			lastErr = err
			c.logger.Warn("Transient reconcile failure",
				zap.String("order_id", event.OrderID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		if err := c.publishStockUpdated(ctx, event, result); err != nil {
			// The dedup record keeps the decrement from applying twice while
			// the publish is retried.
			lastErr = err
			c.logger.Warn("Failed to publish stock update",
				zap.String("order_id", event.OrderID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		return true
	}

	// Bounded retries exhausted. Leaving the offset uncommitted would strand
	// this message as soon as a later offset on the partition commits, so it
	// goes to the dead-letter topic and the offset advances only once that
	// publish succeeded.
	c.logger.Error("Retries exhausted, routing to dead letter",
		zap.String("order_id", event.OrderID),
		zap.Error(lastErr))
	return c.deadLetter(ctx, msg, lastErr)
}

func (c *OrderConsumer) publishStockUpdated(ctx context.Context, event events.OrderCreatedEvent, result *service.ReconcileResult) error {
	updated := events.StockUpdatedEvent{
		ProductID: result.Record.ProductID,
		NewStock:  result.Record.Stock,
		UpdatedAt: result.Record.UpdatedAt,
	}

	payload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to marshal stock updated event: %w", err)
	}

	if err := c.publisher.Publish(ctx, events.TopicStockUpdated, updated.ProductID, payload); err != nil {
		return err
	}

	metrics.EventsPublished.WithLabelValues(events.TopicStockUpdated).Inc()
	return nil
}

func (c *OrderConsumer) publishDeductionFailed(ctx context.Context, event events.OrderCreatedEvent, cause error) bool {
	reason := events.ReasonInsufficientStock
	if errors.Is(cause, service.ErrStockNotFound) {
		reason = events.ReasonStockNotFound
	}

	c.logger.Warn("Order cannot be fulfilled",
		zap.String("order_id", event.OrderID),
		zap.String("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity),
		zap.String("reason", reason))

	failed := events.StockDeductionFailedEvent{
		OrderID:   event.OrderID,
		ProductID: event.ProductID,
		Quantity:  event.Quantity,
		Reason:    reason,
	}

	payload, err := json.Marshal(failed)
	if err != nil {
		c.logger.Error("Failed to marshal deduction failed event", zap.Error(err))
		return false
	}

	if err := c.publisher.Publish(ctx, events.TopicOrderUnfulfilled, failed.OrderID, payload); err != nil {
		return false
	}

	metrics.EventsPublished.WithLabelValues(events.TopicOrderUnfulfilled).Inc()
	return true
}

func (c *OrderConsumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) bool {
	headers := []kafka.Header{
		{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		{Key: HeaderErrorMessage, Value: []byte(cause.Error())},
	}

	if err := c.publisher.Publish(ctx, events.TopicOrderDeadLetter, string(msg.Key), msg.Value, headers...); err != nil {
		c.logger.Error("Failed to publish dead letter", zap.Error(err))
		return false
	}

	metrics.DeadLetters.Inc()
	return true
}
