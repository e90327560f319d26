package consumer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DLTConsumer drains the dead-letter topic and logs each message for
// operators. Dead letters are committed on receipt; logging is their handling.
type DLTConsumer struct {
	reader MessageReader
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewDLTConsumer(reader MessageReader, logger *zap.Logger) *DLTConsumer {
	return &DLTConsumer{
		reader: reader,
		logger: logger,
	}
}

func (c *DLTConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.reader.Close()

		c.logger.Info("Dead letter consumer started")

		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("Dead letter consumer stopped")
					return
				}
				c.logger.Error("Error fetching message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			headers := make(map[string]string, len(msg.Headers))
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}

			c.logger.Error("Dead letter message received",
				zap.String("key", string(msg.Key)),
				zap.String("value", string(msg.Value)),
				zap.String("original_topic", headers[HeaderOriginalTopic]),
				zap.String("original_partition", headers[HeaderOriginalPartition]),
				zap.String("original_offset", headers[HeaderOriginalOffset]),
				zap.String("error", headers[HeaderErrorMessage]))

			if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
				c.logger.Error("Error committing dead letter", zap.Error(err))
			}
		}
	}()
}

func (c *DLTConsumer) Wait() {
	c.wg.Wait()
}
