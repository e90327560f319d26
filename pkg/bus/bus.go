package bus

import (
    "context"
    "time"

    "github.com/segmentio/kafka-go"
    "go.uber.org/zap"
)

// Publisher wraps a single kafka.Writer shared by every topic. Messages carry
// their topic explicitly; the Hash balancer keeps ordering per partition key.
type Publisher struct {
    writer *kafka.Writer
    logger *zap.Logger
}

func NewPublisher(brokers string, logger *zap.Logger) *Publisher {
    writer := &kafka.Writer{
        Addr:         kafka.TCP(brokers),
        Balancer:     &kafka.Hash{},
        BatchTimeout: 10 * time.Millisecond,
        RequiredAcks: kafka.RequireAll,
    }

    return &Publisher{
        writer: writer,
        logger: logger,
    }
}

// Publish appends one message to topic. Delivery is at-least-once; ordering is
// guaranteed only among messages sharing the same key.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, payload []byte, headers ...kafka.Header) error {
    msg := kafka.Message{
        Topic:   topic,
        Key:     []byte(key),
        Value:   payload,
        Headers: headers,
    }

    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    if err := p.writer.WriteMessages(ctx, msg); err != nil {
        p.logger.Error("Failed to publish message",
            zap.String("topic", topic),
            zap.String("key", key),
            zap.Error(err))
        return err
    }

    p.logger.Info("Event published successfully",
        zap.String("topic", topic),
        zap.String("key", key))

    return nil
}

func (p *Publisher) Close() error {
    if p.writer != nil {
        return p.writer.Close()
    }
    return nil
}

// NewReader returns a group reader for topic. Offsets are not auto-committed;
// callers commit with CommitMessages once processing finished.
func NewReader(brokers string, topic string, groupID string) *kafka.Reader {
    return kafka.NewReader(kafka.ReaderConfig{
        Brokers:        []string{brokers},
        Topic:          topic,
        GroupID:        groupID,
        StartOffset:    kafka.FirstOffset,
        MinBytes:       1,
        MaxBytes:       10e6,
        MaxWait:        500 * time.Millisecond,
        CommitInterval: 0,
    })
}
