package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// flakyReader fails the first fetches before delegating to the inner reader.
type flakyReader struct {
	*fakeReader
	failMu   sync.Mutex
	failures int
}

func (f *flakyReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.failMu.Lock()
	if f.failures > 0 {
		f.failures--
		f.failMu.Unlock()
		return kafka.Message{}, errors.New("connection reset")
	}
	f.failMu.Unlock()
	return f.fakeReader.FetchMessage(ctx)
}

func deadLetterMessage(orderID string) kafka.Message {
	return kafka.Message{
		Topic: events.TopicOrderDeadLetter,
		Key:   []byte(orderID),
		Value: []byte(`{"orderId":"` + orderID + `"}`),
		Headers: []kafka.Header{
			{Key: HeaderOriginalTopic, Value: []byte(events.TopicOrderCreated)},
			{Key: HeaderErrorMessage, Value: []byte("store unavailable")},
		},
	}
}

func TestDLTConsumerLogsFetchErrorAndRecovers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reader := &flakyReader{fakeReader: newFakeReader(deadLetterMessage("o1")), failures: 1}
	c := NewDLTConsumer(reader, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	deadline := time.After(5 * time.Second)
	for reader.committedCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("dead letter never committed after fetch error")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	c.Wait()

	if logs.FilterMessage("Error fetching message").Len() != 1 {
		t.Fatalf("fetch error was not logged")
	}
	received := logs.FilterMessage("Dead letter message received")
	if received.Len() != 1 {
		t.Fatalf("expected one dead letter log, got %d", received.Len())
	}
}
