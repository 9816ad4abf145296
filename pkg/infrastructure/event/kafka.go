package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

const publishTimeout = 10 * time.Second

// KafkaDispatcher publishes domain events to one topic, keyed by event type so
// consumers can route without decoding the payload.
type KafkaDispatcher struct {
	writer *kafka.Writer
}

var _ service.EventDispatcher = &KafkaDispatcher{}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (d *KafkaDispatcher) Dispatch(e service.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "marshal event %s", e.Type())
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Type()),
		Value: payload,
	})
	return errors.Wrapf(err, "publish event %s", e.Type())
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
