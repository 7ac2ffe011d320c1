package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const Topic = "quote_notifications"

type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

// Publish keys by channel so one channel keeps its order within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("kafka: marshal envelope: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.Channel),
		Value: b,
		Time:  env.EmittedAt,
	}); err != nil {
		return fmt.Errorf("kafka: write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// KafkaConsumer feeds the local hub from the shared topic. Every instance
// uses its own group id so each one sees every envelope.
type KafkaConsumer struct {
	r    *kafka.Reader
	sink Publisher
	log  *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, sink Publisher, log *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     time.Second,
		}),
		sink: sink,
		log:  loggerOr(log).With("component", "notify.consumer", "topic", topic),
	}
}

// Run blocks until ctx is done or the reader fails.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka: read: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			c.log.Warn("notify_decode_failed", "offset", m.Offset, "error", err)
			continue
		}
		if err := c.sink.Publish(ctx, env); err != nil {
			c.log.Warn("notify_forward_failed", "envelope_id", env.ID, "error", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.r.Close()
}
