package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/auditor/internal/breaker"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes payloads to a Kafka topic keyed by message key.
type KafkaSink struct {
	topic   string
	writer  messageWriter
	breaker *breaker.Breaker
	logger  *slog.Logger
}

var _ Sink = &KafkaSink{} // Compile-time check

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaSinkWithWriter(topic, w, logger)
}

func newKafkaSinkWithWriter(topic string, w messageWriter, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = discardLogger()
	}
	return &KafkaSink{
		topic:   topic,
		writer:  w,
		breaker: breaker.New("kafka", breaker.Config{Logger: logger}),
		logger:  logger,
	}
}

// Name implements Sink.
func (k *KafkaSink) Name() string { return "kafka" }

// Send implements Sink.
func (k *KafkaSink) Send(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: "category", Value: []byte(msg.Category)},
		},
	}
	err := k.breaker.Execute(ctx, func(ctx context.Context) error {
		return k.writer.WriteMessages(ctx, km)
	})
	if err != nil {
		return fmt.Errorf("kafka topic %s: %w", k.topic, err)
	}
	k.logger.Debug("kafka_published", "topic", k.topic, "category", msg.Category)
	return nil
}

// Close implements Sink.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
