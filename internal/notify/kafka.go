package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes booking lifecycle events to a Kafka topic, keyed
// by practitioner so a consumer sees one practitioner's events in order.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}

	return &KafkaNotifier{writer: writer}, nil
}

func (n *KafkaNotifier) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.PractitionerID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
