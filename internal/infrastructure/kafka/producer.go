package kafka

import (
	"context"
	"fmt"
	"time"

	"daily-habits-tracker/internal/config"
	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Producer publishes habit events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver habit events", "count", len(messages), "error", err)
			}
		},
	}

	return &Producer{
		writer: writer,
	}
}

// Publish publishes a habit event keyed by habit id, or by event id for
// events not tied to one habit
func (p *Producer) Publish(ctx context.Context, event *entity.HabitEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   eventKey(event),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	logger.Debug("published habit event", "type", event.Type, "event_id", event.ID)
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func eventKey(event *entity.HabitEvent) []byte {
	if event.HabitID != uuid.Nil {
		return []byte(event.HabitID.String())
	}
	return []byte(event.ID.String())
}

// encodeEvent marshals the event as a protobuf Struct
func encodeEvent(event *entity.HabitEvent) ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"event_id":    event.ID.String(),
		"event_type":  string(event.Type),
		"habit_id":    event.HabitID.String(),
		"index":       event.Index,
		"name":        event.Name,
		"streak":      event.Streak,
		"pending":     event.Pending,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build event payload: %w", err)
	}

	data, err := proto.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return data, nil
}
