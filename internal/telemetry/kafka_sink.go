// Package telemetry streams environment readings to Kafka.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/August1314/nicehouse/common/config"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter subset of *kafka.Writer used by the sink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink one message per room reading, keyed by room id.
type KafkaSink struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaWriter writer for cfg with all-replica acks.
func NewKafkaWriter(cfg *config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// NewKafkaSink wraps w.
func NewKafkaSink(w MessageWriter, topic string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, logger: logger}
}

// WriteSnapshot writes every room with data from snap as one batch.
func (s *KafkaSink) WriteSnapshot(ctx context.Context, snap models.Snapshot) error {
	msgs := make([]kafka.Message, 0, len(snap.Rooms))
	for _, room := range snap.Rooms {
		if !room.HasData {
			continue
		}
		reading := models.EnvironmentReading{
			RoomID:    room.Room.RoomID,
			Timestamp: snap.GeneratedAt.UnixMilli(),
			Values:    room.Environment,
		}
		value, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("marshal reading for %s: %w", reading.RoomID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(reading.RoomID),
			Value: value,
			Time:  snap.GeneratedAt,
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d readings to %s: %w", len(msgs), s.topic, err)
	}
	s.logger.Debug("Environment readings published",
		zap.String("topic", s.topic),
		zap.Int("count", len(msgs)),
	)
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
