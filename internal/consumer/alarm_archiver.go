// Package consumer drains the alarm stream into the archive.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonredis "github.com/August1314/nicehouse/common/redis"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Archive persists alarm events.
type Archive interface {
	Create(ctx context.Context, ev models.AlarmEvent) error
}

// ArchiverConfig stream and consumer group settings.
type ArchiverConfig struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int64
	Block         time.Duration // negative: do not block
}

// DefaultArchiverConfig reads nicehouse:alarms in batches of 50.
func DefaultArchiverConfig() ArchiverConfig {
	return ArchiverConfig{
		Stream:        "nicehouse:alarms",
		ConsumerGroup: "nicehouse-archiver",
		ConsumerName:  "archiver-1",
		BatchSize:     50,
		Block:         2 * time.Second,
	}
}

// AlarmArchiver consumer-group reader that writes each alarm to the archive.
type AlarmArchiver struct {
	config      ArchiverConfig
	redisClient *redis.Client
	archive     Archive
	logger      *zap.Logger
}

// NewAlarmArchiver wires the stream to archive.
func NewAlarmArchiver(cfg ArchiverConfig, redisClient *redis.Client, archive Archive, logger *zap.Logger) *AlarmArchiver {
	return &AlarmArchiver{
		config:      cfg,
		redisClient: redisClient,
		archive:     archive,
		logger:      logger,
	}
}

// Start consumes until ctx is done, backing off on read errors.
func (a *AlarmArchiver) Start(ctx context.Context) error {
	if err := commonredis.CreateConsumerGroup(ctx, a.redisClient, a.config.Stream, a.config.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", a.config.Stream, err)
	}

	a.logger.Info("Alarm archiver started",
		zap.String("stream", a.config.Stream),
		zap.String("consumer_group", a.config.ConsumerGroup),
	)

	backoff := time.Second
	maxBackoff := 30 * time.Second
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Alarm archiver stopped")
			return nil
		default:
		}

		if _, err := a.ConsumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Error("Failed to consume alarm stream",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

// ConsumeOnce reads one batch and returns how many alarms were archived.
// Malformed entries are acknowledged and dropped; archive failures stay pending.
func (a *AlarmArchiver) ConsumeOnce(ctx context.Context) (int, error) {
	messages, err := commonredis.ReadFromStream(ctx, a.redisClient,
		a.config.Stream, a.config.ConsumerGroup, a.config.ConsumerName,
		a.config.BatchSize, a.config.Block)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	archived := 0
	var ackIDs []string
	for _, msg := range messages {
		ev, err := decode(msg)
		if err != nil {
			a.logger.Warn("Dropping malformed alarm message",
				zap.String("stream_id", msg.ID),
				zap.Error(err),
			)
			ackIDs = append(ackIDs, msg.ID)
			continue
		}
		if err := a.archive.Create(ctx, ev); err != nil {
			a.logger.Error("Failed to archive alarm",
				zap.String("stream_id", msg.ID),
				zap.String("alarm_id", ev.ID),
				zap.Error(err),
			)
			continue
		}
		archived++
		ackIDs = append(ackIDs, msg.ID)
	}

	if err := commonredis.Ack(ctx, a.redisClient, a.config.Stream, a.config.ConsumerGroup, ackIDs...); err != nil {
		return archived, fmt.Errorf("failed to ack alarm messages: %w", err)
	}
	return archived, nil
}

func decode(msg commonredis.StreamMessage) (models.AlarmEvent, error) {
	var ev models.AlarmEvent
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return ev, fmt.Errorf("missing data field in message")
	}
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return ev, fmt.Errorf("failed to unmarshal message data: %w", err)
	}
	if ev.ID == "" {
		return ev, fmt.Errorf("alarm without id")
	}
	return ev, nil
}
