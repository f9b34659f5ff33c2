package cache

import (
	"context"
	"fmt"

	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/notify"

	commonredis "github.com/August1314/nicehouse/common/redis"
	"github.com/go-redis/redis/v8"
)

// AlarmStream appends alarm events to a Redis stream for downstream archivers.
type AlarmStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewAlarmStream stream named by cfg.AlarmStream.
func NewAlarmStream(client *redis.Client, cfg Config) *AlarmStream {
	return &AlarmStream{client: client, stream: cfg.AlarmStream, maxLen: cfg.StreamMaxLen}
}

// Name notifier name.
func (s *AlarmStream) Name() string { return "redis-stream" }

// Notify XADDs ev as a JSON data field.
func (s *AlarmStream) Notify(ctx context.Context, ev models.AlarmEvent) error {
	if _, err := commonredis.PublishJSONToStream(ctx, s.client, s.stream, ev, s.maxLen); err != nil {
		return fmt.Errorf("publish alarm %s: %w", ev.ID, err)
	}
	return nil
}

var _ notify.Notifier = (*AlarmStream)(nil)
