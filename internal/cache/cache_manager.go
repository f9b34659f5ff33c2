// Package cache mirrors house state into Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/August1314/nicehouse/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss key absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Config key layout and expiry.
type Config struct {
	KeyPrefix    string        // e.g. "nicehouse:"
	TTL          time.Duration // applied to every state key
	AlarmStream  string
	StreamMaxLen int64
}

// DefaultConfig nicehouse: prefix, 30s TTL, 1000-entry alarm stream.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:    "nicehouse:",
		TTL:          30 * time.Second,
		AlarmStream:  "nicehouse:alarms",
		StreamMaxLen: 1000,
	}
}

// CacheManager JSON state keys with TTL.
type CacheManager struct {
	config      Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager wraps an open client.
func NewCacheManager(cfg Config, redisClient *redis.Client, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) snapshotKey() string { return c.config.KeyPrefix + "snapshot" }
func (c *CacheManager) alarmsKey() string   { return c.config.KeyPrefix + "alarms:recent" }
func (c *CacheManager) personKey() string   { return c.config.KeyPrefix + "person" }
func (c *CacheManager) vitalsKey() string   { return c.config.KeyPrefix + "vitals" }
func (c *CacheManager) energyKey() string   { return c.config.KeyPrefix + "energy" }

func (c *CacheManager) roomKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:environment", c.config.KeyPrefix, roomID)
}

func (c *CacheManager) set(ctx context.Context, key string, value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.redisClient.Set(ctx, key, jsonData, c.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (c *CacheManager) get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrCacheMiss, key)
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// StoreSnapshot writes the whole snapshot plus one key per room, the person, vitals and recent alarms.
func (c *CacheManager) StoreSnapshot(ctx context.Context, snap models.Snapshot) error {
	pipe := c.redisClient.TxPipeline()
	add := func(key string, value interface{}) error {
		jsonData, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		pipe.Set(ctx, key, jsonData, c.config.TTL)
		return nil
	}

	if err := add(c.snapshotKey(), snap); err != nil {
		return err
	}
	for _, room := range snap.Rooms {
		if !room.HasData {
			continue
		}
		if err := add(c.roomKey(room.Room.RoomID), room.Environment); err != nil {
			return err
		}
	}
	if err := add(c.personKey(), snap.Person); err != nil {
		return err
	}
	if err := add(c.vitalsKey(), snap.Vitals); err != nil {
		return err
	}
	if err := add(c.alarmsKey(), snap.RecentAlarms); err != nil {
		return err
	}
	if err := add(c.energyKey(), map[string]float64{
		"total_power":  snap.TotalPower,
		"total_energy": snap.TotalEnergy,
	}); err != nil {
		return err
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	c.logger.Debug("Updated snapshot cache",
		zap.Int("room_count", len(snap.Rooms)),
		zap.Int("alarm_count", len(snap.RecentAlarms)),
	)
	return nil
}

// GetSnapshot last stored snapshot.
func (c *CacheManager) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.get(ctx, c.snapshotKey(), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// StoreRoomEnvironment writes one room's reading.
func (c *CacheManager) StoreRoomEnvironment(ctx context.Context, roomID string, env models.RoomEnvironment) error {
	return c.set(ctx, c.roomKey(roomID), env)
}

// GetRoomEnvironment cached reading for roomID.
func (c *CacheManager) GetRoomEnvironment(ctx context.Context, roomID string) (*models.RoomEnvironment, error) {
	var env models.RoomEnvironment
	if err := c.get(ctx, c.roomKey(roomID), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// GetRecentAlarms cached recent alarms.
func (c *CacheManager) GetRecentAlarms(ctx context.Context) ([]models.AlarmRecord, error) {
	var alarms []models.AlarmRecord
	if err := c.get(ctx, c.alarmsKey(), &alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}

// GetPersonStatus cached occupant status.
func (c *CacheManager) GetPersonStatus(ctx context.Context) (*models.PersonStatus, error) {
	var st models.PersonStatus
	if err := c.get(ctx, c.personKey(), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetCachedRoomIDs scans for room keys.
func (c *CacheManager) GetCachedRoomIDs(ctx context.Context) ([]string, error) {
	prefix := c.config.KeyPrefix + "room:"
	suffix := ":environment"
	var roomIDs []string
	iter := c.redisClient.Scan(ctx, 0, prefix+"*"+suffix, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		roomIDs = append(roomIDs, strings.TrimSuffix(strings.TrimPrefix(key, prefix), suffix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return roomIDs, nil
}
