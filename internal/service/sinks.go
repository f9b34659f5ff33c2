package service

import (
	"context"
	"fmt"

	"github.com/August1314/nicehouse/common/database"
	commonmqtt "github.com/August1314/nicehouse/common/mqtt"
	commonredis "github.com/August1314/nicehouse/common/redis"
	"github.com/August1314/nicehouse/internal/telemetry"

	"go.uber.org/zap"
)

// MQTTClient publish, subscribe and disconnect; common/mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler commonmqtt.MessageHandler) error
	Disconnect()
}

// ConnectSinks opens every sink whose address is configured and attaches it.
// Redis is attached before Postgres so the archive reads the alarm stream.
func (h *House) ConnectSinks(ctx context.Context) error {
	cfg := h.cfg

	if cfg.Redis.Enabled() {
		client, err := commonredis.Connect(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		h.AttachRedis(client)
		h.logger.Info("Redis attached", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Database.Enabled() {
		db, err := database.OpenPostgres(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		if err := h.AttachPostgres(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to prepare alarm archive: %w", err)
		}
		h.logger.Info("Postgres archive attached", zap.String("host", cfg.Database.Host))
	}

	if cfg.MQTT.Enabled() {
		client, err := commonmqtt.NewClient(&cfg.MQTT, h.logger)
		if err != nil {
			return fmt.Errorf("failed to connect mqtt: %w", err)
		}
		h.AttachMQTT(client)
		h.logger.Info("MQTT attached", zap.String("broker", cfg.MQTT.Broker))
	}

	if cfg.Kafka.Enabled() {
		h.AttachKafka(telemetry.NewKafkaWriter(&cfg.Kafka))
		h.logger.Info("Kafka attached",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	if cfg.Webhook.URL != "" {
		h.AttachWebhook(cfg.Webhook.URL)
		h.logger.Info("Webhook attached", zap.String("url", cfg.Webhook.URL))
	}

	h.logger.Info("Alarm notifiers ready", zap.Strings("notifiers", h.responder.Notifiers()))
	return nil
}
