package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "house",
		Password: "secret",
		Database: "nicehouse",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=house password=secret dbname=nicehouse sslmode=disable", cfg.GetDSN())
	assert.True(t, cfg.Enabled())
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TEST_MQTT_BROKER", "tcp://broker:1883")
	os.Setenv("TEST_MQTT_QOS", "1")
	os.Setenv("TEST_MQTT_TOPIC_PREFIX", "home")
	defer func() {
		os.Unsetenv("TEST_MQTT_BROKER")
		os.Unsetenv("TEST_MQTT_QOS")
		os.Unsetenv("TEST_MQTT_TOPIC_PREFIX")
	}()

	cfg := MQTTConfig{ClientID: "default"}
	cfg.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, "default", cfg.ClientID)
	assert.Equal(t, byte(1), cfg.QoS)
	assert.Equal(t, "home", cfg.TopicPrefix)
}

func TestMQTTConfig_LoadFromEnv_InvalidQoS(t *testing.T) {
	os.Setenv("TEST_MQTT_QOS", "7")
	defer os.Unsetenv("TEST_MQTT_QOS")

	cfg := MQTTConfig{QoS: 0}
	cfg.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, byte(0), cfg.QoS)
	assert.False(t, cfg.Enabled())
}

func TestKafkaConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TEST_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	defer os.Unsetenv("TEST_KAFKA_BROKERS")

	cfg := KafkaConfig{Topic: "house.environment"}
	cfg.LoadFromEnv("TEST_KAFKA")

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, "house.environment", cfg.Topic)
	assert.True(t, cfg.Enabled())
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TEST_REDIS_ADDR", "redis:6380")
	os.Setenv("TEST_REDIS_DB", "3")
	defer func() {
		os.Unsetenv("TEST_REDIS_ADDR")
		os.Unsetenv("TEST_REDIS_DB")
	}()

	var cfg RedisConfig
	cfg.LoadFromEnv("TEST_REDIS")

	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
}
