package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/August1314/nicehouse/common/config"
)

// Config house service configuration
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Kafka    config.KafkaConfig

	Log struct {
		Level  string
		Format string
		File   string // rotated through lumberjack when set
	}

	HTTP struct {
		Addr string
	}

	Webhook struct {
		URL     string
		Timeout time.Duration
	}

	House struct {
		LayoutFile string // built-in house when empty
	}

	Intervals struct {
		Simulator  time.Duration
		Influence  time.Duration
		Energy     time.Duration
		Control    time.Duration
		Monitoring time.Duration
		Health     time.Duration
		Safety     time.Duration
		Person     time.Duration
		Snapshot   time.Duration
	}

	Thresholds struct {
		PM25          float64
		PM10          float64
		TempHigh      float64
		TempLow       float64
		Target        float64
		HeatingTarget float64
		HumidityHigh  float64
		HumidityLow   float64
	}

	Monitoring struct {
		LongSitting time.Duration
		LongBathing time.Duration
		Cooldown    time.Duration
	}

	Cache struct {
		KeyPrefix string
		TTL       time.Duration
	}

	AlarmMaxRecords  int
	AutoMode         bool
	PersonAutoSwitch bool
	HealthTestMode   bool

	// RatedPower overrides layout power per device id, e.g. "AC01=1500,Fan01=60".
	RatedPower map[string]float64
}

// Load reads the environment over built-in defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	// sinks stay disabled unless their address is set
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Database = "nicehouse"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.MaxIdle = 2
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.ClientID = "nicehouse"
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = "nicehouse"
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Kafka.Topic = "nicehouse.environment"
	cfg.Kafka.LoadFromEnv("KAFKA")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Webhook.URL = getEnv("WEBHOOK_URL", "")
	cfg.House.LayoutFile = getEnv("HOUSE_LAYOUT_FILE", "")

	var err error
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"WEBHOOK_TIMEOUT", 5 * time.Second, &cfg.Webhook.Timeout},
		{"SIMULATOR_INTERVAL", time.Second, &cfg.Intervals.Simulator},
		{"INFLUENCE_INTERVAL", 100 * time.Millisecond, &cfg.Intervals.Influence},
		{"ENERGY_INTERVAL", time.Second, &cfg.Intervals.Energy},
		{"CONTROL_INTERVAL", time.Second, &cfg.Intervals.Control},
		{"MONITORING_INTERVAL", time.Second, &cfg.Intervals.Monitoring},
		{"HEALTH_INTERVAL", time.Second, &cfg.Intervals.Health},
		{"SAFETY_INTERVAL", time.Second, &cfg.Intervals.Safety},
		{"PERSON_INTERVAL", time.Second, &cfg.Intervals.Person},
		{"SNAPSHOT_INTERVAL", 2 * time.Second, &cfg.Intervals.Snapshot},
		{"LONG_SITTING_DURATION", 30 * time.Minute, &cfg.Monitoring.LongSitting},
		{"LONG_BATHING_DURATION", 20 * time.Minute, &cfg.Monitoring.LongBathing},
		{"ALARM_COOLDOWN", time.Minute, &cfg.Monitoring.Cooldown},
		{"CACHE_TTL", 30 * time.Second, &cfg.Cache.TTL},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	floats := []struct {
		key string
		def float64
		dst *float64
	}{
		{"PM25_THRESHOLD", 75, &cfg.Thresholds.PM25},
		{"PM10_THRESHOLD", 150, &cfg.Thresholds.PM10},
		{"TEMP_HIGH", 28, &cfg.Thresholds.TempHigh},
		{"TEMP_LOW", 18, &cfg.Thresholds.TempLow},
		{"TARGET_TEMP", 24, &cfg.Thresholds.Target},
		{"HEATING_TARGET_TEMP", 22, &cfg.Thresholds.HeatingTarget},
		{"HUMIDITY_HIGH", 70, &cfg.Thresholds.HumidityHigh},
		{"HUMIDITY_LOW", 30, &cfg.Thresholds.HumidityLow},
	}
	for _, f := range floats {
		if *f.dst, err = getFloat(f.key, f.def); err != nil {
			return nil, err
		}
	}

	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "nicehouse:")

	if cfg.AlarmMaxRecords, err = getInt("ALARM_MAX_RECORDS", 100); err != nil {
		return nil, err
	}
	if cfg.AutoMode, err = getBool("AUTO_MODE", true); err != nil {
		return nil, err
	}
	if cfg.PersonAutoSwitch, err = getBool("PERSON_AUTO_SWITCH", false); err != nil {
		return nil, err
	}
	if cfg.HealthTestMode, err = getBool("HEALTH_TEST_MODE", false); err != nil {
		return nil, err
	}
	if cfg.RatedPower, err = ParseRatedPower(getEnv("RATED_POWER", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseRatedPower parses "id=watts" pairs separated by commas.
func ParseRatedPower(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, watts, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid RATED_POWER entry %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(watts), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid rated power for %s: %q", id, watts)
		}
		out[id] = v
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
