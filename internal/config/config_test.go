package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, time.Second, cfg.Intervals.Simulator)
	assert.Equal(t, 100*time.Millisecond, cfg.Intervals.Influence)
	assert.Equal(t, 75.0, cfg.Thresholds.PM25)
	assert.Equal(t, 150.0, cfg.Thresholds.PM10)
	assert.Equal(t, 22.0, cfg.Thresholds.HeatingTarget)
	assert.Equal(t, 30*time.Minute, cfg.Monitoring.LongSitting)
	assert.Equal(t, 20*time.Minute, cfg.Monitoring.LongBathing)
	assert.Equal(t, 100, cfg.AlarmMaxRecords)
	assert.True(t, cfg.AutoMode)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Database.Enabled())
	assert.Empty(t, cfg.RatedPower)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PM25_THRESHOLD", "50")
	t.Setenv("CONTROL_INTERVAL", "500ms")
	t.Setenv("AUTO_MODE", "false")
	t.Setenv("RATED_POWER", "AC01=1500, Fan01=60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 50.0, cfg.Thresholds.PM25)
	assert.Equal(t, 500*time.Millisecond, cfg.Intervals.Control)
	assert.False(t, cfg.AutoMode)
	assert.Equal(t, map[string]float64{"AC01": 1500, "Fan01": 60}, cfg.RatedPower)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CONTROL_INTERVAL":  "soon",
		"PM25_THRESHOLD":    "high",
		"ALARM_MAX_RECORDS": "many",
		"AUTO_MODE":         "maybe",
		"RATED_POWER":       "AC01",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseRatedPower(t *testing.T) {
	got, err := ParseRatedPower("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseRatedPower("AC01=-5")
	assert.Error(t, err)

	got, err = ParseRatedPower("AC01=1500,")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got["AC01"])
}
