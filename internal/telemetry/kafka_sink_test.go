package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/August1314/nicehouse/common/config"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink_WriteSnapshot(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w, "nicehouse.environment", zap.NewNop())
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	err := sink.WriteSnapshot(context.Background(), models.Snapshot{
		GeneratedAt: at,
		Rooms: []models.RoomSnapshot{
			{Room: models.Room{RoomID: "Kitchen01"}, HasData: true, Environment: models.RoomEnvironment{Temperature: 26.5, PM25: 45}},
			{Room: models.Room{RoomID: "Garage01"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "Kitchen01", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)

	var reading models.EnvironmentReading
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &reading))
	assert.Equal(t, 26.5, reading.Values.Temperature)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_WriteSnapshot_Error(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	sink := NewKafkaSink(w, "t", zap.NewNop())

	err := sink.WriteSnapshot(context.Background(), models.Snapshot{
		Rooms: []models.RoomSnapshot{{Room: models.Room{RoomID: "R1"}, HasData: true}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	assert.NoError(t, sink.WriteSnapshot(context.Background(), models.Snapshot{}), "empty snapshot writes nothing")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(&config.KafkaConfig{Brokers: []string{"k1:9092", "k2:9092"}, Topic: "nicehouse.environment"})
	defer w.Close()
	assert.Equal(t, "nicehouse.environment", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}
