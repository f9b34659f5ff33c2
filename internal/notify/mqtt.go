package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// Publisher MQTT publish side; common/mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher publishes alarms and device state under a topic prefix.
type MQTTPublisher struct {
	client Publisher
	prefix string
	qos    byte
	logger *zap.Logger
}

// NewMQTTPublisher prefix like "nicehouse".
func NewMQTTPublisher(client Publisher, prefix string, qos byte, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos, logger: logger}
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

// AlarmTopic <prefix>/alarms
func (p *MQTTPublisher) AlarmTopic() string { return p.prefix + "/alarms" }

// DeviceTopic <prefix>/devices/<id>/state
func (p *MQTTPublisher) DeviceTopic(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/state", p.prefix, deviceID)
}

// Notify publishes ev to the alarm topic.
func (p *MQTTPublisher) Notify(_ context.Context, ev models.AlarmEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm: %w", err)
	}
	return p.client.Publish(p.AlarmTopic(), p.qos, false, payload)
}

type deviceStatePayload struct {
	DeviceID   string              `json:"device_id"`
	DeviceType models.DeviceType   `json:"device_type"`
	RoomID     string              `json:"room_id"`
	On         bool                `json:"on"`
	Status     models.DeviceStatus `json:"status"`
}

// PublishDeviceState retained state message for one device.
func (p *MQTTPublisher) PublishDeviceState(change device.StateChange) error {
	payload, err := json.Marshal(deviceStatePayload{
		DeviceID:   change.Device.DeviceID,
		DeviceType: change.Device.DeviceType,
		RoomID:     change.Device.RoomID,
		On:         change.On,
		Status:     change.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal device state: %w", err)
	}
	if err := p.client.Publish(p.DeviceTopic(change.Device.DeviceID), p.qos, true, payload); err != nil {
		return err
	}
	p.logger.Debug("Device state published", zap.String("device_id", change.Device.DeviceID))
	return nil
}
