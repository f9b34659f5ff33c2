package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/August1314/nicehouse/common/mqtt"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// Subscriber MQTT subscribe side; common/mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Commands operations reachable from the command topics.
type Commands interface {
	SetDevicePower(deviceID string, on bool) (bool, error)
	ManualControl(roomID string, t models.DeviceType, on bool) []string
	ChangePersonState(state models.PersonState, roomID string) error
	SetAutoMode(enabled bool)
	TriggerAlarm(t models.AlarmType, roomID string) (*models.AlarmRecord, bool)
}

// DefaultCommandQueueSize inbound commands held before new ones are rejected.
const DefaultCommandQueueSize = 64

// ErrCommandQueueFull the worker is behind and the command was rejected.
var ErrCommandQueueFull = errors.New("command queue full")

type inbound struct {
	topic   string
	payload []byte
}

// CommandListener routes <prefix>/cmd/... messages to Commands.
//
//	<prefix>/cmd/devices/<id>/power              {"on":true}
//	<prefix>/cmd/rooms/<room>/devices/<type>/power {"on":true}
//	<prefix>/cmd/person                         {"state":"Sitting","room_id":"Study01"}
//	<prefix>/cmd/automode                       {"enabled":false}
//	<prefix>/cmd/alarms                         {"type":"EmergencyCall","room_id":"BedRoom01"}
//
// The subscribe callback only queues. Commands run on the Run goroutine, since
// they publish device state and alarms through the same client.
type CommandListener struct {
	sub      Subscriber
	prefix   string
	qos      byte
	commands Commands
	queue    chan inbound
	logger   *zap.Logger
}

// NewCommandListener prefix like "nicehouse".
func NewCommandListener(sub Subscriber, prefix string, qos byte, commands Commands, logger *zap.Logger) *CommandListener {
	return &CommandListener{
		sub:      sub,
		prefix:   prefix,
		qos:      qos,
		commands: commands,
		queue:    make(chan inbound, DefaultCommandQueueSize),
		logger:   logger,
	}
}

// Topic subscription filter.
func (l *CommandListener) Topic() string { return l.prefix + "/cmd/#" }

// Start subscribes. Nothing is executed until Run is running.
func (l *CommandListener) Start() error {
	if err := l.sub.Subscribe(l.Topic(), l.qos, l.enqueue); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	l.logger.Info("Listening for MQTT commands", zap.String("topic", l.Topic()))
	return nil
}

func (l *CommandListener) enqueue(topic string, payload []byte) error {
	msg := inbound{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case l.queue <- msg:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Run executes queued commands until ctx is done.
func (l *CommandListener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-l.queue:
			if err := l.Handle(msg.topic, msg.payload); err != nil {
				l.logger.Warn("MQTT command rejected",
					zap.String("topic", msg.topic),
					zap.Error(err),
				)
			}
		}
	}
}

type powerCommand struct {
	On bool `json:"on"`
}

type personCommand struct {
	State  string `json:"state"`
	RoomID string `json:"room_id"`
}

type autoModeCommand struct {
	Enabled bool `json:"enabled"`
}

type alarmCommand struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// Handle one command message.
func (l *CommandListener) Handle(topic string, payload []byte) error {
	path := strings.TrimPrefix(topic, l.prefix+"/cmd/")
	if path == topic {
		return fmt.Errorf("unexpected topic %s", topic)
	}
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 3 && parts[0] == "devices" && parts[2] == "power":
		var cmd powerCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("decode power command: %w", err)
		}
		_, err := l.commands.SetDevicePower(parts[1], cmd.On)
		return err

	case len(parts) == 5 && parts[0] == "rooms" && parts[2] == "devices" && parts[4] == "power":
		t, ok := models.ParseDeviceType(parts[3])
		if !ok {
			return fmt.Errorf("unknown device type %q", parts[3])
		}
		var cmd powerCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("decode power command: %w", err)
		}
		l.commands.ManualControl(parts[1], t, cmd.On)
		return nil

	case len(parts) == 1 && parts[0] == "person":
		var cmd personCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("decode person command: %w", err)
		}
		state, ok := models.ParsePersonState(cmd.State)
		if !ok {
			return fmt.Errorf("unknown person state %q", cmd.State)
		}
		return l.commands.ChangePersonState(state, cmd.RoomID)

	case len(parts) == 1 && parts[0] == "automode":
		var cmd autoModeCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("decode automode command: %w", err)
		}
		l.commands.SetAutoMode(cmd.Enabled)
		return nil

	case len(parts) == 1 && parts[0] == "alarms":
		var cmd alarmCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("decode alarm command: %w", err)
		}
		t, ok := models.ParseAlarmType(cmd.Type)
		if !ok {
			return fmt.Errorf("unknown alarm type %q", cmd.Type)
		}
		l.commands.TriggerAlarm(t, cmd.RoomID)
		return nil
	}
	return fmt.Errorf("unknown command topic %s", topic)
}
