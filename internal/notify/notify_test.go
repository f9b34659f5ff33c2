package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/August1314/nicehouse/common/mqtt"
	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, _ byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic: topic, retained: retained, payload: payload})
	return nil
}

type fakeRooms map[string]models.Room

func (f fakeRooms) Lookup(id string) (models.Room, bool) {
	r, ok := f[id]
	return r, ok
}

func sampleRecord() models.AlarmRecord {
	return models.AlarmRecord{
		ID:     "a1",
		Type:   models.AlarmTypeFall,
		RoomID: "Bathroom01",
		Time:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestResponder_Event(t *testing.T) {
	r := NewResponder(fakeRooms{"Bathroom01": {RoomID: "Bathroom01", DisplayName: "Bathroom"}}, 0, zap.NewNop())

	ev := r.Event(sampleRecord())
	assert.Equal(t, models.AlarmLevelAlert, ev.Level)
	assert.Equal(t, "Fall/OutOfBed - Room: Bathroom", ev.Message)
	assert.Equal(t, sampleRecord().Time, ev.TriggeredAt)

	smoke := sampleRecord()
	smoke.Type = models.AlarmTypeSmoke
	smoke.RoomID = "Garage"
	ev = r.Event(smoke)
	assert.Equal(t, models.AlarmLevelWarning, ev.Level)
	assert.Equal(t, "Smoke - Room: Garage", ev.Message)
}

func TestResponder_Respond_AllNotifiersRun(t *testing.T) {
	r := NewResponder(nil, time.Second, zap.NewNop())
	var order []string
	r.Add(Func{Label: "broken", Fn: func(context.Context, models.AlarmEvent) error {
		order = append(order, "broken")
		return errors.New("down")
	}})
	r.Add(Func{Label: "ok", Fn: func(context.Context, models.AlarmEvent) error {
		order = append(order, "ok")
		return nil
	}})

	err := r.Respond(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: down")
	assert.Equal(t, []string{"broken", "ok"}, order)
	assert.Equal(t, []string{"broken", "ok"}, r.Notifiers())
}

func TestResponder_Handle_QueuesUntilRun(t *testing.T) {
	r := NewResponder(nil, time.Second, zap.NewNop())
	delivered := make(chan string, 1)
	r.Add(Func{Label: "chan", Fn: func(_ context.Context, ev models.AlarmEvent) error {
		delivered <- ev.ID
		return nil
	}})

	require.NoError(t, r.Handle(sampleRecord()))
	assert.Equal(t, 1, r.Pending())
	assert.Empty(t, delivered)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	select {
	case id := <-delivered:
		assert.Equal(t, "a1", id)
	case <-time.After(time.Second):
		t.Fatal("alarm not delivered")
	}
}

func TestResponder_Handle_DropsWhenFull(t *testing.T) {
	r := NewResponder(nil, time.Second, zap.NewNop())
	var dropped []string
	r.OnDrop(func(rec models.AlarmRecord) { dropped = append(dropped, rec.ID) })

	for i := 0; i < DefaultQueueSize; i++ {
		require.NoError(t, r.Handle(sampleRecord()))
	}
	over := sampleRecord()
	over.ID = "over"
	assert.ErrorIs(t, r.Handle(over), ErrQueueFull)
	assert.Equal(t, uint64(1), r.Dropped())
	assert.Equal(t, []string{"over"}, dropped)

	assert.Equal(t, DefaultQueueSize, r.Drain())
	assert.Zero(t, r.Pending())
}

func TestMQTTPublisher_Notify(t *testing.T) {
	pub := &fakePublisher{}
	p := NewMQTTPublisher(pub, "nicehouse", 1, zap.NewNop())

	ev := NewResponder(nil, 0, zap.NewNop()).Event(sampleRecord())
	require.NoError(t, p.Notify(context.Background(), ev))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "nicehouse/alarms", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)

	var got models.AlarmEvent
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &got))
	assert.Equal(t, "a1", got.ID)
}

func TestMQTTPublisher_PublishDeviceState(t *testing.T) {
	pub := &fakePublisher{}
	p := NewMQTTPublisher(pub, "nicehouse", 0, zap.NewNop())

	err := p.PublishDeviceState(device.StateChange{
		Device: models.Device{DeviceID: "AC01", DeviceType: models.DeviceTypeAirConditioner, RoomID: "LivingRoom01"},
		On:     true,
		Status: models.DeviceStatusRunning,
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "nicehouse/devices/AC01/state", pub.msgs[0].topic)
	assert.True(t, pub.msgs[0].retained)
	assert.JSONEq(t, `{"device_id":"AC01","device_type":"AirConditioner","room_id":"LivingRoom01","on":true,"status":"Running"}`,
		string(pub.msgs[0].payload))

	pub.err = errors.New("not connected")
	assert.Error(t, p.PublishDeviceState(device.StateChange{}))
}

type fakeSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, h mqtt.MessageHandler) error {
	f.topic = topic
	f.handler = h
	return nil
}

type fakeCommands struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCommands) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeCommands) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCommands) SetDevicePower(id string, on bool) (bool, error) {
	if id == "missing" {
		return false, errors.New("unknown device")
	}
	f.record("power:" + id)
	return true, nil
}

func (f *fakeCommands) ManualControl(roomID string, t models.DeviceType, on bool) []string {
	f.record("manual:" + roomID + ":" + string(t))
	return nil
}

func (f *fakeCommands) ChangePersonState(state models.PersonState, roomID string) error {
	f.record("person:" + string(state) + ":" + roomID)
	return nil
}

func (f *fakeCommands) SetAutoMode(enabled bool) {
	if enabled {
		f.record("auto:on")
	} else {
		f.record("auto:off")
	}
}

func (f *fakeCommands) TriggerAlarm(t models.AlarmType, roomID string) (*models.AlarmRecord, bool) {
	f.record("alarm:" + string(t) + ":" + roomID)
	return &models.AlarmRecord{Type: t, RoomID: roomID}, true
}

func TestCommandListener_Run(t *testing.T) {
	sub := &fakeSubscriber{}
	cmds := &fakeCommands{}
	l := NewCommandListener(sub, "nicehouse", 1, cmds, zap.NewNop())
	require.NoError(t, l.Start())
	assert.Equal(t, "nicehouse/cmd/#", sub.topic)

	h := sub.handler
	require.NoError(t, h("nicehouse/cmd/devices/AC01/power", []byte(`{"on":true}`)))
	require.NoError(t, h("nicehouse/cmd/rooms/Kitchen01/devices/Fan/power", []byte(`{"on":false}`)))
	require.NoError(t, h("nicehouse/cmd/person", []byte(`{"state":"Sitting","room_id":"Study01"}`)))
	require.NoError(t, h("nicehouse/cmd/automode", []byte(`{"enabled":false}`)))
	require.NoError(t, h("nicehouse/cmd/alarms", []byte(`{"type":"EmergencyCall","room_id":"BedRoom01"}`)))
	assert.Empty(t, cmds.recorded(), "callback only queues")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	require.Eventually(t, func() bool { return len(cmds.recorded()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		"power:AC01",
		"manual:Kitchen01:Fan",
		"person:Sitting:Study01",
		"auto:off",
		"alarm:EmergencyCall:BedRoom01",
	}, cmds.recorded())
}

func TestCommandListener_QueueFull(t *testing.T) {
	sub := &fakeSubscriber{}
	l := NewCommandListener(sub, "nicehouse", 0, &fakeCommands{}, zap.NewNop())
	require.NoError(t, l.Start())

	for i := 0; i < DefaultCommandQueueSize; i++ {
		require.NoError(t, sub.handler("nicehouse/cmd/automode", []byte(`{"enabled":true}`)))
	}
	assert.ErrorIs(t, sub.handler("nicehouse/cmd/automode", []byte(`{"enabled":true}`)), ErrCommandQueueFull)
}

func TestCommandListener_Handle_Errors(t *testing.T) {
	l := NewCommandListener(&fakeSubscriber{}, "nicehouse", 0, &fakeCommands{}, zap.NewNop())

	assert.Error(t, l.Handle("other/topic", nil))
	assert.Error(t, l.Handle("nicehouse/cmd/unknown", []byte(`{}`)))
	assert.Error(t, l.Handle("nicehouse/cmd/devices/AC01/power", []byte(`not json`)))
	assert.Error(t, l.Handle("nicehouse/cmd/devices/missing/power", []byte(`{"on":true}`)))
	assert.Error(t, l.Handle("nicehouse/cmd/person", []byte(`{"state":"Flying"}`)))
	assert.Error(t, l.Handle("nicehouse/cmd/rooms/R1/devices/Toaster/power", []byte(`{"on":true}`)))
	assert.Error(t, l.Handle("nicehouse/cmd/alarms", []byte(`{"type":"Meteor"}`)))
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	w := NewWebhookNotifier(server.URL+"/alarms", time.Second, zap.NewNop())
	ev := NewResponder(nil, 0, zap.NewNop()).Event(sampleRecord())
	require.NoError(t, w.Notify(context.Background(), ev))

	var got models.AlarmEvent
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Message, got.Message)
}

func TestWebhookNotifier_Notify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	err := w.Notify(context.Background(), models.AlarmEvent{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
