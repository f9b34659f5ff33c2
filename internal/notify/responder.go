package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// RoomNamer room lookup for display names.
type RoomNamer interface {
	Lookup(roomID string) (models.Room, bool)
}

// DefaultQueueSize pending alarms held before Handle starts dropping.
const DefaultQueueSize = 256

// ErrQueueFull Handle dropped an alarm.
var ErrQueueFull = errors.New("alarm delivery queue full")

// Responder turns ledger records into events and hands them to every notifier in order.
// Handle only queues; Run delivers on its own goroutine.
type Responder struct {
	mu        sync.RWMutex
	notifiers []Notifier
	rooms     RoomNamer
	timeout   time.Duration
	logger    *zap.Logger

	queue   chan models.AlarmRecord
	dropped atomic.Uint64
	onDrop  func(models.AlarmRecord)
}

// NewResponder timeout bounds each delivery round.
func NewResponder(rooms RoomNamer, timeout time.Duration, logger *zap.Logger) *Responder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Responder{
		rooms:   rooms,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan models.AlarmRecord, DefaultQueueSize),
	}
}

// OnDrop is called for every alarm Handle drops. Set it before alarms flow.
func (r *Responder) OnDrop(fn func(models.AlarmRecord)) {
	r.onDrop = fn
}

// Dropped alarms so far.
func (r *Responder) Dropped() uint64 {
	return r.dropped.Load()
}

// Pending alarms waiting for delivery.
func (r *Responder) Pending() int {
	return len(r.queue)
}

// Add appends a notifier.
func (r *Responder) Add(n Notifier) {
	r.mu.Lock()
	r.notifiers = append(r.notifiers, n)
	r.mu.Unlock()
	r.logger.Info("Alarm notifier added", zap.String("notifier", n.Name()))
}

// Notifiers names in delivery order.
func (r *Responder) Notifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.notifiers))
	for i, n := range r.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Message "<type> - Room: <room>" using display names where known.
func (r *Responder) Message(rec models.AlarmRecord) string {
	room := rec.RoomID
	if r.rooms != nil {
		if info, ok := r.rooms.Lookup(rec.RoomID); ok && info.DisplayName != "" {
			room = info.DisplayName
		}
	}
	return fmt.Sprintf("%s - Room: %s", rec.Type.DisplayName(), room)
}

// Event wire form of rec.
func (r *Responder) Event(rec models.AlarmRecord) models.AlarmEvent {
	return models.AlarmEvent{
		ID:          rec.ID,
		Type:        rec.Type,
		Level:       rec.Type.Level(),
		RoomID:      rec.RoomID,
		Message:     r.Message(rec),
		TriggeredAt: rec.Time,
		Handled:     rec.Handled,
	}
}

// Respond logs rec and delivers it to every notifier. A failing notifier does not stop the others.
func (r *Responder) Respond(ctx context.Context, rec models.AlarmRecord) error {
	ev := r.Event(rec)
	fields := []zap.Field{
		zap.String("alarm_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.String("level", ev.Level),
		zap.String("room_id", ev.RoomID),
	}
	if ev.Level == models.AlarmLevelAlert {
		r.logger.Warn(ev.Message, fields...)
	} else {
		r.logger.Info(ev.Message, fields...)
	}

	r.mu.RLock()
	notifiers := make([]Notifier, len(r.notifiers))
	copy(notifiers, r.notifiers)
	r.mu.RUnlock()

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Handle ledger observer. It never blocks: a full queue drops rec.
func (r *Responder) Handle(rec models.AlarmRecord) error {
	select {
	case r.queue <- rec:
		return nil
	default:
	}

	r.dropped.Add(1)
	r.logger.Error("Alarm dropped, delivery queue full",
		zap.String("alarm_id", rec.ID),
		zap.String("type", string(rec.Type)),
		zap.Int("queue_size", cap(r.queue)),
	)
	if r.onDrop != nil {
		r.onDrop(rec)
	}
	return ErrQueueFull
}

// Run delivers queued alarms until ctx is done.
func (r *Responder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-r.queue:
			r.deliver(rec)
		}
	}
}

// Drain delivers whatever is queued right now and returns the count.
func (r *Responder) Drain() int {
	n := 0
	for {
		select {
		case rec := <-r.queue:
			r.deliver(rec)
			n++
		default:
			return n
		}
	}
}

func (r *Responder) deliver(rec models.AlarmRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Respond(ctx, rec); err != nil {
		r.logger.Warn("Alarm delivery failed",
			zap.String("alarm_id", rec.ID),
			zap.Error(err),
		)
	}
}
