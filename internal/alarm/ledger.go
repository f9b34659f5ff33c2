// Package alarm keeps the bounded list of raised alarms.
package alarm

import (
	"errors"
	"sort"
	"sync"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/events"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxRecords capacity when none is configured.
const DefaultMaxRecords = 100

// ErrNotFound no alarm with that id.
var ErrNotFound = errors.New("alarm not found")

// Ledger in-memory alarm list; the oldest record is evicted past MaxRecords.
type Ledger struct {
	mu         sync.RWMutex
	records    []*models.AlarmRecord
	maxRecords int

	listeners events.Listeners[models.AlarmRecord]
	clock     clock.Clock
	logger    *zap.Logger
}

// NewLedger maxRecords <= 0 means DefaultMaxRecords.
func NewLedger(maxRecords int, clk clock.Clock, logger *zap.Logger) *Ledger {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Ledger{
		maxRecords: maxRecords,
		clock:      clk,
		logger:     logger,
	}
}

// Subscribe adds an observer called after each Add, in subscription order.
func (l *Ledger) Subscribe(name string, h events.Handler[models.AlarmRecord]) {
	l.listeners.Subscribe(name, h)
}

// Add appends an unhandled alarm stamped with the current time.
func (l *Ledger) Add(t models.AlarmType, roomID string) *models.AlarmRecord {
	rec := &models.AlarmRecord{
		ID:     uuid.New().String(),
		Type:   t,
		RoomID: roomID,
		Time:   l.clock.Now(),
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	if over := len(l.records) - l.maxRecords; over > 0 {
		for i := 0; i < over; i++ {
			l.records[i] = nil
		}
		l.records = l.records[over:]
	}
	l.mu.Unlock()

	l.logger.Info("Alarm added",
		zap.String("alarm_id", rec.ID),
		zap.String("type", string(t)),
		zap.String("room_id", roomID),
	)

	if err := l.listeners.Notify(*rec); err != nil {
		l.logger.Warn("Alarm listener failed",
			zap.String("alarm_id", rec.ID),
			zap.Error(err),
		)
	}
	return rec
}

// MarkHandled flags rec, the pointer returned by Add.
func (l *Ledger) MarkHandled(rec *models.AlarmRecord) {
	if rec == nil {
		return
	}
	l.mu.Lock()
	rec.Handled = true
	l.mu.Unlock()
}

// MarkHandledByID flags the alarm with id.
func (l *Ledger) MarkHandledByID(id string) (models.AlarmRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.records {
		if rec.ID == id {
			rec.Handled = true
			return *rec, nil
		}
	}
	return models.AlarmRecord{}, ErrNotFound
}

// Get alarm by id.
func (l *Ledger) Get(id string) (models.AlarmRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, rec := range l.records {
		if rec.ID == id {
			return *rec, true
		}
	}
	return models.AlarmRecord{}, false
}

// All copies in insertion order.
func (l *Ledger) All() []models.AlarmRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.AlarmRecord, len(l.records))
	for i, rec := range l.records {
		out[i] = *rec
	}
	return out
}

func newestFirst(recs []models.AlarmRecord) {
	// Stable on insertion order reversed so equal times keep newest-first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Time.After(recs[j].Time) })
}

// Recent up to n alarms, newest first.
func (l *Ledger) Recent(n int) []models.AlarmRecord {
	all := l.All()
	newestFirst(all)
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// Unhandled alarms not yet handled, newest first.
func (l *Ledger) Unhandled() []models.AlarmRecord {
	all := l.All()
	out := all[:0]
	for _, rec := range all {
		if !rec.Handled {
			out = append(out, rec)
		}
	}
	newestFirst(out)
	return out
}

// Len number of held alarms.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Clear drops every alarm.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
	l.logger.Info("Alarms cleared")
}
