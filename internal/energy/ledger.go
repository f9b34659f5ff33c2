// Package energy integrates rated device power over active time.
package energy

import (
	"sort"
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// Ledger tracks which devices draw power and how much they have used.
// DailyConsumption accumulates for the life of the ledger; there is no day rollover.
type Ledger struct {
	mu      sync.RWMutex
	rated   map[string]float64
	records map[string]*models.EnergyRecord
	active  map[string]struct{}
	logger  *zap.Logger
}

// NewLedger copies ratedPower (W by device id). Devices missing from it draw 0 W.
func NewLedger(ratedPower map[string]float64, logger *zap.Logger) *Ledger {
	rated := make(map[string]float64, len(ratedPower))
	for id, w := range ratedPower {
		if id == "" {
			continue
		}
		rated[id] = w
	}
	return &Ledger{
		rated:   rated,
		records: make(map[string]*models.EnergyRecord),
		active:  make(map[string]struct{}),
		logger:  logger,
	}
}

// SetRatedPower sets the draw of deviceID in watts.
func (l *Ledger) SetRatedPower(deviceID string, watts float64) {
	if deviceID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rated[deviceID] = watts
}

// RatedPower watts for deviceID, 0 when unconfigured.
func (l *Ledger) RatedPower(deviceID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rated[deviceID]
}

// StartConsume marks deviceID active.
func (l *Ledger) StartConsume(deviceID string) {
	if deviceID == "" {
		return
	}
	l.mu.Lock()
	l.active[deviceID] = struct{}{}
	l.mu.Unlock()

	l.logger.Debug("Device started consuming", zap.String("device_id", deviceID))
}

// StopConsume marks deviceID inactive and zeroes its current power.
func (l *Ledger) StopConsume(deviceID string) {
	if deviceID == "" {
		return
	}
	l.mu.Lock()
	delete(l.active, deviceID)
	if rec, ok := l.records[deviceID]; ok {
		rec.CurrentPower = 0
	}
	l.mu.Unlock()

	l.logger.Debug("Device stopped consuming", zap.String("device_id", deviceID))
}

// IsActive reports whether deviceID is consuming.
func (l *Ledger) IsActive(deviceID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.active[deviceID]
	return ok
}

// Tick integrates dt for every active device.
func (l *Ledger) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	seconds := dt.Seconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range l.active {
		rec, ok := l.records[id]
		if !ok {
			rec = &models.EnergyRecord{}
			l.records[id] = rec
		}
		power := l.rated[id]
		rec.CurrentPower = power
		rec.DailyConsumption += power * seconds / 3600 / 1000
	}
}

// Record returns the record for deviceID, if any.
func (l *Ledger) Record(deviceID string) (models.EnergyRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[deviceID]
	if !ok {
		return models.EnergyRecord{}, false
	}
	return *rec, true
}

// DailyConsumption kWh used by deviceID, 0 when unknown.
func (l *Ledger) DailyConsumption(deviceID string) float64 {
	rec, _ := l.Record(deviceID)
	return rec.DailyConsumption
}

// All copies every record.
func (l *Ledger) All() map[string]models.EnergyRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]models.EnergyRecord, len(l.records))
	for id, rec := range l.records {
		out[id] = *rec
	}
	return out
}

// ActiveDevices sorted ids of consuming devices.
func (l *Ledger) ActiveDevices() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.active))
	for id := range l.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Total sums current power (W) and consumption (kWh) across devices.
func (l *Ledger) Total() (power float64, consumption float64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, rec := range l.records {
		power += rec.CurrentPower
		consumption += rec.DailyConsumption
	}
	return power, consumption
}
