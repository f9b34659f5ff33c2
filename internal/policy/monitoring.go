package policy

import (
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"
	"github.com/August1314/nicehouse/internal/person"

	"go.uber.org/zap"
)

// MonitoringConfig behaviour thresholds.
type MonitoringConfig struct {
	LongSitting time.Duration
	LongBathing time.Duration
	Cooldown    time.Duration
}

// DefaultMonitoringConfig 30 min sitting, 20 min bathing, 60s cooldown.
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		LongSitting: 30 * time.Minute,
		LongBathing: 20 * time.Minute,
		Cooldown:    time.Minute,
	}
}

// PersonSource occupant status.
type PersonSource interface {
	Status() models.PersonStatus
}

// Monitoring raises behavioural alarms from the occupant state.
type Monitoring struct {
	cfg    MonitoringConfig
	gate   *CooldownGate
	person PersonSource
	alarms AlarmSink
	logger *zap.Logger
}

// NewMonitoring person may be nil, in which case Tick only warns.
func NewMonitoring(cfg MonitoringConfig, person PersonSource, alarms AlarmSink, clk clock.Clock, logger *zap.Logger) *Monitoring {
	return &Monitoring{
		cfg:    cfg,
		gate:   NewCooldownGate(cfg.Cooldown, clk),
		person: person,
		alarms: alarms,
		logger: logger,
	}
}

// Tick checks for prolonged sitting or bathing.
func (m *Monitoring) Tick() {
	if m.person == nil {
		m.logger.Warn("Monitoring has no person source")
		return
	}
	st := m.person.Status()
	switch st.State {
	case models.PersonStateSitting:
		if st.StateDuration >= m.cfg.LongSitting {
			m.raise(models.AlarmTypeLongSitting, st.CurrentRoomID)
		}
	case models.PersonStateBathing:
		if st.StateDuration >= m.cfg.LongBathing {
			m.raise(models.AlarmTypeLongBathing, st.CurrentRoomID)
		}
	}
}

// OnPersonChanged flags falls and leaving bed as soon as they happen.
func (m *Monitoring) OnPersonChanged(tr person.Transition) error {
	switch tr.To {
	case models.PersonStateFallen, models.PersonStateOutOfBed:
		m.raise(models.AlarmTypeFall, tr.RoomID)
	}
	return nil
}

// TriggerAlarmManually raises t through the cooldown gate.
func (m *Monitoring) TriggerAlarmManually(t models.AlarmType, roomID string) (*models.AlarmRecord, bool) {
	return m.raise(t, roomID)
}

// ResetCooldown reopens the gate for every type.
func (m *Monitoring) ResetCooldown() {
	m.gate.Reset()
	m.logger.Info("Alarm cooldown reset")
}

func (m *Monitoring) raise(t models.AlarmType, roomID string) (*models.AlarmRecord, bool) {
	if m.alarms == nil {
		m.logger.Warn("Monitoring has no alarm sink", zap.String("type", string(t)))
		return nil, false
	}
	if !m.gate.Allow(t, roomID) {
		m.logger.Debug("Alarm suppressed by cooldown",
			zap.String("type", string(t)),
			zap.String("room_id", roomID),
		)
		return nil, false
	}
	return m.alarms.Add(t, roomID), true
}
