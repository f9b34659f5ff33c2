package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"

	"go.uber.org/zap"
)

// UnknownRoom used when the person has no room.
const UnknownRoom = "Unknown"

// MonitorConfig vitals bounds and timings.
type MonitorConfig struct {
	HeartRateMin       int
	HeartRateMax       int
	RespirationMin     int
	RespirationMax     int
	BodyMovementMin    float64
	AbnormalDuration   time.Duration
	NoMovementDuration time.Duration
	Cooldown           time.Duration
	CheckInterval      time.Duration
	// TestMode skips the cooldown.
	TestMode bool
}

// DefaultMonitorConfig HR 60-100, RR 12-20, 30s abnormal, 30min still, 60s cooldown.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		HeartRateMin:       60,
		HeartRateMax:       100,
		RespirationMin:     12,
		RespirationMax:     20,
		BodyMovementMin:    0.1,
		AbnormalDuration:   30 * time.Second,
		NoMovementDuration: 30 * time.Minute,
		Cooldown:           time.Minute,
		CheckInterval:      time.Second,
	}
}

// VitalsSource latest vitals.
type VitalsSource interface {
	Current() models.VitalSigns
}

// AlarmSink appends alarms.
type AlarmSink interface {
	Add(t models.AlarmType, roomID string) *models.AlarmRecord
}

// Monitor raises HealthAbnormal when a vital stays out of range.
type Monitor struct {
	mu  sync.Mutex
	cfg MonitorConfig

	heartRateAbnormal   time.Duration
	respirationAbnormal time.Duration
	noMovement          time.Duration
	lastAlarm           time.Time

	vitals VitalsSource
	person PersonSource
	alarms AlarmSink
	clock  clock.Clock
	logger *zap.Logger
}

// NewMonitor person may be nil.
func NewMonitor(cfg MonitorConfig, vitals VitalsSource, person PersonSource, alarms AlarmSink, clk clock.Clock, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		vitals: vitals,
		person: person,
		alarms: alarms,
		clock:  clk,
		logger: logger,
	}
}

// SetTestMode toggles the cooldown bypass.
func (m *Monitor) SetTestMode(enabled bool) {
	m.mu.Lock()
	m.cfg.TestMode = enabled
	m.mu.Unlock()
}

// Check evaluates one CheckInterval worth of vitals.
func (m *Monitor) Check() {
	if m.vitals == nil {
		m.logger.Warn("Health monitor has no vitals source")
		return
	}
	v := m.vitals.Current()

	m.mu.Lock()
	var reasons []string
	if v.HeartRate < m.cfg.HeartRateMin || v.HeartRate > m.cfg.HeartRateMax {
		m.heartRateAbnormal += m.cfg.CheckInterval
		if m.heartRateAbnormal >= m.cfg.AbnormalDuration {
			reasons = append(reasons, fmt.Sprintf("heart rate abnormal: %d bpm (normal: %d-%d)",
				v.HeartRate, m.cfg.HeartRateMin, m.cfg.HeartRateMax))
			m.heartRateAbnormal = 0
		}
	} else {
		m.heartRateAbnormal = 0
	}

	if v.RespirationRate < m.cfg.RespirationMin || v.RespirationRate > m.cfg.RespirationMax {
		m.respirationAbnormal += m.cfg.CheckInterval
		if m.respirationAbnormal >= m.cfg.AbnormalDuration {
			reasons = append(reasons, fmt.Sprintf("respiration rate abnormal: %d /min (normal: %d-%d)",
				v.RespirationRate, m.cfg.RespirationMin, m.cfg.RespirationMax))
			m.respirationAbnormal = 0
		}
	} else {
		m.respirationAbnormal = 0
	}

	if v.BodyMovement < m.cfg.BodyMovementMin {
		m.noMovement += m.cfg.CheckInterval
		if m.noMovement >= m.cfg.NoMovementDuration {
			reasons = append(reasons, fmt.Sprintf("no body movement for %.1f minutes", m.noMovement.Minutes()))
			m.noMovement = 0
		}
	} else {
		m.noMovement = 0
	}
	m.mu.Unlock()

	for _, reason := range reasons {
		m.trigger(reason)
	}
}

// TriggerManually raises a HealthAbnormal alarm through the cooldown.
func (m *Monitor) TriggerManually(message string) (*models.AlarmRecord, bool) {
	if message == "" {
		message = "manual health alarm"
	}
	return m.trigger(message)
}

// ResetTimers clears the sustained-condition timers.
func (m *Monitor) ResetTimers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartRateAbnormal = 0
	m.respirationAbnormal = 0
	m.noMovement = 0
}

func (m *Monitor) trigger(message string) (*models.AlarmRecord, bool) {
	if m.alarms == nil {
		m.logger.Warn("Health monitor has no alarm sink", zap.String("reason", message))
		return nil, false
	}

	now := m.clock.Now()

	// check and claim the cooldown slot in one step
	m.mu.Lock()
	if !m.cfg.TestMode && !m.lastAlarm.IsZero() && now.Sub(m.lastAlarm) < m.cfg.Cooldown {
		m.mu.Unlock()
		m.logger.Debug("Health alarm suppressed by cooldown", zap.String("reason", message))
		return nil, false
	}
	m.lastAlarm = now
	m.mu.Unlock()

	roomID := UnknownRoom
	if m.person != nil {
		if id := m.person.Status().CurrentRoomID; id != "" {
			roomID = id
		}
	}
	rec := m.alarms.Add(models.AlarmTypeHealthAbnormal, roomID)

	m.logger.Warn("Health alarm raised",
		zap.String("room_id", roomID),
		zap.String("reason", message),
	)
	return rec, true
}
