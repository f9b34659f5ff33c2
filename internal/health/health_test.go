package health

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePerson struct{ status models.PersonStatus }

func (f *fakePerson) Status() models.PersonStatus { return f.status }

type fakeVitals struct{ v models.VitalSigns }

func (f *fakeVitals) Current() models.VitalSigns { return f.v }

type fakeSink struct {
	mu    sync.Mutex
	added []models.AlarmRecord
}

func (f *fakeSink) Add(t models.AlarmType, roomID string) *models.AlarmRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, models.AlarmRecord{Type: t, RoomID: roomID})
	return &f.added[len(f.added)-1]
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSimulator_Tick_Waves(t *testing.T) {
	clk := clock.NewManual(t0)
	sim := NewSimulator(nil, rand.New(rand.NewSource(1)), clk)
	assert.Equal(t, InitialVitals, sim.Current())

	clk.Advance(10 * time.Second)
	v := sim.Tick()
	assert.Equal(t, int(math.Round(72+math.Sin(1.0)*10)), v.HeartRate)
	assert.Equal(t, int(math.Round(16+math.Sin(1.5)*4)), v.RespirationRate)
	assert.InDelta(t, 0.3+math.Sin(2.0)*0.2, v.BodyMovement, 1e-9)
	assert.Equal(t, models.SleepStageAwake, v.SleepStage)
}

func TestSimulator_Tick_MovementByState(t *testing.T) {
	cases := []struct {
		state  models.PersonState
		center float64
		width  float64
	}{
		{models.PersonStateWalking, 0.8, 0.1},
		{models.PersonStateSitting, 0.2, 0.1},
		{models.PersonStateSleeping, 0.05, 0.02},
		{models.PersonStateFallen, 0.9, 0.1},
		{models.PersonStateIdle, 0.3, 0.1},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			p := &fakePerson{status: models.PersonStatus{State: tc.state}}
			sim := NewSimulator(p, rand.New(rand.NewSource(7)), clock.NewManual(t0))
			for i := 0; i < 50; i++ {
				v := sim.Tick()
				assert.InDelta(t, tc.center, v.BodyMovement, tc.width+1e-9)
				if tc.state == models.PersonStateSleeping {
					assert.Contains(t, []models.SleepStage{models.SleepStageLight, models.SleepStageDeep}, v.SleepStage)
				} else {
					assert.Equal(t, models.SleepStageAwake, v.SleepStage)
				}
			}
		})
	}
}

func newMonitor(v models.VitalSigns, room string) (*Monitor, *fakeVitals, *fakeSink, *clock.Manual) {
	clk := clock.NewManual(t0)
	vitals := &fakeVitals{v: v}
	sink := &fakeSink{}
	person := &fakePerson{status: models.PersonStatus{CurrentRoomID: room}}
	return NewMonitor(DefaultMonitorConfig(), vitals, person, sink, clk, zap.NewNop()), vitals, sink, clk
}

func normalVitals() models.VitalSigns {
	return models.VitalSigns{HeartRate: 72, RespirationRate: 16, BodyMovement: 0.5}
}

func TestMonitor_Check_SustainedHeartRate(t *testing.T) {
	v := normalVitals()
	v.HeartRate = 130
	m, _, sink, clk := newMonitor(v, "BedRoom01")

	for i := 0; i < 29; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	assert.Empty(t, sink.added)

	clk.Advance(time.Second)
	m.Check()
	require.Len(t, sink.added, 1)
	assert.Equal(t, models.AlarmTypeHealthAbnormal, sink.added[0].Type)
	assert.Equal(t, "BedRoom01", sink.added[0].RoomID)

	// The timer restarts after firing; another 30s is inside the cooldown.
	for i := 0; i < 30; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	assert.Len(t, sink.added, 1)

	for i := 0; i < 30; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	assert.Len(t, sink.added, 2)
}

func TestMonitor_Check_NormalReadingResetsTimer(t *testing.T) {
	v := normalVitals()
	v.RespirationRate = 30
	m, vitals, sink, clk := newMonitor(v, "R1")

	for i := 0; i < 20; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	vitals.v = normalVitals()
	m.Check()
	vitals.v = v
	for i := 0; i < 20; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	assert.Empty(t, sink.added)
}

func TestMonitor_Check_NoMovement(t *testing.T) {
	v := normalVitals()
	v.BodyMovement = 0.05
	m, _, sink, clk := newMonitor(v, "")

	for i := 0; i < 1800; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	require.Len(t, sink.added, 1)
	assert.Equal(t, UnknownRoom, sink.added[0].RoomID)
}

func TestMonitor_TriggerManually_CooldownAndTestMode(t *testing.T) {
	m, _, sink, clk := newMonitor(normalVitals(), "R1")

	_, ok := m.TriggerManually("")
	assert.True(t, ok)
	_, ok = m.TriggerManually("again")
	assert.False(t, ok)

	m.SetTestMode(true)
	_, ok = m.TriggerManually("test")
	assert.True(t, ok)

	m.SetTestMode(false)
	clk.Advance(time.Minute)
	_, ok = m.TriggerManually("later")
	assert.True(t, ok)
	assert.Len(t, sink.added, 3)
}

func TestMonitor_TriggerManually_ConcurrentCallersShareCooldown(t *testing.T) {
	m, _, sink, _ := newMonitor(normalVitals(), "R1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	raised := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.TriggerManually("race"); ok {
				mu.Lock()
				raised++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, raised)
	assert.Len(t, sink.added, 1)
}

func TestMonitor_ResetTimers(t *testing.T) {
	v := normalVitals()
	v.HeartRate = 40
	m, _, sink, clk := newMonitor(v, "R1")

	for i := 0; i < 29; i++ {
		clk.Advance(time.Second)
		m.Check()
	}
	m.ResetTimers()
	clk.Advance(time.Second)
	m.Check()
	assert.Empty(t, sink.added)
}
