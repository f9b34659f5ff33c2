package alarm

import (
	"errors"
	"testing"
	"time"

	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLedger(max int) (*Ledger, *clock.Manual) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewLedger(max, clk, zap.NewNop()), clk
}

func TestLedger_Add_EvictsOldest(t *testing.T) {
	l, clk := newLedger(3)
	rooms := []string{"R1", "R2", "R3", "R4"}
	for _, r := range rooms {
		l.Add(models.AlarmTypeSmoke, r)
		clk.Advance(time.Second)
	}

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, "R2", all[0].RoomID)
	assert.Equal(t, "R3", all[1].RoomID)
	assert.Equal(t, "R4", all[2].RoomID)

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "R4", recent[0].RoomID)
	assert.Equal(t, "R3", recent[1].RoomID)
}

func TestLedger_Add_Fields(t *testing.T) {
	l, clk := newLedger(0)
	rec := l.Add(models.AlarmTypeFall, "Bathroom01")

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, clk.Now(), rec.Time)
	assert.False(t, rec.Handled)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_MarkHandled(t *testing.T) {
	l, _ := newLedger(10)
	first := l.Add(models.AlarmTypeSmoke, "R1")
	second := l.Add(models.AlarmTypeGasLeak, "R1")

	l.MarkHandled(first)
	unhandled := l.Unhandled()
	require.Len(t, unhandled, 1)
	assert.Equal(t, second.ID, unhandled[0].ID)

	got, err := l.MarkHandledByID(second.ID)
	require.NoError(t, err)
	assert.True(t, got.Handled)
	assert.Empty(t, l.Unhandled())

	_, err = l.MarkHandledByID("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLedger_Recent_SameTimestampNewestFirst(t *testing.T) {
	l, _ := newLedger(10)
	l.Add(models.AlarmTypeSmoke, "R1")
	l.Add(models.AlarmTypeSmoke, "R2")

	recent := l.Recent(5)
	require.Len(t, recent, 2)
	assert.Equal(t, "R2", recent[0].RoomID)
	assert.Empty(t, l.Recent(0))
}

func TestLedger_Subscribe_Order(t *testing.T) {
	l, _ := newLedger(10)
	var calls []string
	l.Subscribe("a", func(rec models.AlarmRecord) error {
		calls = append(calls, "a:"+rec.RoomID)
		return errors.New("sink down")
	})
	l.Subscribe("b", func(rec models.AlarmRecord) error {
		calls = append(calls, "b:"+rec.RoomID)
		return nil
	})

	l.Add(models.AlarmTypeSmoke, "R1")
	assert.Equal(t, []string{"a:R1", "b:R1"}, calls)
}

func TestLedger_Clear(t *testing.T) {
	l, _ := newLedger(10)
	l.Add(models.AlarmTypeSmoke, "R1")
	l.Clear()
	assert.Empty(t, l.All())
	assert.Zero(t, l.Len())
}
