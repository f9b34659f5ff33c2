package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListeners_Notify_Order(t *testing.T) {
	var l Listeners[int]
	var calls []string

	l.Subscribe("first", func(v int) error {
		calls = append(calls, "first")
		return nil
	})
	l.Subscribe("second", func(v int) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, l.Notify(1))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []string{"first", "second"}, l.Names())
	assert.Equal(t, 2, l.Len())
}

func TestListeners_Notify_ErrorsAreJoined(t *testing.T) {
	var l Listeners[string]
	errBoom := errors.New("boom")
	reached := false

	l.Subscribe("broken", func(string) error { return errBoom })
	l.Subscribe("after", func(string) error {
		reached = true
		return nil
	})

	err := l.Notify("x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), "broken: boom")
	assert.True(t, reached)
}

func TestListeners_Notify_Empty(t *testing.T) {
	var l Listeners[int]
	assert.NoError(t, l.Notify(0))
}
