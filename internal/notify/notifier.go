// Package notify fans alarms and device changes out to external channels.
package notify

import (
	"context"

	"github.com/August1314/nicehouse/internal/models"
)

// Notifier delivers one alarm event.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev models.AlarmEvent) error
}

// Func adapts a function to Notifier.
type Func struct {
	Label string
	Fn    func(ctx context.Context, ev models.AlarmEvent) error
}

func (f Func) Name() string { return f.Label }

func (f Func) Notify(ctx context.Context, ev models.AlarmEvent) error { return f.Fn(ctx, ev) }
