// Package events is an ordered observer list used in place of multicast callbacks.
package events

import (
	"errors"
	"fmt"
	"sync"
)

// Handler reacts to one event.
type Handler[T any] func(T) error

type subscription[T any] struct {
	name    string
	handler Handler[T]
}

// Listeners calls handlers in subscription order.
// A failing handler does not stop the rest; all errors are returned joined.
type Listeners[T any] struct {
	mu   sync.RWMutex
	subs []subscription[T]
}

// Subscribe appends a named handler.
func (l *Listeners[T]) Subscribe(name string, h Handler[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, subscription[T]{name: name, handler: h})
}

// Len number of handlers.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Names handler names in call order.
func (l *Listeners[T]) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, len(l.subs))
	for i, s := range l.subs {
		names[i] = s.name
	}
	return names
}

// Notify delivers ev to every handler. Handler panics are not recovered.
func (l *Listeners[T]) Notify(ev T) error {
	l.mu.RLock()
	subs := make([]subscription[T], len(l.subs))
	copy(subs, l.subs)
	l.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handler(ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
