// Package events is a synchronous named-event dispatcher. Components that
// want to let other code hook into a lifecycle point dispatch an event;
// observers registered for that name run in registration order.
package events

import (
	"context"
	"sync"
)

// Event carries the name and payload of a dispatched event.
type Event struct {
	Name string
	Data map[string]any
}

// Get returns a payload value by key.
func (e Event) Get(key string) any {
	if e.Data == nil {
		return nil
	}
	return e.Data[key]
}

// Observer reacts to a dispatched event.
type Observer interface {
	Execute(ctx context.Context, e Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

// Execute implements Observer.
func (f ObserverFunc) Execute(ctx context.Context, e Event) { f(ctx, e) }

// Manager holds the observer registry.
type Manager struct {
	mu        sync.RWMutex
	observers map[string][]Observer
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{observers: make(map[string][]Observer)}
}

// Register adds o to the observers of event name.
func (m *Manager) Register(name string, o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers[name] = append(m.observers[name], o)
}

// Dispatch runs every observer of name synchronously. A nil Manager is a no-op.
func (m *Manager) Dispatch(ctx context.Context, name string, data map[string]any) {
	if m == nil {
		return
	}

	m.mu.RLock()
	observers := append([]Observer(nil), m.observers[name]...)
	m.mu.RUnlock()

	e := Event{Name: name, Data: data}
	for _, o := range observers {
		o.Execute(ctx, e)
	}
}

// Count returns the number of observers registered for name.
func (m *Manager) Count(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers[name])
}
