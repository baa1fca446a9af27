// Package state provides the key-value state container backing the assistant
// engine's conversations, actions, and advisory collections. The container is
// an explicitly constructed dependency passed into the engine at startup;
// there are no package-level singletons. Durability is the container's own
// concern and is deliberately not part of this contract.
package state

import (
	"sync"

	"lifehub/internal/logging"
)

// Listener receives the new value after a key is set.
type Listener func(value interface{})

// Container is the get/set/subscribe contract consumed by the engine.
type Container interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Subscribe(key string, fn Listener) (unsubscribe func())
	Teardown()
}

// =============================================================================
// IN-MEMORY CONTAINER
// =============================================================================

// Memory is the in-memory Container implementation.
type Memory struct {
	mu        sync.RWMutex
	values    map[string]interface{}
	listeners map[string]map[int]Listener
	nextID    int
	closed    bool
}

// NewMemory returns an empty in-memory container.
func NewMemory() *Memory {
	return &Memory{
		values:    make(map[string]interface{}),
		listeners: make(map[string]map[int]Listener),
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key and notifies subscribers synchronously, in
// subscription order.
func (m *Memory) Set(key string, value interface{}) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.values[key] = value
	var fns []Listener
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[key][id]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	logging.State("set key=%s listeners=%d", key, len(fns))
	for _, fn := range fns {
		fn(value)
	}
}

// Subscribe registers a listener for key. The returned function removes the
// subscription; calling it more than once is harmless.
func (m *Memory) Subscribe(key string, fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	id := m.nextID
	m.nextID++
	if m.listeners[key] == nil {
		m.listeners[key] = make(map[int]Listener)
	}
	m.listeners[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners[key], id)
		})
	}
}

// Teardown drops all subscriptions and rejects further mutation. Values stay
// readable so late readers see the final state.
func (m *Memory) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[string]map[int]Listener)
}
