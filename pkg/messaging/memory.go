package messaging

import (
	"sync"

	"punchcoach-server/pkg/drill"
)

// MemoryPublisher is an in-memory EventPublisher used by tests and by
// deployments running without a broker.
type MemoryPublisher struct {
	mutex     sync.Mutex
	connected bool
	events    []drill.Event
}

// NewMemoryPublisher creates an empty in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Connect implements EventPublisher
func (m *MemoryPublisher) Connect() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connected = true
	return nil
}

// Disconnect implements EventPublisher
func (m *MemoryPublisher) Disconnect() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connected = false
}

// IsConnected implements EventPublisher
func (m *MemoryPublisher) IsConnected() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.connected
}

// Publish records the event
func (m *MemoryPublisher) Publish(event drill.Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of everything published so far
func (m *MemoryPublisher) Events() []drill.Event {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]drill.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType filters published events by type
func (m *MemoryPublisher) EventsOfType(t drill.EventType) []drill.Event {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var out []drill.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events
func (m *MemoryPublisher) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = nil
}
