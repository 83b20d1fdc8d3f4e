package book

import "sync"

// Publisher receives order book events (opens, matches, cancels, rejects).
//
// IMPORTANT: Implementations must either:
//  1. Process events synchronously before returning, OR
//  2. Clone the BookEvent data before returning
//
// The book recycles BookEvent objects to a sync.Pool after Publish returns,
// so any asynchronous processing must work with cloned data.
type Publisher interface {
	Publish(...*BookEvent)
}

// MemoryPublisher stores events in memory, useful for testing.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []*BookEvent
}

// NewMemoryPublisher creates a new MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		events: make([]*BookEvent, 0),
	}
}

// Publish appends clones of the events to the in-memory slice.
func (m *MemoryPublisher) Publish(events ...*BookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		cpy := new(BookEvent)
		*cpy = *ev
		m.events = append(m.events, cpy)
	}
}

// Count returns the number of events stored.
func (m *MemoryPublisher) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Get returns the event at the specified index.
func (m *MemoryPublisher) Get(index int) *BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.events[index]
}

// Events returns a copy of all events stored.
func (m *MemoryPublisher) Events() []*BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*BookEvent, len(m.events))
	copy(events, m.events)
	return events
}

// DiscardPublisher discards all events, useful for benchmarking.
type DiscardPublisher struct {
}

// NewDiscardPublisher creates a new DiscardPublisher.
func NewDiscardPublisher() *DiscardPublisher {
	return &DiscardPublisher{}
}

// Publish does nothing.
func (p *DiscardPublisher) Publish(events ...*BookEvent) {

}
