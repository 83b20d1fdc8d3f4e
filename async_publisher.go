package book

import "context"

// AsyncPublisher decouples event consumers from the matching loop: Publish
// clones each event and hands it to a ring buffer, so the book never blocks
// on a slow downstream. Cloning satisfies the Publisher contract, since the
// book recycles events as soon as Publish returns.
type AsyncPublisher struct {
	ring *RingBuffer[*BookEvent]
}

type asyncHandler struct {
	fn func(*BookEvent)
}

func (h *asyncHandler) OnEvent(ev *BookEvent) {
	h.fn(ev)
}

// NewAsyncPublisher creates an AsyncPublisher delivering events to fn on a
// dedicated consumer goroutine, in publish order. capacity must be a power
// of 2.
func NewAsyncPublisher(capacity int64, fn func(*BookEvent)) *AsyncPublisher {
	p := &AsyncPublisher{}
	p.ring = NewRingBuffer[*BookEvent](capacity, &asyncHandler{fn: fn})
	p.ring.Start()
	return p
}

// Publish clones the events and enqueues them for asynchronous delivery.
func (p *AsyncPublisher) Publish(events ...*BookEvent) {
	for _, ev := range events {
		cpy := new(BookEvent)
		*cpy = *ev
		p.ring.Publish(cpy)
	}
}

// Shutdown flushes pending events and stops the consumer.
func (p *AsyncPublisher) Shutdown(ctx context.Context) error {
	return p.ring.Shutdown(ctx)
}

// Pending returns the number of events not yet delivered.
func (p *AsyncPublisher) Pending() int64 {
	return p.ring.PendingEvents()
}
