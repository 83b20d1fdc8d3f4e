package book

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrRingTimeout is returned when a ring buffer shutdown times out.
var ErrRingTimeout = errors.New("ring: shutdown timeout")

// EventHandler consumes events from a RingBuffer.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is a multi-producer single-consumer ring buffer. Producers
// claim slots with a CAS on the producer sequence; the consumer goroutine
// spins on per-slot publication markers, so handoff never allocates.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published marks slots whose writes are visible to the consumer
	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
}

// NewRingBuffer creates a new MPSC ring buffer.
// capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("ring: capacity must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Publish writes an event into the ring buffer. Safe for multiple producers;
// blocks (spinning) while the buffer is full. Events published after
// shutdown are dropped.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		// Claim a sequence
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// The producer may not lap the consumer by more than one buffer
		wrapPoint := nextSeq - rb.capacity
		consumerSeq := rb.consumerSequence.Load()

		if wrapPoint > consumerSeq {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	// Write the event to the claimed slot, then mark the slot published so
	// the consumer can see it
	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event

	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer worker.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops the ring buffer and waits until the consumer has processed
// every claimed event, or until the context expires.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrRingTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.processRemainingEvents(nextConsumerSeq)
			return
		}

		processed := false
		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask

			// Spin until the slot's write is published
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			event := rb.buffer[index]
			rb.handler.OnEvent(event)

			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
			processed = true
		}

		if !processed {
			runtime.Gosched()
		}
	}
}

// processRemainingEvents flushes claimed events during shutdown.
func (rb *RingBuffer[T]) processRemainingEvents(nextConsumerSeq int64) {
	availableSeq := rb.producerSequence.Load()

	for nextConsumerSeq <= availableSeq {
		index := nextConsumerSeq & rb.bufferMask

		for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
			runtime.Gosched()
		}

		event := rb.buffer[index]
		rb.handler.OnEvent(event)

		rb.consumerSequence.Store(nextConsumerSeq)
		nextConsumerSeq++
	}
}

// ConsumerSequence returns the current consumer sequence (for monitoring).
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the current producer sequence (for monitoring).
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// PendingEvents returns the number of claimed but unprocessed events.
func (rb *RingBuffer[T]) PendingEvents() int64 {
	producerSeq := rb.producerSequence.Load()
	consumerSeq := rb.consumerSequence.Load()
	return producerSeq - consumerSeq
}
