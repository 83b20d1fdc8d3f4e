package book

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// commandType represents the type of command sent to the order book loop.
type commandType int

const (
	cmdSubmit commandType = iota
	cmdCancel
	cmdModify
	cmdSize
	cmdLevels
	cmdDepth
	cmdStats
	cmdSnapshot
)

// command is the unified carrier for everything entering the book loop.
// A single channel keeps command ordering deterministic.
type command struct {
	typ     commandType
	payload any
	resp    chan any
}

// levelsResult carries both sides of a Levels query.
type levelsResult struct {
	Bids []LevelInfo
	Asks []LevelInfo
}

// OrderBook wraps a Book in a single-writer event loop. One goroutine
// (Start) owns the book exclusively; callers submit requests over a channel
// and receive responses synchronously, so every operation is atomic with
// respect to all book state and no reader ever observes a half-applied
// mutation.
type OrderBook struct {
	book             *Book
	isShutdown       atomic.Bool
	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
}

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*orderBookOptions)

type orderBookOptions struct {
	mailboxSize int
	publisher   Publisher
	clock       func() time.Time
}

// WithMailboxSize sets the capacity of the command channel.
func WithMailboxSize(size int) OrderBookOption {
	return func(o *orderBookOptions) {
		if size > 0 {
			o.mailboxSize = size
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) OrderBookOption {
	return func(o *orderBookOptions) {
		o.publisher = p
	}
}

// WithClock overrides the time source, useful for deterministic tests.
func WithClock(clock func() time.Time) OrderBookOption {
	return func(o *orderBookOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewOrderBook creates a new order book instance. Call Start in its own
// goroutine before submitting orders.
func NewOrderBook(opts ...OrderBookOption) *OrderBook {
	options := &orderBookOptions{
		mailboxSize: 32768,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	b := NewBook(options.publisher)
	b.now = options.clock

	return &OrderBook{
		book:             b,
		cmdChan:          make(chan command, options.mailboxSize),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// SubmitOrder submits an order and returns the trades it produced, in
// execution order. A duplicate ID or an unmatchable Fill-And-Kill returns an
// empty trade list with no error; both are routine rejections, not failures.
// Zero quantities and negative prices never reach the book: they fail with
// ErrInvalidParam.
func (ob *OrderBook) SubmitOrder(ctx context.Context, id uint64, side Side, kind Kind, price int64, quantity uint64) ([]Trade, error) {
	if err := validateOrderParams(side, kind, price, quantity); err != nil {
		return nil, err
	}

	resp, err := ob.roundTrip(ctx, command{
		typ:     cmdSubmit,
		payload: NewOrder(id, side, kind, price, quantity),
		resp:    make(chan any, 1),
	})
	if err != nil {
		return nil, err
	}

	trades, _ := resp.([]Trade)
	return trades, nil
}

// CancelOrder withdraws a resting order. Cancelling an ID that is not
// resting (already filled or cancelled) succeeds with no effect.
func (ob *OrderBook) CancelOrder(ctx context.Context, id uint64) error {
	_, err := ob.roundTrip(ctx, command{
		typ:     cmdCancel,
		payload: id,
		resp:    make(chan any, 1),
	})
	return err
}

// ModifyOrder atomically replaces a resting order with a new side, price,
// and quantity, keeping its kind but losing its time priority. Matching
// re-runs immediately, so the returned trade list may be non-empty.
// Modifying an unknown ID succeeds with an empty trade list.
func (ob *OrderBook) ModifyOrder(ctx context.Context, req ModifyRequest) ([]Trade, error) {
	if err := validateOrderParams(req.Side, GoodTillCancel, req.Price, req.Quantity); err != nil {
		return nil, err
	}

	resp, err := ob.roundTrip(ctx, command{
		typ:     cmdModify,
		payload: req,
		resp:    make(chan any, 1),
	})
	if err != nil {
		return nil, err
	}

	trades, _ := resp.([]Trade)
	return trades, nil
}

// Size returns the count of currently resting orders.
func (ob *OrderBook) Size(ctx context.Context) (int, error) {
	resp, err := ob.roundTrip(ctx, command{typ: cmdSize, resp: make(chan any, 1)})
	if err != nil {
		return 0, err
	}

	size, _ := resp.(int)
	return size, nil
}

// Levels returns the aggregated depth of every occupied price level on both
// sides, best price first.
func (ob *OrderBook) Levels(ctx context.Context) (bids []LevelInfo, asks []LevelInfo, err error) {
	resp, err := ob.roundTrip(ctx, command{typ: cmdLevels, resp: make(chan any, 1)})
	if err != nil {
		return nil, nil, err
	}

	result, _ := resp.(levelsResult)
	return result.Bids, result.Asks, nil
}

// Depth returns the aggregated depth up to limit levels per side.
func (ob *OrderBook) Depth(ctx context.Context, limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	resp, err := ob.roundTrip(ctx, command{typ: cmdDepth, payload: limit, resp: make(chan any, 1)})
	if err != nil {
		return nil, err
	}

	depth, _ := resp.(*Depth)
	return depth, nil
}

// Stats returns usage statistics for the order book.
func (ob *OrderBook) Stats(ctx context.Context) (*BookStats, error) {
	resp, err := ob.roundTrip(ctx, command{typ: cmdStats, resp: make(chan any, 1)})
	if err != nil {
		return nil, err
	}

	stats, _ := resp.(*BookStats)
	return stats, nil
}

// TakeSnapshot captures the current state of the order book. It runs inside
// the book loop, so it is consistent with respect to order processing.
func (ob *OrderBook) TakeSnapshot(ctx context.Context) (*BookSnapshot, error) {
	resp, err := ob.roundTrip(ctx, command{typ: cmdSnapshot, resp: make(chan any, 1)})
	if err != nil {
		return nil, err
	}

	snap, _ := resp.(*BookSnapshot)
	return snap, nil
}

// Restore rebuilds the book from a snapshot. Only valid before Start.
func (ob *OrderBook) Restore(snap *BookSnapshot) {
	ob.book.Restore(snap)
}

// roundTrip enqueues a command and waits for its response.
func (ob *OrderBook) roundTrip(ctx context.Context, cmd command) (any, error) {
	if ob.isShutdown.Load() {
		return nil, ErrShutdown
	}

	select {
	case ob.cmdChan <- cmd:
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case resp := <-cmd.resp:
		return resp, nil
	case <-ob.shutdownComplete:
		// The drain may have answered just before the loop exited.
		select {
		case resp := <-cmd.resp:
			return resp, nil
		default:
			return nil, ErrOrderBookClosed
		}
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// Start runs the order book loop, processing submissions, cancellations,
// modifications, and queries. It returns nil once Shutdown is called and all
// pending commands are drained.
func (ob *OrderBook) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ob.done:
			return ob.drain()
		case cmd := <-ob.cmdChan:
			ob.handle(cmd)
		}
	}
}

// handle applies one command to the book and answers its response channel.
// Sends are non-blocking: response channels are buffered, and a caller that
// gave up already is not worth waiting for.
func (ob *OrderBook) handle(cmd command) {
	var result any

	switch cmd.typ {
	case cmdSubmit:
		if order, ok := cmd.payload.(*Order); ok {
			result = ob.book.Submit(order)
		}
	case cmdCancel:
		if id, ok := cmd.payload.(uint64); ok {
			ob.book.Cancel(id)
		}
	case cmdModify:
		if req, ok := cmd.payload.(ModifyRequest); ok {
			result = ob.book.Modify(req)
		}
	case cmdSize:
		result = ob.book.Size()
	case cmdLevels:
		bids, asks := ob.book.Levels()
		result = levelsResult{Bids: bids, Asks: asks}
	case cmdDepth:
		if limit, ok := cmd.payload.(uint32); ok {
			result = ob.book.Depth(limit)
		}
	case cmdStats:
		result = ob.book.Stats()
	case cmdSnapshot:
		result = ob.book.Snapshot()
	}

	if cmd.resp != nil {
		select {
		case cmd.resp <- result:
		default:
		}
	}
}

// drain processes all remaining commands in the channel before returning.
func (ob *OrderBook) drain() error {
	defer close(ob.shutdownComplete)

	drained := 0
	for {
		select {
		case cmd := <-ob.cmdChan:
			ob.handle(cmd)
			drained++
		default:
			if drained > 0 {
				logger.Info("order book drained", "commands", drained)
			}
			return nil
		}
	}
}

// Shutdown signals the order book to stop accepting commands and waits until
// all pending commands are processed. Returns ctx.Err() if the context
// expires first.
func (ob *OrderBook) Shutdown(ctx context.Context) error {
	if ob.isShutdown.CompareAndSwap(false, true) {
		close(ob.done)
	}

	select {
	case <-ob.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// validateOrderParams rejects degenerate submissions before they reach the
// book: zero quantity and negative prices are refused outright rather than
// silently accepted.
func validateOrderParams(side Side, kind Kind, price int64, quantity uint64) error {
	if side != Buy && side != Sell {
		return ErrInvalidParam
	}
	if kind != GoodTillCancel && kind != FillAndKill {
		return ErrInvalidParam
	}
	if price < 0 || quantity == 0 {
		return ErrInvalidParam
	}
	return nil
}
