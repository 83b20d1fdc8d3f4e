package book

import (
	"time"
)

// Depth is a read-only view of the aggregated book depth.
type Depth struct {
	UpdateID uint64      `json:"update_id"`
	Bids     []LevelInfo `json:"bids"`
	Asks     []LevelInfo `json:"asks"`
}

// BookStats contains statistics about the book's ladders.
type BookStats struct {
	BidLevelCount int64
	BidOrderCount int64
	AskLevelCount int64
	AskOrderCount int64
}

// Book is a price-time-priority limit order book. Every operation runs to
// completion synchronously; no call ever observes a partially-updated book.
//
// Book is not safe for concurrent use. Matching touches many price levels at
// once, so the whole book is one logical resource: serialize access through a
// single writer. OrderBook wraps a Book in an event loop that does exactly
// that.
type Book struct {
	bidQueue  *queue
	askQueue  *queue
	seqID     uint64
	tradeID   uint64
	publisher Publisher
	now       func() time.Time
}

// NewBook creates an empty book. Events are delivered to the publisher;
// pass nil to discard them.
func NewBook(publisher Publisher) *Book {
	if publisher == nil {
		publisher = NewDiscardPublisher()
	}
	return &Book{
		bidQueue:  newBidQueue(),
		askQueue:  newAskQueue(),
		publisher: publisher,
		now:       time.Now,
	}
}

func (b *Book) queueFor(side Side) *queue {
	if side == Buy {
		return b.bidQueue
	}
	return b.askQueue
}

// Submit runs an order through the book and returns the trades executed as a
// direct consequence of this single submission. Resting orders are never
// retroactively matched against each other.
//
// A duplicate ID, a zero quantity, or a Fill-And-Kill with no possible cross
// is a silent rejection: no trades, no state change. These are routine
// trading-session occurrences, not errors.
func (b *Book) Submit(order *Order) []Trade {
	now := b.now()
	if order.Timestamp == 0 {
		order.Timestamp = now.UnixNano()
	}

	if b.bidQueue.order(order.ID) != nil || b.askQueue.order(order.ID) != nil {
		return b.reject(order, RejectReasonDuplicateID, now)
	}

	if order.InitialQuantity == 0 {
		return b.reject(order, RejectReasonZeroQuantity, now)
	}

	if order.Kind == FillAndKill && !b.canMatch(order.Side, order.Price) {
		return b.reject(order, RejectReasonNoCross, now)
	}

	myQueue := b.queueFor(order.Side)
	order.Status = StatusResting
	myQueue.insertOrder(order)

	trades, events := b.matchOrders(order, now)

	if myQueue.order(order.ID) != nil {
		b.seqID++
		events = append(events, newOpenEvent(b.seqID, order, now))
	}

	b.publish(events)
	return trades
}

func (b *Book) reject(order *Order, reason RejectReason, now time.Time) []Trade {
	order.Status = StatusRejected

	b.seqID++
	b.publish([]*BookEvent{newRejectEvent(b.seqID, order, reason, now)})
	return nil
}

// Cancel withdraws a resting order. Cancelling an unknown ID (already filled
// or already cancelled) is a no-op, not an error.
func (b *Book) Cancel(id uint64) {
	myQueue := b.askQueue
	order := b.askQueue.order(id)
	if order == nil {
		myQueue = b.bidQueue
		order = b.bidQueue.order(id)
	}

	if order == nil {
		return
	}

	myQueue.removeOrder(id)
	order.Status = StatusCancelled

	b.seqID++
	b.publish([]*BookEvent{newCancelEvent(b.seqID, order, b.now())})
}

// Modify atomically replaces a resting order with new side, price, and
// quantity, keeping the original kind. The replacement is a new arrival: it
// joins the tail of its price level and matching re-runs immediately, so a
// modify can produce trades. Modifying an unknown ID is a no-op.
func (b *Book) Modify(req ModifyRequest) []Trade {
	myQueue := b.askQueue
	order := b.askQueue.order(req.OrderID)
	if order == nil {
		myQueue = b.bidQueue
		order = b.bidQueue.order(req.OrderID)
	}

	if order == nil {
		return nil
	}

	b.seqID++
	b.publish([]*BookEvent{newAmendEvent(b.seqID, order, req, b.now())})

	myQueue.removeOrder(req.OrderID)
	order.Status = StatusCancelled

	replacement := NewOrder(req.OrderID, req.Side, order.Kind, req.Price, req.Quantity)
	return b.Submit(replacement)
}

// canMatch reports whether an order at the given price could cross the
// opposite ladder's best level right now.
func (b *Book) canMatch(side Side, price int64) bool {
	if side == Buy {
		bestAsk, ok := b.askQueue.bestPrice()
		return ok && price >= bestAsk
	}

	bestBid, ok := b.bidQueue.bestPrice()
	return ok && price <= bestBid
}

// matchOrders is the only place trades are produced. It repeatedly matches
// the oldest order at the best bid level against the oldest at the best ask
// level while the two prices cross, each side filling at its own resting
// limit price. Filled orders leave their level and the index immediately;
// an emptied level leaves its ladder. Afterwards a leftover Fill-And-Kill at
// the top of either side is discarded, since FAK must never rest.
func (b *Book) matchOrders(taker *Order, now time.Time) ([]Trade, []*BookEvent) {
	var trades []Trade
	events := make([]*BookEvent, 0, 4)

	for {
		bid := b.bidQueue.peekHeadOrder()
		ask := b.askQueue.peekHeadOrder()

		if bid == nil || ask == nil {
			break
		}

		if bid.Price < ask.Price {
			break
		}

		quantity := min(bid.RemainingQuantity, ask.RemainingQuantity)
		b.bidQueue.fillOrder(bid, quantity)
		b.askQueue.fillOrder(ask, quantity)

		b.tradeID++
		trades = append(trades, Trade{
			ID:  b.tradeID,
			Bid: TradeLeg{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
			Ask: TradeLeg{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
		})

		maker := bid
		if bid.ID == taker.ID {
			maker = ask
		}
		b.seqID++
		events = append(events, newMatchEvent(b.seqID, b.tradeID, taker, maker, quantity, now))

		if bid.Filled() {
			b.bidQueue.removeOrder(bid.ID)
		}
		if ask.Filled() {
			b.askQueue.removeOrder(ask.ID)
		}
	}

	if bid := b.bidQueue.peekHeadOrder(); bid != nil && bid.Kind == FillAndKill {
		events = append(events, b.discardLeftoverFAK(b.bidQueue, bid, now))
	}
	if ask := b.askQueue.peekHeadOrder(); ask != nil && ask.Kind == FillAndKill {
		events = append(events, b.discardLeftoverFAK(b.askQueue, ask, now))
	}

	return trades, events
}

func (b *Book) discardLeftoverFAK(q *queue, order *Order, now time.Time) *BookEvent {
	q.removeOrder(order.ID)
	order.Status = StatusCancelled

	b.seqID++
	return newCancelEvent(b.seqID, order, now)
}

// Size returns the count of currently resting orders.
func (b *Book) Size() int {
	return int(b.bidQueue.orderCount() + b.askQueue.orderCount())
}

// Levels returns the aggregated depth of every occupied price level on both
// sides, best price first. Read-only, no side effects.
func (b *Book) Levels() (bids []LevelInfo, asks []LevelInfo) {
	return b.bidQueue.levels(), b.askQueue.levels()
}

// Depth returns the aggregated depth up to limit levels per side.
func (b *Book) Depth(limit uint32) *Depth {
	return &Depth{
		UpdateID: b.seqID,
		Bids:     b.bidQueue.depth(limit),
		Asks:     b.askQueue.depth(limit),
	}
}

// Stats returns ladder usage statistics.
func (b *Book) Stats() *BookStats {
	return &BookStats{
		BidLevelCount: b.bidQueue.depthCount(),
		BidOrderCount: b.bidQueue.orderCount(),
		AskLevelCount: b.askQueue.depthCount(),
		AskOrderCount: b.askQueue.orderCount(),
	}
}

// SequenceID returns the sequence ID of the last published event.
func (b *Book) SequenceID() uint64 {
	return b.seqID
}

func (b *Book) publish(events []*BookEvent) {
	if len(events) == 0 {
		return
	}

	b.publisher.Publish(events...)
	for _, ev := range events {
		releaseBookEvent(ev)
	}
}
