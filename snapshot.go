package book

// BookSnapshot contains the full state of a Book: every resting order in
// priority order (best price first, FIFO within a level) plus the event and
// trade counters. Snapshots are plain values; the book itself holds no
// durable state and loses all contents on restart, so persisting a snapshot,
// if wanted, is the caller's concern.
type BookSnapshot struct {
	SeqID   uint64  `json:"seq_id"`
	TradeID uint64  `json:"trade_id"`
	Bids    []Order `json:"bids"`
	Asks    []Order `json:"asks"`
}

// Snapshot captures the current book state.
func (b *Book) Snapshot() *BookSnapshot {
	return &BookSnapshot{
		SeqID:   b.seqID,
		TradeID: b.tradeID,
		Bids:    b.bidQueue.toSnapshot(),
		Asks:    b.askQueue.toSnapshot(),
	}
}

// Restore resets the book and rebuilds it from a snapshot, bypassing
// matching. Snapshot order is priority order, so inserting at the tail
// reproduces the original time priority exactly.
func (b *Book) Restore(snap *BookSnapshot) {
	b.seqID = snap.SeqID
	b.tradeID = snap.TradeID

	b.bidQueue = newBidQueue()
	b.askQueue = newAskQueue()

	restoreOrders := func(orders []Order, q *queue) {
		for i := range orders {
			o := orders[i]
			if o.RemainingQuantity == 0 {
				logger.Warn("skipping filled order during restore", "order_id", o.ID)
				continue
			}
			q.insertOrder(&o)
		}
	}

	restoreOrders(snap.Bids, b.bidQueue)
	restoreOrders(snap.Asks, b.askQueue)
}
