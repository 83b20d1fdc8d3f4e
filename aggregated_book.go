package book

import (
	"fmt"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a depth-only view of the order book, tracking
// price levels and their aggregated quantities. It is designed for
// downstream services that rebuild book state from BookEvents received off
// the wire: seed it from a BookSnapshot, then replay events in sequence.
//
// AggregatedBook is not safe for concurrent use.
type AggregatedBook struct {
	seqID uint64
	bid   *treemap.TreeMap[int64, uint64]
	ask   *treemap.TreeMap[int64, uint64]
}

// NewAggregatedBook creates an empty AggregatedBook.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		bid: treemap.NewWithKeyCompare[int64, uint64](func(a, b int64) bool {
			return a > b
		}),
		ask: treemap.NewWithKeyCompare[int64, uint64](func(a, b int64) bool {
			return a < b
		}),
	}
}

// SequenceID returns the last applied sequence ID, used for synchronization
// and gap detection during rebuild.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID
}

// Rebuild resets the aggregated book from a snapshot. Call this before
// replaying events.
func (ab *AggregatedBook) Rebuild(snap *BookSnapshot) {
	ab.bid.Clear()
	ab.ask.Clear()
	ab.seqID = snap.SeqID

	for i := range snap.Bids {
		o := &snap.Bids[i]
		qty, _ := ab.bid.Get(o.Price)
		ab.bid.Set(o.Price, qty+o.RemainingQuantity)
	}
	for i := range snap.Asks {
		o := &snap.Asks[i]
		qty, _ := ab.ask.Get(o.Price)
		ab.ask.Set(o.Price, qty+o.RemainingQuantity)
	}
}

// Replay applies a BookEvent to the aggregated state. Events already applied
// (sequence at or below the current ID) are skipped; a sequence jump returns
// ErrSequenceGap, and the caller should re-seed from a fresh snapshot.
// Reject events do not affect book state but still advance the sequence ID.
func (ab *AggregatedBook) Replay(ev *BookEvent) error {
	if ev.SequenceID <= ab.seqID {
		return nil
	}

	if ev.SequenceID != ab.seqID+1 {
		return fmt.Errorf("%w: have %d, got %d", ErrSequenceGap, ab.seqID, ev.SequenceID)
	}

	delta := DepthChangeFor(ev)
	if delta.QuantityDiff != 0 {
		ab.apply(delta)
	}

	ab.seqID = ev.SequenceID
	return nil
}

func (ab *AggregatedBook) apply(delta DepthDelta) {
	side := ab.bid
	if delta.Side == Sell {
		side = ab.ask
	}

	qty, _ := side.Get(delta.Price)
	next := int64(qty) + delta.QuantityDiff

	if next <= 0 {
		side.Del(delta.Price)
		return
	}

	side.Set(delta.Price, uint64(next))
}

// Depth returns the aggregated quantity at a price level, or zero if the
// level does not exist.
func (ab *AggregatedBook) Depth(side Side, price int64) uint64 {
	m := ab.bid
	if side == Sell {
		m = ab.ask
	}

	qty, _ := m.Get(price)
	return qty
}

// Levels returns the aggregated depth of one side, best price first, up to
// limit levels. A limit of zero returns all levels.
func (ab *AggregatedBook) Levels(side Side, limit int) []LevelInfo {
	m := ab.bid
	if side == Sell {
		m = ab.ask
	}

	result := make([]LevelInfo, 0, m.Len())
	for it := m.Iterator(); it.Valid(); it.Next() {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, LevelInfo{Price: it.Key(), Quantity: it.Value()})
	}

	return result
}
