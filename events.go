package book

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

type EventType string

const (
	EventOpen   EventType = "open"   // order rested in a ladder
	EventMatch  EventType = "match"  // trade executed
	EventCancel EventType = "cancel" // order withdrawn (explicit or FAK leftover)
	EventAmend  EventType = "amend"  // order withdrawn for modification
	EventReject EventType = "reject" // order never entered the book
)

// RejectReason explains why an order was rejected.
type RejectReason string

const (
	RejectReasonNone         RejectReason = ""
	RejectReasonDuplicateID  RejectReason = "duplicate_id"  // an order with this ID is already resting
	RejectReasonNoCross      RejectReason = "no_cross"      // FAK with no possible immediate match
	RejectReasonZeroQuantity RejectReason = "zero_quantity" // degenerate zero-quantity submission
)

// BookEvent records one state transition of the order book.
// SequenceID is a monotonically increasing ID for every event, used for
// ordering, gap detection, and rebuild synchronization in downstream systems;
// EventID is a globally unique key for deduplication across restarts.
// Reject events do not affect book state.
type BookEvent struct {
	SequenceID   uint64       `json:"seq_id"`
	EventID      string       `json:"event_id"`
	TradeID      uint64       `json:"trade_id,omitempty"` // only set for Match events
	Type         EventType    `json:"type"`
	Side         Side         `json:"side"`
	Price        int64        `json:"price"`
	Quantity     uint64       `json:"quantity"`
	OldPrice     int64        `json:"old_price,omitempty"` // only set for Amend events
	OldQuantity  uint64       `json:"old_quantity,omitempty"`
	OrderID      uint64       `json:"order_id"`
	Kind         Kind         `json:"kind,omitempty"`
	MakerOrderID uint64       `json:"maker_order_id,omitempty"` // only set for Match events
	RejectReason RejectReason `json:"reject_reason,omitempty"`  // only set for Reject events
	CreatedAt    time.Time    `json:"created_at"`
}

var bookEventPool = sync.Pool{
	New: func() any {
		return new(BookEvent)
	},
}

func acquireBookEvent() *BookEvent {
	return bookEventPool.Get().(*BookEvent)
}

func releaseBookEvent(ev *BookEvent) {
	*ev = BookEvent{}
	bookEventPool.Put(ev)
}

func newOpenEvent(seqID uint64, order *Order, now time.Time) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.EventID = xid.New().String()
	ev.Type = EventOpen
	ev.Side = order.Side
	ev.Price = order.Price
	ev.Quantity = order.RemainingQuantity
	ev.OrderID = order.ID
	ev.Kind = order.Kind
	ev.CreatedAt = now
	return ev
}

func newMatchEvent(seqID, tradeID uint64, taker *Order, maker *Order, quantity uint64, now time.Time) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.EventID = xid.New().String()
	ev.TradeID = tradeID
	ev.Type = EventMatch
	ev.Side = taker.Side
	ev.Price = maker.Price
	ev.Quantity = quantity
	ev.OrderID = taker.ID
	ev.Kind = taker.Kind
	ev.MakerOrderID = maker.ID
	ev.CreatedAt = now
	return ev
}

func newCancelEvent(seqID uint64, order *Order, now time.Time) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.EventID = xid.New().String()
	ev.Type = EventCancel
	ev.Side = order.Side
	ev.Price = order.Price
	ev.Quantity = order.RemainingQuantity
	ev.OrderID = order.ID
	ev.Kind = order.Kind
	ev.CreatedAt = now
	return ev
}

func newAmendEvent(seqID uint64, order *Order, req ModifyRequest, now time.Time) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.EventID = xid.New().String()
	ev.Type = EventAmend
	// The old side: a modify may move the order across the book, and the
	// withdrawal this event describes happens on the side it rested on.
	ev.Side = order.Side
	ev.Price = req.Price
	ev.Quantity = req.Quantity
	ev.OldPrice = order.Price
	ev.OldQuantity = order.RemainingQuantity
	ev.OrderID = order.ID
	ev.Kind = order.Kind
	ev.CreatedAt = now
	return ev
}

func newRejectEvent(seqID uint64, order *Order, reason RejectReason, now time.Time) *BookEvent {
	ev := acquireBookEvent()
	ev.SequenceID = seqID
	ev.EventID = xid.New().String()
	ev.Type = EventReject
	ev.Side = order.Side
	ev.Price = order.Price
	ev.Quantity = order.RemainingQuantity
	ev.OrderID = order.ID
	ev.Kind = order.Kind
	ev.RejectReason = reason
	ev.CreatedAt = now
	return ev
}
