package book

import "fmt"

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type Kind string

const (
	GoodTillCancel Kind = "gtc" // rests until filled or cancelled
	FillAndKill    Kind = "fak" // matches immediately, leftover is discarded
)

// Status tracks an order through its lifecycle. Transitions only happen
// synchronously inside Submit, Cancel, or Modify.
type Status string

const (
	StatusPending         Status = "pending"
	StatusResting         Status = "resting"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
)

// Order represents the state of an order in the order book.
// Price is a signed fixed-point integer in the smallest tradable tick unit;
// quantities are unsigned. The book owns the order exclusively once accepted,
// callers keep only the ID.
type Order struct {
	ID                uint64 `json:"id"`
	Side              Side   `json:"side"`
	Kind              Kind   `json:"kind"`
	Price             int64  `json:"price"`
	InitialQuantity   uint64 `json:"initial_quantity"`
	RemainingQuantity uint64 `json:"remaining_quantity"`
	Status            Status `json:"status"`
	Timestamp         int64  `json:"timestamp"` // Unix nano, arrival time

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// NewOrder builds an order with its full initial quantity remaining.
func NewOrder(id uint64, side Side, kind Kind, price int64, quantity uint64) *Order {
	return &Order{
		ID:                id,
		Side:              side,
		Kind:              kind,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
		Status:            StatusPending,
	}
}

// FilledQuantity returns how much of the order has executed so far.
func (o *Order) FilledQuantity() uint64 {
	return o.InitialQuantity - o.RemainingQuantity
}

// Filled reports whether the order has no quantity left.
func (o *Order) Filled() bool {
	return o.RemainingQuantity == 0
}

func (o *Order) IsBuy() bool {
	return o.Side == Buy
}

// Fill consumes quantity from the order's remaining quantity.
// Filling beyond the remaining quantity means the matching loop has lost
// track of book state; continuing would corrupt subsequent trades, so it
// panics instead of returning an error.
func (o *Order) Fill(quantity uint64) {
	if quantity > o.RemainingQuantity {
		panic(fmt.Sprintf("book: order %d cannot be filled for %d, only %d remaining", o.ID, quantity, o.RemainingQuantity))
	}

	o.RemainingQuantity -= quantity
	if o.RemainingQuantity == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// ModifyRequest replaces an existing order's side, price, and quantity.
// The order keeps its kind but loses its time priority: a modify is a
// withdraw-and-resubmit, never an in-place mutation.
type ModifyRequest struct {
	OrderID  uint64
	Side     Side
	Price    int64
	Quantity uint64
}
