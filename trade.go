package book

// TradeLeg records one party of a match: the order involved, the price it
// executed at (always that order's own resting limit price), and the quantity.
type TradeLeg struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Trade is an immutable record of one match event. Both legs always carry the
// same quantity; the prices may differ when the aggressor crossed past the
// opposite best, since each resting order fills at its own limit price.
// Trades are returned to the caller and never stored by the book.
type Trade struct {
	ID  uint64   `json:"id"` // sequential, assigned by the book
	Bid TradeLeg `json:"bid"`
	Ask TradeLeg `json:"ask"`
}

// Quantity returns the quantity exchanged in this trade.
func (t Trade) Quantity() uint64 {
	return t.Bid.Quantity
}
