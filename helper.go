package book

// DepthDelta indicates which side and price level a BookEvent changes and by
// how much. QuantityDiff is negative when liquidity leaves the book.
type DepthDelta struct {
	Side         Side
	Price        int64
	QuantityDiff int64
}

// DepthChangeFor translates a BookEvent into the depth adjustment it implies.
// Note: for Match events the side returned is the maker's side (opposite of
// the event's side), because a match consumes the maker's resting liquidity.
func DepthChangeFor(ev *BookEvent) DepthDelta {
	switch ev.Type {
	case EventOpen:
		return DepthDelta{
			Side:         ev.Side,
			Price:        ev.Price,
			QuantityDiff: int64(ev.Quantity),
		}
	case EventCancel:
		return DepthDelta{
			Side:         ev.Side,
			Price:        ev.Price,
			QuantityDiff: -int64(ev.Quantity),
		}
	case EventMatch:
		return DepthDelta{
			Side:         ev.Side.Opposite(),
			Price:        ev.Price,
			QuantityDiff: -int64(ev.Quantity),
		}
	case EventAmend:
		// A modify always withdraws the old order; the replacement shows up
		// in the Open or Match events that follow. Remove the old quantity
		// from the old price.
		return DepthDelta{
			Side:         ev.Side,
			Price:        ev.OldPrice,
			QuantityDiff: -int64(ev.OldQuantity),
		}
	case EventReject:
		// Rejected orders never entered the book, so no depth change.
		return DepthDelta{}
	}

	return DepthDelta{}
}
