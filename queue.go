package book

import (
	"fmt"

	"github.com/huandu/skiplist"
)

// LevelInfo is the aggregated depth at one price: the sum of remaining
// quantities of every order resting at that price on one side.
type LevelInfo struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// priceLevel holds all orders resting at one exact price on one side,
// queued FIFO through the intrusive list pointers embedded in Order.
type priceLevel struct {
	totalQuantity uint64
	head          *Order
	tail          *Order
	count         int64
}

// queue is one side of the book: a ladder of price levels ordered by price
// priority, plus an order index for O(1) cancellation.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[int64]*skiplist.Element
	orders      map[uint64]*Order
}

// newBidQueue creates the ladder for buy orders, sorted by price in
// descending order (highest price first).
func newBidQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
		orders:    make(map[uint64]*Order),
	}
}

// newAskQueue creates the ladder for sell orders, sorted by price in
// ascending order (lowest price first).
func newAskQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*skiplist.Element),
		orders:    make(map[uint64]*Order),
	}
}

// order finds an order by its ID.
func (q *queue) order(id uint64) *Order {
	return q.orders[id]
}

// insertOrder inserts an order at the tail of its price level's FIFO,
// creating the level if absent.
func (q *queue) insertOrder(order *Order) {
	el, ok := q.priceList[order.Price]
	if ok {
		level, _ := el.Value.(*priceLevel)

		order.prev = level.tail
		order.next = nil
		if level.tail != nil {
			level.tail.next = order
		}
		level.tail = order
		if level.head == nil {
			level.head = order
		}

		level.totalQuantity += order.RemainingQuantity
		level.count++
		q.orders[order.ID] = order
		q.totalOrders++
	} else {
		level := &priceLevel{
			head:          order,
			tail:          order,
			totalQuantity: order.RemainingQuantity,
			count:         1,
		}
		order.next = nil
		order.prev = nil

		q.orders[order.ID] = order

		el := q.depthList.Set(order.Price, level)
		q.priceList[order.Price] = el

		q.totalOrders++
		q.depths++
	}
}

// removeOrder removes an order from the queue by ID, unlinking it from its
// price level in O(1) and dropping the level once its last order is gone.
// A queue never keeps an empty price level registered.
func (q *queue) removeOrder(id uint64) {
	order, ok := q.orders[id]
	if !ok {
		return
	}

	skipElement, ok := q.priceList[order.Price]
	if !ok {
		// The index claims the order rests here but the ladder has no such
		// level. The book is corrupt and must not keep trading.
		panic(fmt.Sprintf("book: order %d indexed at price %d but the %s ladder has no such level", id, order.Price, q.side))
	}
	level, _ := skipElement.Value.(*priceLevel)

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		level.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		level.tail = order.prev
	}

	// Clear pointers so a removed order never aliases into the list
	order.next = nil
	order.prev = nil

	level.totalQuantity -= order.RemainingQuantity
	level.count--
	delete(q.orders, id)
	q.totalOrders--

	if level.count == 0 {
		q.depthList.RemoveElement(skipElement)
		delete(q.priceList, order.Price)
		q.depths--
	}
}

// fillOrder applies an execution to a resting order in place, keeping the
// level's aggregate in sync. The order keeps its queue position, so a partial
// fill never costs time priority.
func (q *queue) fillOrder(order *Order, quantity uint64) {
	skipElement, ok := q.priceList[order.Price]
	if !ok {
		panic(fmt.Sprintf("book: order %d indexed at price %d but the %s ladder has no such level", order.ID, order.Price, q.side))
	}
	level, _ := skipElement.Value.(*priceLevel)

	order.Fill(quantity)
	level.totalQuantity -= quantity
}

// peekHeadOrder returns the oldest order at the best price without removing it.
func (q *queue) peekHeadOrder() *Order {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	level, _ := el.Value.(*priceLevel)
	return level.head
}

// bestPrice returns the best price on this side, if any.
func (q *queue) bestPrice() (int64, bool) {
	el := q.depthList.Front()
	if el == nil {
		return 0, false
	}

	price, _ := el.Key().(int64)
	return price, true
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// levels returns the aggregated depth of every occupied price level, best
// price first.
func (q *queue) levels() []LevelInfo {
	result := make([]LevelInfo, 0, q.depths)

	el := q.depthList.Front()
	for el != nil {
		level, _ := el.Value.(*priceLevel)
		price, _ := el.Key().(int64)

		result = append(result, LevelInfo{
			Price:    price,
			Quantity: level.totalQuantity,
		})

		el = el.Next()
	}

	return result
}

// depth returns the aggregated depth up to the specified number of levels.
func (q *queue) depth(limit uint32) []LevelInfo {
	result := make([]LevelInfo, 0, limit)

	el := q.depthList.Front()

	var i uint32
	for i < limit && el != nil {
		level, _ := el.Value.(*priceLevel)
		price, _ := el.Key().(int64)

		result = append(result, LevelInfo{
			Price:    price,
			Quantity: level.totalQuantity,
		})

		el = el.Next()
		i++
	}

	return result
}

// toSnapshot serializes the queue into a slice of Order values, walking price
// levels best-first and each level's FIFO in priority order.
func (q *queue) toSnapshot() []Order {
	snapshots := make([]Order, 0, q.totalOrders)

	elem := q.depthList.Front()
	for elem != nil {
		level := elem.Value.(*priceLevel)

		order := level.head
		for order != nil {
			snapshots = append(snapshots, Order{
				ID:                order.ID,
				Side:              order.Side,
				Kind:              order.Kind,
				Price:             order.Price,
				InitialQuantity:   order.InitialQuantity,
				RemainingQuantity: order.RemainingQuantity,
				Status:            order.Status,
				Timestamp:         order.Timestamp,
			})
			order = order.next
		}

		elem = elem.Next()
	}

	return snapshots
}
