package book

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestOrderBook(t *testing.T, opts ...OrderBookOption) *OrderBook {
	t.Helper()

	ob := NewOrderBook(opts...)
	go func() {
		_ = ob.Start()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ob.Shutdown(ctx)
	})

	return ob
}

func TestOrderBookSubmitAndMatch(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	trades, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, trades)

	size, err := ob.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	trades, err = ob.SubmitOrder(ctx, 2, Sell, GoodTillCancel, 100, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(10), trades[0].Quantity())

	size, err = ob.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestOrderBookValidation(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = ob.SubmitOrder(ctx, 1, Side(9), GoodTillCancel, 100, 10)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = ob.SubmitOrder(ctx, 1, Buy, Kind("market"), 100, 10)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = ob.ModifyOrder(ctx, ModifyRequest{OrderID: 1, Side: Buy, Price: 100, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestOrderBookCancel(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)

	require.NoError(t, ob.CancelOrder(ctx, 1))

	size, err := ob.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	// Cancelling again succeeds with no effect.
	require.NoError(t, ob.CancelOrder(ctx, 1))
}

func TestOrderBookModify(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 90, 10)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 2, Sell, GoodTillCancel, 100, 10)
	require.NoError(t, err)

	trades, err := ob.ModifyOrder(ctx, ModifyRequest{OrderID: 1, Side: Buy, Price: 100, Quantity: 10})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(10), trades[0].Quantity())
}

func TestOrderBookLevelsAndDepth(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 2, Sell, GoodTillCancel, 105, 3)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 3, Sell, GoodTillCancel, 104, 4)
	require.NoError(t, err)

	bids, asks, err := ob.Levels(ctx)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Len(t, asks, 2)
	assert.Equal(t, int64(104), asks[0].Price)

	depth, err := ob.Depth(ctx, 1)
	require.NoError(t, err)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, LevelInfo{Price: 104, Quantity: 4}, depth.Asks[0])

	_, err = ob.Depth(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidParam)

	stats, err := ob.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.BidOrderCount)
	assert.Equal(t, int64(2), stats.AskOrderCount)
	assert.Equal(t, int64(2), stats.AskLevelCount)
}

func TestOrderBookPublishesEvents(t *testing.T) {
	ctx := context.Background()
	publisher := NewMemoryPublisher()
	ob := startTestOrderBook(t, WithPublisher(publisher))

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 2, Sell, GoodTillCancel, 100, 4)
	require.NoError(t, err)

	events := publisher.Events()
	require.Len(t, events, 2)

	assert.Equal(t, EventOpen, events[0].Type)
	assert.Equal(t, uint64(1), events[0].OrderID)
	assert.Equal(t, uint64(1), events[0].SequenceID)
	assert.NotEmpty(t, events[0].EventID)

	assert.Equal(t, EventMatch, events[1].Type)
	assert.Equal(t, uint64(2), events[1].OrderID)
	assert.Equal(t, uint64(1), events[1].MakerOrderID)
	assert.Equal(t, uint64(4), events[1].Quantity)
	assert.Equal(t, uint64(2), events[1].SequenceID)
	assert.Equal(t, uint64(1), events[1].TradeID)
}

func TestOrderBookShutdown(t *testing.T) {
	ctx := context.Background()
	ob := NewOrderBook()
	go func() {
		_ = ob.Start()
	}()

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, ob.Shutdown(shutdownCtx))

	_, err = ob.SubmitOrder(ctx, 2, Sell, GoodTillCancel, 100, 10)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestOrderBookSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	ob := startTestOrderBook(t)

	_, err := ob.SubmitOrder(ctx, 1, Buy, GoodTillCancel, 100, 10)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 2, Buy, GoodTillCancel, 100, 5)
	require.NoError(t, err)
	_, err = ob.SubmitOrder(ctx, 3, Sell, GoodTillCancel, 110, 7)
	require.NoError(t, err)

	snap, err := ob.TakeSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 1)

	restored := NewOrderBook()
	restored.Restore(snap)
	go func() {
		_ = restored.Start()
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = restored.Shutdown(shutdownCtx)
	}()

	size, err := restored.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	// Time priority survives the round trip: order 1 still fills before 2.
	trades, err := restored.SubmitOrder(ctx, 4, Sell, GoodTillCancel, 100, 12)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].Bid.OrderID)
	assert.Equal(t, uint64(2), trades[1].Bid.OrderID)
}
