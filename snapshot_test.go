package book

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCapturesPriorityOrder(t *testing.T) {
	b := NewBook(nil)

	b.Submit(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	b.Submit(NewOrder(2, Buy, GoodTillCancel, 101, 3))
	b.Submit(NewOrder(3, Buy, GoodTillCancel, 100, 2))
	b.Submit(NewOrder(4, Sell, GoodTillCancel, 105, 8))

	snap := b.Snapshot()

	assert.Equal(t, b.SequenceID(), snap.SeqID)
	require.Len(t, snap.Bids, 3)
	require.Len(t, snap.Asks, 1)

	// Best price first, FIFO within a level.
	assert.Equal(t, uint64(2), snap.Bids[0].ID)
	assert.Equal(t, uint64(1), snap.Bids[1].ID)
	assert.Equal(t, uint64(3), snap.Bids[2].ID)
}

func TestRestoreReproducesBook(t *testing.T) {
	b := NewBook(nil)

	b.Submit(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	b.Submit(NewOrder(2, Buy, GoodTillCancel, 100, 3))
	b.Submit(NewOrder(3, Sell, GoodTillCancel, 99, 4)) // partial fill of order 1
	snap := b.Snapshot()

	restored := NewBook(nil)
	restored.Restore(snap)

	assert.Equal(t, b.Size(), restored.Size())
	assert.Equal(t, b.SequenceID(), restored.SequenceID())

	wantBids, wantAsks := b.Levels()
	gotBids, gotAsks := restored.Levels()
	assert.Equal(t, wantBids, gotBids)
	assert.Equal(t, wantAsks, gotAsks)

	// Time priority survives the round trip: order 1 (partially filled, 1
	// remaining) still trades before order 2.
	trades := restored.Submit(NewOrder(4, Sell, GoodTillCancel, 100, 1))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].Bid.OrderID)

	checkLadderInvariants(t, restored)
}

func TestRestoreSkipsFilledOrders(t *testing.T) {
	snap := &BookSnapshot{
		SeqID:   10,
		TradeID: 2,
		Bids: []Order{
			{ID: 1, Side: Buy, Kind: GoodTillCancel, Price: 100, InitialQuantity: 5, RemainingQuantity: 5, Status: StatusResting},
			{ID: 2, Side: Buy, Kind: GoodTillCancel, Price: 100, InitialQuantity: 5, RemainingQuantity: 0, Status: StatusFilled},
		},
	}

	b := NewBook(nil)
	b.Restore(snap)

	assert.Equal(t, 1, b.Size())
	assert.NotNil(t, b.bidQueue.order(1))
	assert.Nil(t, b.bidQueue.order(2))
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	b := NewBook(nil)
	b.Submit(NewOrder(1, Buy, GoodTillCancel, 100, 5))
	b.Submit(NewOrder(2, Sell, GoodTillCancel, 105, 3))

	data, err := json.Marshal(b.Snapshot())
	require.NoError(t, err)

	var snap BookSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := NewBook(nil)
	restored.Restore(&snap)

	assert.Equal(t, b.Size(), restored.Size())
	wantBids, wantAsks := b.Levels()
	gotBids, gotAsks := restored.Levels()
	assert.Equal(t, wantBids, gotBids)
	assert.Equal(t, wantAsks, gotAsks)
}
