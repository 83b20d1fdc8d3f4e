package book

import (
	"context"
	"math/rand"
	"runtime"
	"testing"
)

func BenchmarkSubmitOrders(b *testing.B) {
	// Ensure the book loop and the producer can run concurrently
	oldProcs := runtime.GOMAXPROCS(runtime.NumCPU())
	defer runtime.GOMAXPROCS(oldProcs)

	ctx := context.Background()
	ob := NewOrderBook(WithPublisher(NewDiscardPublisher()))
	go ob.Start()
	defer func() { _ = ob.Shutdown(ctx) }()

	// Use fixed seed for repeatability
	rng := rand.New(rand.NewSource(42))
	midPrice := int64(10000)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var side Side
		var price int64

		// 80/20 distribution: most flow lands near the top of the book
		r := rng.Intn(100)
		if r < 80 {
			offset := int64(rng.Intn(10) + 1)
			if rng.Intn(2) == 0 {
				side = Buy
				price = midPrice - offset
			} else {
				side = Sell
				price = midPrice + offset
			}
		} else {
			offset := int64(rng.Intn(490) + 11)
			if rng.Intn(2) == 0 {
				side = Buy
				price = midPrice - offset
			} else {
				side = Sell
				price = midPrice + offset
			}
		}

		_, _ = ob.SubmitOrder(ctx, uint64(i+1), side, GoodTillCancel, price, 1)
	}

	b.StopTimer()

	totalSeconds := b.Elapsed().Seconds()
	if totalSeconds > 0 {
		b.ReportMetric(float64(b.N)/totalSeconds, "orders/sec")
	}
}

func BenchmarkMatching(b *testing.B) {
	book := NewBook(NewDiscardPublisher())

	b.ResetTimer()

	id := uint64(0)
	for i := 0; i < b.N; i++ {
		// Resting sell, then a buy that matches it immediately
		id++
		book.Submit(NewOrder(id, Sell, GoodTillCancel, 10000, 1))
		id++
		book.Submit(NewOrder(id, Buy, GoodTillCancel, 10000, 1))
	}

	b.StopTimer()

	totalSeconds := b.Elapsed().Seconds()
	if totalSeconds > 0 {
		b.ReportMetric(float64(b.N)*2/totalSeconds, "orders/sec")
	}
}

func BenchmarkQueueInsert(b *testing.B) {
	q := newBidQueue()
	rng := rand.New(rand.NewSource(42))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		q.insertOrder(NewOrder(uint64(i+1), Buy, GoodTillCancel, int64(rng.Intn(1000)), 1))
	}
}

func BenchmarkQueueInsertRemove(b *testing.B) {
	q := newBidQueue()
	rng := rand.New(rand.NewSource(42))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		id := uint64(i + 1)
		q.insertOrder(NewOrder(id, Buy, GoodTillCancel, int64(rng.Intn(1000)), 1))
		q.removeOrder(id)
	}
}

func BenchmarkCancel(b *testing.B) {
	book := NewBook(NewDiscardPublisher())
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < b.N; i++ {
		book.Submit(NewOrder(uint64(i+1), Buy, GoodTillCancel, int64(rng.Intn(1000)), 1))
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		book.Cancel(uint64(i + 1))
	}
}
