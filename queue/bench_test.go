package queue

import (
	"context"
	"sync"
	"testing"
)

func BenchmarkBounded_PushPop(b *testing.B) {
	b.ReportAllocs()
	q := NewBounded[int](64)
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		q.Push(i)
		_, _ = q.Pop(ctx)
	}
}

func BenchmarkChannel_PushPop(b *testing.B) {
	// Raw channel baseline: what the closable-push capability costs.
	b.ReportAllocs()
	ch := make(chan int, 64)
	for i := 0; i < b.N; i++ {
		ch <- i
		<-ch
	}
}

func BenchmarkBounded_Contended(b *testing.B) {
	const producers = 4
	b.ReportAllocs()
	q := NewBounded[int](producers)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < b.N; i++ {
				q.Push(i)
			}
		}()
	}

	for i := 0; i < b.N*producers; i++ {
		_, _ = q.Pop(ctx)
	}
	wg.Wait()
}
