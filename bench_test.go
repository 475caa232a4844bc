package union_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/colq/union"
)

func benchSources(sources, blocks int) []union.Source[int] {
	payload := make([]int, blocks)
	for i := range payload {
		payload[i] = i
	}
	srcs := make([]union.Source[int], sources)
	for i := range srcs {
		srcs[i] = union.NewSliceSource(fmt.Sprintf("src-%d", i), payload)
	}
	return srcs
}

func BenchmarkStream_Merge(b *testing.B) {
	for _, cfg := range []struct{ sources, blocks, threads int }{
		{sources: 4, blocks: 100, threads: 1},
		{sources: 4, blocks: 100, threads: 4},
		{sources: 16, blocks: 100, threads: 4},
		{sources: 16, blocks: 100, threads: 16},
	} {
		name := fmt.Sprintf("src=%d/thr=%d", cfg.sources, cfg.threads)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				s := union.New(ctx, benchSources(cfg.sources, cfg.blocks), cfg.threads)
				for {
					_, err := s.Next(ctx)
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						b.Fatal(err)
					}
				}
				s.Close()
			}
		})
	}
}

func BenchmarkStream_QueueCapacity(b *testing.B) {
	for _, capacity := range []int{1, 4, 64} {
		b.Run(fmt.Sprintf("cap=%d", capacity), func(b *testing.B) {
			b.ReportAllocs()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				s := union.New(ctx, benchSources(8, 50), 4,
					union.WithQueueCapacity(capacity))
				for {
					_, err := s.Next(ctx)
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						b.Fatal(err)
					}
				}
				s.Close()
			}
		})
	}
}
