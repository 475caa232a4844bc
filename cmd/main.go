package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/colq/union"
)

func main() {
	ctx := context.Background()

	boom := &union.FuncSource[int]{
		SourceID: "flaky",
		NextFunc: func(ctx context.Context) (int, error) {
			time.Sleep(5 * time.Millisecond)
			return 0, fmt.Errorf("flaky source gave up")
		},
	}

	sources := []union.Source[int]{
		union.NewSliceSource("steady-1", []int{1, 2, 3}),
		union.NewSliceSource("steady-2", []int{4, 5}),
		boom,
	}

	s := union.New(ctx, sources, 2)
	defer s.Close()

	now := time.Now()
	for {
		v, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			src, worker, _ := union.SourceOf(err)
			fmt.Printf("merge stopped by %s on worker %d: %v\n", src, worker, err)
			break
		}
		fmt.Println("block:", v)
	}

	fmt.Println("elapsed:", time.Since(now))
	fmt.Println("stats:", s.Stats())
}
