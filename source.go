package union

import (
	"context"
	"io"
	"sync/atomic"
)

// Source is a producer of a sequence of blocks, consumed through a pull
// contract. The merge never calls Next concurrently from two workers:
// each source is owned by exactly one worker at a time. A Source must
// tolerate being called from a goroutine other than the one that
// constructed it.
type Source[B any] interface {
	// Next returns the next block. It returns io.EOF when the source is
	// exhausted, and any other error to signal a failure. Next should
	// honor ctx, which is cancelled when the merge is cancelled.
	Next(ctx context.Context) (B, error)

	// Cancel is a best-effort request to stop producing. It may be
	// called from a different goroutine than Next, including while a
	// Next call is in flight.
	Cancel() error

	// ID returns a stable identity string for the source. The merge
	// uses it to compute an order-independent identity for itself.
	ID() string
}

// SliceSource is a Source backed by a fixed slice of blocks. It is
// mainly useful in tests and examples.
type SliceSource[B any] struct {
	id        string
	blocks    []B
	idx       int
	cancelled atomic.Bool
}

// NewSliceSource creates a source that yields the given blocks in order
// and then reports io.EOF.
func NewSliceSource[B any](id string, blocks []B) *SliceSource[B] {
	return &SliceSource[B]{id: id, blocks: blocks}
}

// Next implements [Source]. A cancelled SliceSource reports io.EOF
// without yielding its remaining blocks.
func (s *SliceSource[B]) Next(ctx context.Context) (B, error) {
	var zero B
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if s.cancelled.Load() || s.idx >= len(s.blocks) {
		return zero, io.EOF
	}
	b := s.blocks[s.idx]
	s.idx++
	return b, nil
}

// Cancel implements [Source].
func (s *SliceSource[B]) Cancel() error {
	s.cancelled.Store(true)
	return nil
}

// ID implements [Source].
func (s *SliceSource[B]) ID() string {
	return s.id
}

// FuncSource adapts plain functions to the [Source] contract.
type FuncSource[B any] struct {
	// SourceID is the stable identity reported by ID.
	SourceID string

	// NextFunc produces the next block; it must follow the [Source]
	// Next contract.
	NextFunc func(ctx context.Context) (B, error)

	// CancelFunc, if non-nil, is invoked by Cancel.
	CancelFunc func() error
}

// Next implements [Source].
func (f *FuncSource[B]) Next(ctx context.Context) (B, error) {
	return f.NextFunc(ctx)
}

// Cancel implements [Source]. It is a no-op when CancelFunc is nil.
func (f *FuncSource[B]) Cancel() error {
	if f.CancelFunc != nil {
		return f.CancelFunc()
	}
	return nil
}

// ID implements [Source].
func (f *FuncSource[B]) ID() string {
	return f.SourceID
}
