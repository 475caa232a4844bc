package union

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/colq/union/queue"
)

// item is what travels through the output queue: a block, the end
// marker (err == io.EOF), or a source error. Modelling the end marker
// and errors explicitly keeps an empty block from ever being mistaken
// for completion.
type item[B any] struct {
	block B
	err   error
}

// Stream merges the blocks of several sources into one pull stream.
// Blocks from different sources are interleaved in arbitrary order.
//
// Stream is single-consumer: Next, Finalize and Close must be called
// from one goroutine. Cancel is safe from any goroutine, including
// concurrently with Next.
//
// A Stream is itself a [Source], so it can feed an outer merge.
type Stream[B any] struct {
	sources []Source[B]
	out     *queue.Bounded[item[B]]
	proc    *Processor[B]
	log     *slog.Logger
	cfg     config

	started bool // workers are spawned lazily on the first Next
	allRead bool // the consumer has observed the end marker

	blocks atomic.Int64
	errs   atomic.Int64
}

var _ Source[int] = (*Stream[int])(nil)

// New creates a merge over the given sources with a budget of at most
// maxThreads workers. Construction is cheap: workers, and therefore the
// pulls into the sources, start on the first call to [Stream.Next].
//
// Zero sources is legal and yields an immediately-exhausted stream.
// Panics if maxThreads <= 0 or any source is nil.
func New[B any](parent context.Context, sources []Source[B], maxThreads int, opts ...Option) *Stream[B] {
	if maxThreads <= 0 {
		panic("union: New requires maxThreads > 0")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	proc := NewProcessor(parent, sources, maxThreads, cfg.logger)

	capacity := cfg.queueCap
	if capacity == 0 {
		// One slot per worker, so every worker can have a block ready
		// while the consumer processes the previous one.
		capacity = max(proc.Threads(), 1)
	}

	return &Stream[B]{
		sources: sources,
		out:     queue.NewBounded[item[B]](capacity),
		proc:    proc,
		log:     cfg.logger,
		cfg:     cfg,
	}
}

// handler feeds the processor's output into the stream's queue. It
// holds a plain back-reference to the stream; the processor is always
// joined before the stream is torn down, so the reference never
// outlives its target.
type handler[B any] struct {
	s *Stream[B]
}

func (h handler[B]) OnBlock(block B, worker int) {
	if !h.s.out.Push(item[B]{block: block}) {
		return // the queue was closed for teardown, the block is discarded
	}
	h.s.blocks.Add(1)
	if h.s.cfg.onBlock != nil {
		h.s.cfg.onBlock(worker)
	}
}

func (h handler[B]) OnError(err error, worker int) {
	h.s.errs.Add(1)

	// The error must be queued before cancellation kicks in. In the
	// other order, the end marker of the last retiring worker could
	// land in the queue ahead of the error and the error would be lost
	// to a fast finalize.
	h.s.out.Push(item[B]{err: err})
	h.s.Cancel()
}

func (h handler[B]) OnFinish() {
	if h.s.cfg.onFinish != nil {
		h.s.cfg.onFinish()
	}
	h.s.out.Push(item[B]{err: io.EOF})
}

// Next returns the next merged block. It returns io.EOF once all
// sources are exhausted; after that, every subsequent call returns
// io.EOF without touching the queue. A source failure surfaces as a
// [*SourceError], exactly once; the merge is then terminated and
// further calls are only defined after a Cancel.
//
// The first call starts the workers. ctx guards only this consumer-side
// wait: cancelling it unblocks Next with ctx's error but does not
// cancel the merge itself.
func (s *Stream[B]) Next(ctx context.Context) (B, error) {
	var zero B
	if s.allRead {
		return zero, io.EOF
	}

	if !s.started {
		s.started = true
		s.proc.Start(handler[B]{s})
	}

	it, err := s.out.Pop(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrClosed) {
			// The queue was closed by Finalize; the merge is over.
			s.allRead = true
			return zero, io.EOF
		}
		return zero, err
	}
	if it.err != nil {
		if errors.Is(it.err, io.EOF) {
			s.allRead = true
			return zero, io.EOF
		}
		return zero, it.err
	}
	return it.block, nil
}

// Cancel cooperatively stops the merge: workers stop before their next
// pull and the cancellation is forwarded to every source. Idempotent
// and safe to call from any goroutine at any point, including before
// the first Next (in which case no worker is ever spawned). The
// returned error is always nil; the signature matches [Source] so a
// Stream can feed an outer merge.
func (s *Stream[B]) Cancel() error {
	s.proc.Cancel()
	return nil
}

// ID returns the canonical identity of the merge node: the IDs of its
// sources, sorted, so two merges over the same source set compare equal
// regardless of the order the sources were supplied in.
func (s *Stream[B]) ID() string {
	ids := make([]string, len(s.sources))
	for i, src := range s.sources {
		ids[i] = src.ID()
	}
	sort.Strings(ids)

	return "Union(" + strings.Join(ids, ", ") + ")"
}

// Finalize tears the merge down: it drains whatever is left in the
// queue, closes the queue so no worker can block on it again, and joins
// the workers. It returns the first residual source error found while
// draining — an error that was queued behind an already-consumed end
// marker would otherwise be lost. Finalize is idempotent.
//
// The stream must have been fully drained (Next returned io.EOF) or
// cancelled first; calling Finalize sooner is a programming error and
// panics.
func (s *Stream[B]) Finalize() error {
	if !s.allRead && !s.proc.Cancelled() {
		panic("union: Finalize called before the stream was drained or cancelled")
	}

	residual := s.drainResidual()

	// Closing releases any producer blocked in a push and turns every
	// later push into an immediate discard. A worker whose pull was
	// still in flight when we got here retires without blocking, end
	// marker included, so the join below cannot deadlock.
	s.out.Close()
	s.proc.Wait()

	// A push racing the close may still have landed in remaining queue
	// space; with the workers joined, this sweep is final.
	if err := s.drainResidual(); err != nil && residual == nil {
		residual = err
	}

	return residual
}

func (s *Stream[B]) drainResidual() error {
	var residual error
	for {
		it, ok := s.out.TryPop()
		if !ok {
			return residual
		}
		if it.err != nil && !errors.Is(it.err, io.EOF) && residual == nil {
			residual = it.err
		}
	}
}

// Close releases the merge unconditionally: it cancels unless the
// stream was fully drained, then finalizes. Any residual error is
// logged and discarded; nothing escapes Close, so it is always safe in
// a defer. Idempotent.
func (s *Stream[B]) Close() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic during merge teardown",
				slog.String("id", s.ID()),
				slog.Any("panic", r))
		}
	}()

	if !s.allRead {
		_ = s.Cancel()
	}
	if err := s.Finalize(); err != nil {
		s.log.Warn("error discarded during merge teardown",
			slog.String("id", s.ID()),
			slog.Any("error", err))
	}
}

// Stats is a point-in-time snapshot of merge activity.
type Stats struct {
	Blocks        int64 // blocks delivered to the output queue
	Errors        int64 // source failures observed
	ActiveWorkers int64 // workers currently running
	QueueDepth    int   // blocks ready but not yet consumed
	Workers       int   // effective worker count (fixed at creation)
}

// Stats returns a snapshot of the merge's counters.
// Safe to call concurrently.
func (s *Stream[B]) Stats() Stats {
	return Stats{
		Blocks:        s.blocks.Load(),
		Errors:        s.errs.Load(),
		ActiveWorkers: s.proc.Active(),
		QueueDepth:    s.out.Len(),
		Workers:       s.proc.Threads(),
	}
}
