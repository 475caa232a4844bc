package union

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Handler receives the output of a [Processor]. All methods are invoked
// on worker goroutines.
type Handler[B any] interface {
	// OnBlock is invoked for every block a worker pulls, with the index
	// of the worker that pulled it.
	OnBlock(block B, worker int)

	// OnError is invoked when a source fails. The error is a
	// [*SourceError]. The worker that reported it retires immediately;
	// stopping the siblings is the handler's call, typically by
	// cancelling the processor.
	OnError(err error, worker int)

	// OnFinish is invoked exactly once, by the last worker to retire,
	// regardless of how many workers ran or why they stopped.
	OnFinish()
}

// Processor drives a fixed set of workers that pull blocks from a list
// of sources concurrently and feed them to a [Handler]. Sources are
// statically partitioned across the workers at Start, so no source is
// ever pulled by two workers at once.
//
// A [Stream] owns a Processor internally; use one directly only when
// the queue-and-consumer half of the merge is not wanted.
type Processor[B any] struct {
	sources []Source[B]
	threads int
	log     *slog.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64 // workers still running; the 1->0 transition fires OnFinish

	started   atomic.Bool
	cancelled atomic.Bool

	handler Handler[B]
}

// NewProcessor creates a processor over the given sources with at most
// maxThreads workers; the effective worker count is
// min(maxThreads, len(sources)). No goroutine is started until
// [Processor.Start]. The processor's lifetime context derives from
// parent.
//
// Panics if maxThreads <= 0 or any source is nil.
func NewProcessor[B any](parent context.Context, sources []Source[B], maxThreads int, log *slog.Logger) *Processor[B] {
	if maxThreads <= 0 {
		panic("union: NewProcessor requires maxThreads > 0")
	}
	for i, src := range sources {
		if src == nil {
			panic(fmt.Sprintf("union: source[%d] must not be nil", i))
		}
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, stop := context.WithCancel(parent)
	return &Processor[B]{
		sources: sources,
		threads: min(maxThreads, len(sources)),
		log:     log,
		ctx:     ctx,
		stop:    stop,
	}
}

// Threads returns the effective worker count.
func (p *Processor[B]) Threads() int {
	return p.threads
}

// Start spawns the workers and begins pulling immediately. It is
// idempotent: only the first call has any effect. If the processor was
// cancelled before Start, no worker is ever spawned and the handler's
// OnFinish fires directly. With zero sources, OnFinish fires directly
// as well.
//
// Panics if h is nil.
func (p *Processor[B]) Start(h Handler[B]) {
	if h == nil {
		panic("union: Start requires a non-nil handler")
	}
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.handler = h

	if p.threads == 0 || p.cancelled.Load() {
		h.OnFinish()
		return
	}

	p.active.Store(int64(p.threads))
	p.wg.Add(p.threads)
	for i := 0; i < p.threads; i++ {
		go p.worker(i)
	}
}

// worker pulls from its statically assigned sources: worker i owns
// sources i, i+T, i+2T, ... in order.
func (p *Processor[B]) worker(idx int) {
	defer p.wg.Done()
	defer p.retire()

	for i := idx; i < len(p.sources); i += p.threads {
		src := p.sources[i]
		for {
			// Cancellation is cooperative: it is observed here, between
			// pulls, never preemptively mid-pull.
			if p.ctx.Err() != nil {
				return
			}

			block, err := p.pull(src)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break // source exhausted, advance to the next one
				}
				if p.ctx.Err() != nil && errors.Is(err, context.Canceled) {
					// The pull was cut short by cancellation, not by a
					// source failure.
					return
				}
				p.handler.OnError(&SourceError{Worker: idx, Source: src.ID(), Err: err}, idx)
				return // an errored worker does not continue pulling
			}
			p.handler.OnBlock(block, idx)
		}
	}
}

// pull guards a single Next call, converting a panicking source into an
// ordinary error.
func (p *Processor[B]) pull(src Source[B]) (block B, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()
	return src.Next(p.ctx)
}

// retire decrements the shared countdown of running workers. The one
// worker that brings it to zero fires OnFinish, so exactly one end
// marker is ever emitted per merge.
func (p *Processor[B]) retire() {
	if p.active.Add(-1) == 0 {
		p.handler.OnFinish()
	}
}

// Cancel requests a cooperative stop. The first caller among concurrent
// ones cancels the processor's context and forwards the cancellation to
// every source; later calls are no-ops. A source failing or panicking
// while being cancelled is logged and never prevents the cancellation
// of its siblings.
func (p *Processor[B]) Cancel() {
	if !p.cancelled.CompareAndSwap(false, true) {
		return
	}

	p.stop()
	for _, src := range p.sources {
		p.cancelSource(src)
	}
}

func (p *Processor[B]) cancelSource(src Source[B]) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic while cancelling source",
				slog.String("source", src.ID()),
				slog.Any("panic", r))
		}
	}()

	if err := src.Cancel(); err != nil {
		p.log.Warn("failed to cancel source",
			slog.String("source", src.ID()),
			slog.Any("error", err))
	}
}

// Cancelled reports whether Cancel has been called.
func (p *Processor[B]) Cancelled() bool {
	return p.cancelled.Load()
}

// Started reports whether Start has been called.
func (p *Processor[B]) Started() bool {
	return p.started.Load()
}

// Active returns the number of workers still running.
func (p *Processor[B]) Active() int64 {
	if !p.started.Load() {
		return 0
	}
	return max(p.active.Load(), 0)
}

// Wait blocks until every worker has stopped, due to exhaustion, an
// error, or observed cancellation. It is safe to call multiple times
// and before Start.
func (p *Processor[B]) Wait() {
	p.wg.Wait()
}
