package union

import "log/slog"

type config struct {
	logger   *slog.Logger
	queueCap int
	onBlock  func(worker int)
	onFinish func()
}

// Option configures a merge created by [New].
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger the merge reports through. The merge logs
// only exceptional conditions: failures while cancelling sources and
// errors discarded during teardown. Defaults to [slog.Default].
// Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("union: WithLogger requires a non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}

// WithQueueCapacity sets the capacity of the output queue between the
// workers and the consumer, bounding the number of ready-but-unconsumed
// blocks. The default is the worker count, which guarantees every
// worker can deliver one last block during teardown without a second
// release of the queue.
//
// Panics if n <= 0.
func WithQueueCapacity(n int) Option {
	return func(c *config) {
		if n <= 0 {
			panic("union: WithQueueCapacity requires n > 0")
		}
		c.queueCap = n
	}
}

// WithOnBlock registers a hook invoked with the worker index every time
// a worker delivers a block to the output queue. The hook runs on the
// worker's goroutine and must not block.
// Panics if fn is nil.
func WithOnBlock(fn func(worker int)) Option {
	if fn == nil {
		panic("union: WithOnBlock requires a non-nil callback")
	}
	return func(c *config) {
		c.onBlock = fn
	}
}

// WithOnFinish registers a hook invoked exactly once when all sources
// are exhausted, just before the end marker is queued. The hook runs on
// the goroutine of the last retiring worker.
// Panics if fn is nil.
func WithOnFinish(fn func()) Option {
	if fn == nil {
		panic("union: WithOnFinish requires a non-nil callback")
	}
	return func(c *config) {
		c.onFinish = fn
	}
}
