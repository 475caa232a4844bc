// Package union merges several independently-produced streams of data
// blocks into a single stream, pulling from the sources concurrently
// with a fixed pool of workers.
//
// It is the fan-in step of a columnar query pipeline: each [Source]
// produces a sequence of opaque blocks, the merge interleaves them in
// whatever order the workers deliver them, and a bounded queue between
// the workers and the consumer provides backpressure so a slow consumer
// bounds memory instead of growing it.
//
// # Merging
//
// Create a merge with [New], giving it the sources and a thread budget,
// and consume it with [Stream.Next]:
//
//	s := union.New(ctx, sources, 4)
//	defer s.Close()
//
//	for {
//	    block, err := s.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    process(block)
//	}
//
// No goroutine is started until the first call to Next, so a merge that
// is cancelled or closed before being consumed never spawns a thread.
// Relative order between blocks of different sources is not preserved.
//
// # Sources
//
// A [Source] is any producer with a pull contract: Next, a best-effort
// Cancel, and a stable ID. [SliceSource] and [FuncSource] adapt slices
// and plain functions. A [Stream] is itself a Source, so merges compose
// recursively.
//
// Each source is owned by exactly one worker at a time (sources are
// statically partitioned across the workers), so a Source never has to
// tolerate concurrent Next calls.
//
// # Errors
//
// A source failure is wrapped in a [*SourceError] carrying the worker
// index and source ID, delivered to the consumer through the stream,
// and cancels the remaining sources as a side effect. The first error
// is the one the consumer sees; failures while cancelling siblings are
// only logged. Use [IsSourceError] and [SourceOf] to inspect errors.
//
// # Cancellation and teardown
//
// [Stream.Cancel] requests a cooperative stop: workers observe it
// between pulls, so a pull already in flight on a slow source completes
// first. There is no built-in timeout; callers compose one by racing a
// timer against Cancel, or by cancelling the context passed to Next.
//
// [Stream.Close] tears the merge down: it cancels if the stream was not
// fully drained, releases any producer still blocked on the queue, and
// joins the workers. Close is idempotent and never panics. Callers that
// need the stricter contract call [Stream.Finalize] directly, which
// also surfaces any residual error still sitting in the queue.
//
// # Observability
//
// The merge logs through an injected [log/slog.Logger] (see
// [WithLogger]); there is no package-level mutable state. [WithOnBlock]
// and [WithOnFinish] register lifecycle hooks, and [Stream.Stats]
// returns a point-in-time snapshot of counters.
package union
