// Package queue provides the bounded blocking queue used between the
// merge workers and the consumer.
//
// Go channels almost cover this, but not quite: teardown needs a way to
// stop producers from ever blocking again, releasing the ones already
// blocked in a send, without closing the channel (a close would panic
// the producers still running). [Bounded] wraps a buffered channel with
// exactly that operation:
//
//   - [Bounded.Push]: blocking send, a discard once the queue is
//     closed.
//   - [Bounded.Pop]: blocking receive, released early by context
//     cancellation.
//   - [Bounded.TryPop]: non-blocking receive, used to drain residual
//     items during finalization.
//   - [Bounded.Close]: release every blocked push and turn all further
//     pushes into discards, while queued items stay poppable.
package queue
