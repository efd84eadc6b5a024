// Package session drives a live stream viewing session: it owns the single
// connection, acquires the freshest frame available each iteration, and
// supervises reconnection after sustained failure.
//
// # Acquisition
//
// Each iteration runs a flush cycle of up to K reads (default 3), discarding
// all but the last successfully decoded frame. The transport delivers frames
// faster than a render loop consumes them; the flush bounds staleness to a
// single cycle instead of letting the receive buffer back up. The loop is
// source-paced: no display-side frame-rate throttling is applied.
//
// # Reconnection
//
// Read failures feed a consecutive-failure counter; any success resets it.
// When the counter reaches the threshold (default 30) the session closes the
// connection, waits out the retry policy's backoff, and reopens. The default
// policy retries forever with a flat 2 second delay; see RetryPolicy to
// bound attempts or enable capped exponential backoff.
//
// # Concurrency
//
// One goroutine runs everything: acquisition, annotation, rendering and
// input handling, strictly sequential per iteration. The connection handle
// is mutated only between iterations. Cancellation is honored at iteration
// boundaries and during backoff waits; an in-flight blocking read is bounded
// only by the transport layer's own timeout behavior.
package session
