// Package dispatch provides a fixed-size worker pool and a typed future
// for running index operations off the caller's goroutine.
//
// Slow operations are submitted with Go, which returns a Future the caller
// can await with Wait or Result. The pool applies backpressure through its
// bounded work channel, so producers slow down instead of queueing work
// without limit.
package dispatch
