// Package jobs holds the in-memory job registry.
//
// A job moves Pending -> Running -> one terminal state. SetStatus covers the
// non-terminal moves; Finish sets the terminal state and the end time
// together, so a reader never observes a terminal job without an end time or
// an open job with one. Each job has a single writer, the conversion task that
// owns it, while any number of readers may list the registry concurrently.
package jobs
