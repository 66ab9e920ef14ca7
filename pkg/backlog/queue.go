// Package backlog tracks containers awaiting a split. Recording sessions
// finish faster than splits run, so the pipeline drains the backlog out of
// band instead of splitting inline at the end of each session.
package backlog

import "context"

// Queue is a set of container paths pending a split. Enqueueing the same
// path twice is a no-op, and entries survive process restarts in the
// durable implementations.
type Queue interface {
	Enqueue(ctx context.Context, containerPath string) error
	// List returns the queued paths in an unspecified order.
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, containerPath string) error
}
