package backlog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// SplitFunc processes one queued container.
type SplitFunc func(ctx context.Context, containerPath string) error

// Runner drains a backlog queue, removing each container once its split
// succeeds. Failed containers stay queued for the next drain, and the
// optional rate limit keeps long drains from starving the acquisition
// machines of disk bandwidth.
type Runner struct {
	queue   Queue
	split   SplitFunc
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewRunner builds a drain loop. splitsPerMinute of 0 disables the
// throttle; a nil log falls back to slog.Default.
func NewRunner(queue Queue, split SplitFunc, splitsPerMinute float64, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if splitsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(splitsPerMinute/60), 1)
	}
	return &Runner{queue: queue, split: split, limiter: limiter, log: log}
}

// Drain processes every container queued at the time of the call and
// reports how many succeeded and how many failed. A queue error aborts
// the drain; split errors do not.
func (r *Runner) Drain(ctx context.Context) (processed, failed int, err error) {
	paths, err := r.queue.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, path := range paths {
		if err := r.limiter.Wait(ctx); err != nil {
			return processed, failed, fmt.Errorf("backlog: waiting for rate limit: %w", err)
		}
		if err := r.split(ctx, path); err != nil {
			failed++
			r.log.Error("backlog split failed; leaving container queued",
				"container", path, "error", err)
			continue
		}
		if err := r.queue.Remove(ctx, path); err != nil {
			return processed, failed, err
		}
		processed++
		r.log.Info("backlog split complete", "container", path)
	}
	return processed, failed, nil
}
