package backlog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSQueueRoundTrip(t *testing.T) {
	q, err := NewFSQueue(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "/data/b_R001.xdf"))
	require.NoError(t, q.Enqueue(ctx, "/data/a_R001.xdf"))
	// Re-enqueueing an entry is idempotent.
	require.NoError(t, q.Enqueue(ctx, "/data/a_R001.xdf"))

	paths, err := q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a_R001.xdf", "/data/b_R001.xdf"}, paths)

	require.NoError(t, q.Remove(ctx, "/data/a_R001.xdf"))
	paths, err = q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/b_R001.xdf"}, paths)

	// Removing an absent entry is not an error.
	assert.NoError(t, q.Remove(ctx, "/data/never_queued.xdf"))
}

func TestFSQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	q1, err := NewFSQueue(dir)
	require.NoError(t, err)
	require.NoError(t, q1.Enqueue(ctx, "/data/a_R001.xdf"))

	q2, err := NewFSQueue(dir)
	require.NoError(t, err)
	paths, err := q2.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a_R001.xdf"}, paths)
}

func TestRunnerDrainRemovesOnlySuccesses(t *testing.T) {
	q, err := NewFSQueue(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "/data/good_R001.xdf"))
	require.NoError(t, q.Enqueue(ctx, "/data/bad_R001.xdf"))

	var attempts []string
	runner := NewRunner(q, func(_ context.Context, path string) error {
		attempts = append(attempts, path)
		if path == "/data/bad_R001.xdf" {
			return errors.New("boom")
		}
		return nil
	}, 0, nil)

	processed, failed, err := runner.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
	assert.Len(t, attempts, 2)

	remaining, err := q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/bad_R001.xdf"}, remaining)
}

func TestRunnerDrainEmptyQueue(t *testing.T) {
	q, err := NewFSQueue(t.TempDir())
	require.NoError(t, err)

	processed, failed, err := NewRunner(q, func(context.Context, string) error {
		t.Fatal("split must not run on an empty queue")
		return nil
	}, 0, nil).Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Zero(t, failed)
}
