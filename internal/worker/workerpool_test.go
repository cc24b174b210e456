package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPool_RunsAllTasksBeforeStop(t *testing.T) {
	wp := NewWorkerPool(3, 100, zap.NewNop())
	wp.Start(context.Background())

	var count atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, wp.Submit(func(ctx context.Context) { count.Add(1) }))
	}
	wp.Stop()

	assert.Equal(t, int32(50), count.Load())
}

func TestWorkerPool_QueueFull(t *testing.T) {
	wp := NewWorkerPool(1, 1, zap.NewNop())
	// sin Start: nadie consume la cola
	require.NoError(t, wp.Submit(func(ctx context.Context) {}))
	assert.ErrorIs(t, wp.Submit(func(ctx context.Context) {}), ErrQueueFull)
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	wp := NewWorkerPool(1, 1, zap.NewNop())
	wp.Start(context.Background())
	wp.Stop()
	wp.Stop()

	assert.ErrorIs(t, wp.Submit(func(ctx context.Context) {}), ErrStopped)
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	wp := NewWorkerPool(1, 10, zap.NewNop())
	wp.Start(context.Background())

	var ran atomic.Bool
	require.NoError(t, wp.Submit(func(ctx context.Context) { panic("boom") }))
	require.NoError(t, wp.Submit(func(ctx context.Context) { ran.Store(true) }))
	wp.Stop()

	assert.True(t, ran.Load())
}
