package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull se devuelve cuando la cola acotada no acepta más tareas
var ErrQueueFull = errors.New("worker queue is full")

// ErrStopped se devuelve al encolar después de Stop
var ErrStopped = errors.New("worker pool stopped")

// Task es la unidad de trabajo; recibe el contexto del pool.
type Task func(ctx context.Context)

type WorkerPool struct {
	jobs    chan Task
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorkerPool(workers, queueSize int, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 5
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerPool{
		jobs:    make(chan Task, queueSize),
		workers: workers,
		logger:  logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	wp.mu.Lock()
	wp.cancel = cancel
	wp.mu.Unlock()

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Submit encola sin bloquear.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrStopped
	}

	select {
	case wp.jobs <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop deja de aceptar tareas, drena lo encolado y espera a los workers.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()

	wp.mu.RLock()
	cancel := wp.cancel
	wp.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug("Worker started", zap.Int("worker_id", id))

	for task := range wp.jobs {
		wp.run(ctx, id, task)
	}

	wp.logger.Debug("Worker stopped", zap.Int("worker_id", id))
}

func (wp *WorkerPool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Worker task panicked", zap.Int("worker_id", id), zap.Any("panic", r))
		}
	}()
	task(ctx)
}
