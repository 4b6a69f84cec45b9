package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs fire-and-forget tasks on a fixed set of goroutines. Task errors
// and panics are logged and never reach the submitter.
type Pool struct {
	workers int
	queue   chan Task
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	running bool
	closed  bool
}

func NewPool(workers, queueSize int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		log:     log.With(zap.String("component", "worker_pool")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.closed {
		return
	}
	p.running = true

	p.log.Info("Starting workers", zap.Int("workers", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
}

// Submit enqueues without blocking. It reports false when the pool is
// stopped or the queue is full.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.log.Warn("Task rejected, pool stopped", zap.String("task", task.Name))
		return false
	}

	select {
	case p.queue <- task:
		return true
	default:
		p.log.Error("Task dropped, queue full", zap.String("task", task.Name))
		return false
	}
}

// Stop refuses new tasks and waits for queued ones to finish. If ctx expires
// first, running tasks see their context cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("All workers stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()

	for task := range p.queue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Task panicked",
				zap.String("task", task.Name),
				zap.Int("worker", id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := task.Run(p.ctx); err != nil {
		p.log.Error("Task failed",
			zap.String("task", task.Name),
			zap.Int("worker", id),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	p.log.Debug("Task finished",
		zap.String("task", task.Name),
		zap.Int("worker", id),
		zap.Duration("duration", time.Since(start)),
	)
}
