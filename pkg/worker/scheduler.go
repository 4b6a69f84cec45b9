package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// Scheduler runs jobs on fixed intervals until stopped
type Scheduler struct {
	jobs   []job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:    log.With(zap.String("component", "scheduler")),
		stopCh: make(chan struct{}),
	}
}

// Every registers a job. Must be called before Start.
func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		if j.interval <= 0 {
			s.log.Warn("Job disabled, non-positive interval", zap.String("job", j.name))
			continue
		}

		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.log.Info("Job scheduled", zap.String("job", j.name), zap.Duration("interval", j.interval))
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := j.run(ctx); err != nil {
				s.log.Error("Job failed", zap.String("job", j.name), zap.Error(err))
				continue
			}
			s.log.Debug("Job finished", zap.String("job", j.name), zap.Duration("duration", time.Since(start)))
		}
	}
}
