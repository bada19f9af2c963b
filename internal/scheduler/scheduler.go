package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is periodic housekeeping run alongside the listeners
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler runs each task on its own ticker until stopped
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   []Task
	wg      sync.WaitGroup
	started bool
}

func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask registers a task. Tasks added after Start are ignored.
func (s *Scheduler) AddTask(task Task) {
	if s.started {
		slog.Warn("Ignoring task added after start", "task", task.Name())
		return
	}
	if task.Interval() <= 0 {
		slog.Warn("Ignoring task with non-positive interval", "task", task.Name(), "interval", task.Interval())
		return
	}
	s.tasks = append(s.tasks, task)
}

func (s *Scheduler) Start() {
	s.started = true
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels every task and waits for running ones to return
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	s.runOnce(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(task)
		}
	}
}

func (s *Scheduler) runOnce(task Task) {
	if err := task.Run(s.ctx); err != nil && s.ctx.Err() == nil {
		slog.Error("Error running task", "task", task.Name(), "error", err)
	}
}
