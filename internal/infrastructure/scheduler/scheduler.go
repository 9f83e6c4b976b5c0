// Package scheduler runs periodic housekeeping tasks such as sweeping
// expired checkout sessions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc performs one run and reports how many records it touched
type TaskFunc func(ctx context.Context) (int64, error)

// Task is a named function run every Interval.
type Task struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      TaskFunc
	// RunOnStart runs the task once immediately after Start
	RunOnStart bool
}

// TaskStatus is the outcome of a task's most recent run
type TaskStatus struct {
	Name      string        `json:"name"`
	Runs      int64         `json:"runs"`
	Failures  int64         `json:"failures"`
	LastRunAt *time.Time    `json:"last_run_at,omitempty"`
	LastCount int64         `json:"last_count"`
	LastError string        `json:"last_error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Scheduler runs each registered task on its own ticker. A task never
// overlaps with itself because each one has a single loop goroutine.
type Scheduler struct {
	logger *zap.Logger

	mu        sync.Mutex
	tasks     []Task
	status    map[string]*TaskStatus
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// New creates an idle scheduler
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.Named("scheduler"),
		status: make(map[string]*TaskStatus),
	}
}

// Register adds a task; it must be called before Start
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Run == nil || task.Interval <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTask, task.Name)
	}
	if task.Timeout <= 0 {
		task.Timeout = task.Interval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.status[task.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
	}
	s.tasks = append(s.tasks, task)
	s.status[task.Name] = &TaskStatus{Name: task.Name}
	return nil
}

// Start launches one loop per task; starting twice is a no-op
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop cancels the loops and waits for in-flight runs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Status returns a copy of every task's last outcome
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *s.status[task.Name])
	}
	return out
}

// RunNow executes a task synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	var found *Task
	for i := range s.tasks {
		if s.tasks[i].Name == name {
			found = &s.tasks[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTask, name)
	}
	return s.execute(ctx, *found)
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	if task.RunOnStart {
		_, _ = s.execute(ctx, task)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.execute(ctx, task)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, task Task) (n int64, err error) {
	runCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
		s.record(task.Name, start, n, err)
	}()

	return task.Run(runCtx)
}

func (s *Scheduler) record(name string, start time.Time, n int64, err error) {
	elapsed := time.Since(start)

	s.mu.Lock()
	st := s.status[name]
	st.Runs++
	st.LastRunAt = &start
	st.LastCount = n
	st.Duration = elapsed
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled task failed", zap.String("task", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled task finished",
		zap.String("task", name),
		zap.Int64("count", n),
		zap.Duration("elapsed", elapsed))
}
