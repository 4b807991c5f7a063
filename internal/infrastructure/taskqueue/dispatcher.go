package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the task buffer has no room left
var ErrQueueFull = shared.NewDomainError("TASK_QUEUE_FULL", "Task queue is full")

// ErrDuplicateTask is returned when a task with the same name is
// already queued or running within the dedup window
var ErrDuplicateTask = shared.NewDomainError("DUPLICATE_TASK", "Task is already queued")

// ErrDispatcherStopped is returned when a task is submitted after Stop
var ErrDispatcherStopped = shared.NewDomainError("TASK_QUEUE_STOPPED", "Task dispatcher is stopped")

// TaskFunc is the work a background task performs
type TaskFunc func(ctx context.Context) error

// Task is one named unit of background work
type Task struct {
	Name string
	Run  TaskFunc
}

// Config tunes the dispatcher
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	DedupTTL    time.Duration
}

// Dispatcher runs named tasks on a fixed worker pool. Task names
// dedupe through the store so re-submitting long imports or cache
// rebuilds while one is still running becomes a no-op.
type Dispatcher struct {
	cfg    Config
	dedup  DedupStore
	logger *zap.Logger
	tasks  chan Task
	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a dispatcher with the given worker pool size
func NewDispatcher(cfg Config, dedup DedupStore, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Minute
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = time.Hour
	}
	return &Dispatcher{
		cfg:    cfg,
		dedup:  dedup,
		logger: logger,
		tasks:  make(chan Task, cfg.QueueSize),
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.logger.Info("task dispatcher started", zap.Int("workers", d.cfg.Workers))
}

// Stop drains in-flight tasks and shuts the pool down
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.tasks)
		d.mu.Unlock()
		d.wg.Wait()
		if d.cancel != nil {
			d.cancel()
		}
		d.logger.Info("task dispatcher stopped")
	})
}

// Enqueue submits a named task. A name already claimed within the
// dedup window is rejected with ErrDuplicateTask. After Stop every
// submission fails with ErrDispatcherStopped.
func (d *Dispatcher) Enqueue(ctx context.Context, task Task) error {
	if task.Name == "" {
		task.Name = RandomTaskName("task")
	}
	claimed, err := d.dedup.Claim(ctx, task.Name, d.cfg.DedupTTL)
	if err != nil {
		return fmt.Errorf("claim task name: %w", err)
	}
	if !claimed {
		return ErrDuplicateTask
	}

	// The read lock covers the send so Stop cannot close the channel
	// between the stopped check and the send
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		if relErr := d.dedup.Release(ctx, task.Name); relErr != nil {
			d.logger.Warn("failed to release task claim", zap.String("task", task.Name), zap.Error(relErr))
		}
		return ErrDispatcherStopped
	}

	select {
	case d.tasks <- task:
		d.logger.Debug("task queued", zap.String("task", task.Name))
		return nil
	default:
		if relErr := d.dedup.Release(ctx, task.Name); relErr != nil {
			d.logger.Warn("failed to release task claim", zap.String("task", task.Name), zap.Error(relErr))
		}
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for task := range d.tasks {
		d.runTask(ctx, task)
	}
}

func (d *Dispatcher) runTask(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked", zap.String("task", task.Name), zap.Any("panic", r))
		}
		if err := d.dedup.Release(context.Background(), task.Name); err != nil {
			d.logger.Warn("failed to release task claim", zap.String("task", task.Name), zap.Error(err))
		}
	}()

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		d.logger.Error("task failed",
			zap.String("task", task.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	d.logger.Info("task completed",
		zap.String("task", task.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RandomTaskName builds a unique task name for work that should never
// dedupe against other submissions
func RandomTaskName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
