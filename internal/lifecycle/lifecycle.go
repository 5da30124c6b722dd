// Package lifecycle runs the long-lived parts of a process together and shuts
// them down in order when one finishes, a termination signal arrives, or the
// caller's context ends.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Task is a component that runs until it is done or its context is cancelled.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a plain function into a Task.
type TaskFunc func(ctx context.Context) error

// Run calls f.
func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// Group owns a set of named tasks. Tasks start together and stop in the
// reverse of the order they were added.
type Group struct {
	logger  *zap.Logger
	signals []os.Signal
	tasks   []namedTask
	mu      sync.Mutex
}

type namedTask struct {
	name string
	task Task
}

type running struct {
	cancel   context.CancelFunc
	finished chan struct{}
}

// New creates a Group that shuts down on SIGINT or SIGTERM.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Group {
	return &Group{
		logger:  logger,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Add registers a named task.
//
// Precondition: name must be non-empty; t must be non-nil.
func (g *Group) Add(name string, t Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, namedTask{name: name, task: t})
}

// Run starts every task and blocks until the first task returns, a
// termination signal arrives, or ctx is done. The remaining tasks are then
// cancelled one at a time, last added first, each awaited before the next.
//
// Postcondition: every task has returned. The error is the first task
// failure, wrapped with the task name; a task that returns nil or
// context.Canceled has not failed.
func (g *Group) Run(ctx context.Context) error {
	g.mu.Lock()
	tasks := append([]namedTask(nil), g.tasks...)
	g.mu.Unlock()
	if len(tasks) == 0 {
		return nil
	}

	start := time.Now()
	sigCtx, stop := signal.NotifyContext(ctx, g.signals...)
	defer stop()

	// Tasks keep the caller's values but are cancelled only by shutdown, so
	// the reverse ordering holds even when ctx itself ends.
	base := context.WithoutCancel(ctx)
	errCh := make(chan error, len(tasks))
	runs := make([]running, len(tasks))
	for i, nt := range tasks {
		taskCtx, cancel := context.WithCancel(base)
		runs[i] = running{cancel: cancel, finished: make(chan struct{})}
		go func(nt namedTask, r running) {
			defer close(r.finished)
			g.logger.Debug("starting task", zap.String("task", nt.name))
			err := nt.task.Run(taskCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				g.logger.Error("task failed", zap.String("task", nt.name), zap.Error(err))
				errCh <- fmt.Errorf("task %s: %w", nt.name, err)
				return
			}
			g.logger.Debug("task returned", zap.String("task", nt.name))
			errCh <- nil
		}(nt, runs[i])
	}

	var first error
	select {
	case <-sigCtx.Done():
		if ctx.Err() != nil {
			g.logger.Info("context cancelled, shutting down")
		} else {
			g.logger.Info("received signal, shutting down")
		}
	case first = <-errCh:
		g.logger.Debug("task finished, shutting down", zap.Error(first))
	}

	for i := len(runs) - 1; i >= 0; i-- {
		stopStart := time.Now()
		runs[i].cancel()
		<-runs[i].finished
		g.logger.Debug("task stopped",
			zap.String("task", tasks[i].name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}
	if first == nil {
		for range len(errCh) {
			if err := <-errCh; err != nil {
				first = err
				break
			}
		}
	}

	g.logger.Debug("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return first
}
