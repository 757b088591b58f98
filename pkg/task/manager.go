package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vibe-transcode-service/pkg/logger"
)

// BackgroundTask represents a long-running background process such as the job worker pool.
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

type manager struct {
	tasks   []BackgroundTask
	started int
	mu      sync.Mutex
	cancel  context.CancelFunc
}

var defaultManager = &manager{tasks: make([]BackgroundTask, 0)}

// Register adds a background task; call during assembly before StartAll.
func Register(task BackgroundTask) {
	if task == nil {
		return
	}
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = append(defaultManager.tasks, task)
}

// StartAll starts all registered tasks once, in registration order. When a
// task fails to start, the ones already started are stopped again.
func StartAll(ctx context.Context) error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		return nil
	}
	taskCtx, cancel := context.WithCancel(ctx)
	defaultManager.cancel = cancel
	defaultManager.started = 0
	for _, t := range defaultManager.tasks {
		if err := t.Start(taskCtx); err != nil {
			defaultManager.stopLocked()
			return fmt.Errorf("start task %s: %w", t.Name(), err)
		}
		defaultManager.started++
		logger.Infof("background task started name=%s", t.Name())
	}
	return nil
}

// StopAll stops running tasks in reverse start order and reports every failure.
func StopAll() error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	return defaultManager.stopLocked()
}

// Reset drops all registrations. Running tasks are stopped first.
func Reset() {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	_ = defaultManager.stopLocked()
	defaultManager.tasks = defaultManager.tasks[:0]
}

func (m *manager) stopLocked() error {
	if m.cancel == nil {
		return nil
	}
	var errs []error
	for i := m.started - 1; i >= 0; i-- {
		t := m.tasks[i]
		if err := t.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop task %s: %w", t.Name(), err))
			continue
		}
		logger.Infof("background task stopped name=%s", t.Name())
	}
	m.cancel()
	m.cancel = nil
	m.started = 0
	return errors.Join(errs...)
}
