package worker

import (
	"context"
	"fmt"

	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/task"
)

// JobWorkerComponent 将作业工作器注册为后台任务，由 task 管理器统一启停
type JobWorkerComponent struct {
	name   string
	worker JobWorker
}

func NewJobWorkerComponent(name string, worker JobWorker) *JobWorkerComponent {
	return &JobWorkerComponent{name: name, worker: worker}
}

func (c *JobWorkerComponent) Start() error {
	if c.worker == nil {
		return fmt.Errorf("job worker not initialized")
	}
	task.Register(&backgroundTaskAdapter{name: c.name, startFunc: c.worker.Start, stopFunc: c.worker.Stop})
	logger.Infof("job worker component registered background task name=%s", c.name)
	return nil
}

func (c *JobWorkerComponent) GetName() string { return c.name }

// backgroundTaskAdapter adapts Start/Stop functions to the BackgroundTask interface.
type backgroundTaskAdapter struct {
	name      string
	startFunc func(ctx context.Context) error
	stopFunc  func() error
}

func (b *backgroundTaskAdapter) Name() string                    { return b.name }
func (b *backgroundTaskAdapter) Start(ctx context.Context) error { return b.startFunc(ctx) }
func (b *backgroundTaskAdapter) Stop() error                     { return b.stopFunc() }
