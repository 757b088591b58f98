package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/ddd/domain/service"
	"vibe-transcode-service/ddd/infrastructure/queue"
	"vibe-transcode-service/pkg/logger"
)

// errShuttingDown marks queued jobs that never reached a worker.
var errShuttingDown = errors.New("service shutting down before the job started")

// JobWorker 作业工作器接口
type JobWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止工作器
	Stop() error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	ProcessedJobs    uint64
	SuccessfulJobs   uint64
	FailedJobs       uint64
	AbandonedJobs    uint64
	CurrentlyRunning int
	StartTime        time.Time
	LastJobTime      time.Time
}

// jobWorkerImpl 固定数量的协程从队列取作业，每个作业独立运行处理流程
type jobWorkerImpl struct {
	id          string
	jobQueue    queue.JobQueue
	pipeline    service.JobPipeline
	workerCount int
	gracePeriod time.Duration
	running     bool
	cancel      context.CancelFunc
	stats       WorkerStats
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewJobWorker 创建作业工作器。gracePeriod 为停止时等待进行中作业的时间，超时后取消。
func NewJobWorker(id string, jobQueue queue.JobQueue, pipeline service.JobPipeline, workerCount int, gracePeriod time.Duration) JobWorker {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &jobWorkerImpl{
		id:          id,
		jobQueue:    jobQueue,
		pipeline:    pipeline,
		workerCount: workerCount,
		gracePeriod: gracePeriod,
		stats:       WorkerStats{StartTime: time.Now()},
	}
}

// Start 启动工作器
func (w *jobWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}

	// 与请求无关的上下文，停止时才取消
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("starting job worker id=%s goroutines=%d", w.id, w.workerCount)
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.workerLoop(workerCtx, i)
	}
	return nil
}

// Stop 关闭队列，等待进行中的作业；超过宽限期后取消它们。
// 仍在排队的作业被标记为失败。
func (w *jobWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel := w.cancel
	w.mu.Unlock()

	logger.Infof("stopping job worker id=%s", w.id)
	_ = w.jobQueue.Close()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	if w.gracePeriod > 0 {
		select {
		case <-done:
		case <-time.After(w.gracePeriod):
			logger.Warnf("job worker grace period elapsed, cancelling running jobs id=%s grace=%s", w.id, w.gracePeriod)
		}
	}
	cancel()
	<-done

	w.abandonPending()
	logger.Infof("job worker stopped id=%s", w.id)
	return nil
}

// IsRunning 检查工作器是否运行中
func (w *jobWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats 获取工作器统计信息
func (w *jobWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// workerLoop 工作器主循环
func (w *jobWorkerImpl) workerLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger.Debugf("worker %s-%d started", w.id, workerID)
	defer logger.Debugf("worker %s-%d stopped", w.id, workerID)

	for {
		job, err := w.jobQueue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			logger.Warnf("worker %s-%d failed to dequeue job: %v", w.id, workerID, err)
			continue
		}
		if job == nil {
			continue
		}
		w.processJob(ctx, job, workerID)
	}
}

// processJob 处理单个作业
func (w *jobWorkerImpl) processJob(ctx context.Context, job *entity.JobEntity, workerID int) {
	if job.IsCompleted() || job.IsFailed() {
		logger.Warnf("worker %s-%d skip terminal job %s status=%s", w.id, workerID, job.ID(), job.Status())
		return
	}

	w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning++
		stats.LastJobTime = time.Now()
	})
	defer w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning--
		stats.ProcessedJobs++
	})

	if err := w.pipeline.Run(ctx, job); err != nil {
		w.updateStats(func(stats *WorkerStats) { stats.FailedJobs++ })
		return
	}
	w.updateStats(func(stats *WorkerStats) { stats.SuccessfulJobs++ })
}

func (w *jobWorkerImpl) abandonPending() {
	ctx := context.Background()
	for {
		job, err := w.jobQueue.TryDequeue(ctx)
		if err != nil || job == nil {
			return
		}
		_ = w.pipeline.Abort(ctx, job, errShuttingDown)
		w.updateStats(func(stats *WorkerStats) { stats.AbandonedJobs++ })
	}
}

func (w *jobWorkerImpl) updateStats(fn func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.stats)
}
