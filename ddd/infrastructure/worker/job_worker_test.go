package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/ddd/infrastructure/queue"
)

type blockingPipeline struct {
	release  chan struct{}
	running  atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	done     []string
	aborted  []string
	canceled atomic.Int32
}

func newBlockingPipeline() *blockingPipeline {
	return &blockingPipeline{release: make(chan struct{})}
}

func (p *blockingPipeline) Run(ctx context.Context, job *entity.JobEntity) error {
	n := p.running.Add(1)
	defer p.running.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	select {
	case <-p.release:
	case <-ctx.Done():
		p.canceled.Add(1)
		return ctx.Err()
	}
	p.mu.Lock()
	p.done = append(p.done, job.ID())
	p.mu.Unlock()
	return nil
}

func (p *blockingPipeline) Abort(_ context.Context, job *entity.JobEntity, cause error) error {
	job.Fail(cause.Error())
	p.mu.Lock()
	p.aborted = append(p.aborted, job.ID())
	p.mu.Unlock()
	return cause
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func enqueue(t *testing.T, q queue.JobQueue, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := q.Enqueue(context.Background(), entity.NewJobEntity(id, "", "", nil, "")); err != nil {
			t.Fatalf("Enqueue(%s): %v", id, err)
		}
	}
}

func TestWorkerBoundsConcurrency(t *testing.T) {
	q := queue.NewMemoryJobQueue(10)
	pipeline := newBlockingPipeline()
	w := NewJobWorker("test", q, pipeline, 2, time.Second)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	enqueue(t, q, "vibe_1", "vibe_2", "vibe_3", "vibe_4")
	waitFor(t, func() bool { return pipeline.running.Load() == 2 })
	time.Sleep(20 * time.Millisecond)
	if peak := pipeline.peak.Load(); peak != 2 {
		t.Fatalf("peak concurrency = %d, want 2", peak)
	}

	close(pipeline.release)
	waitFor(t, func() bool { return w.GetStats().SuccessfulJobs == 4 })
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatalf("worker still running after Stop")
	}
}

func TestWorkerStopAbandonsQueuedJobs(t *testing.T) {
	q := queue.NewMemoryJobQueue(10)
	pipeline := newBlockingPipeline()
	w := NewJobWorker("test", q, pipeline, 1, 10*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	enqueue(t, q, "vibe_1")
	waitFor(t, func() bool { return pipeline.running.Load() == 1 })
	enqueue(t, q, "vibe_2", "vibe_3")

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if pipeline.canceled.Load() != 1 {
		t.Fatalf("running job should be cancelled after the grace period")
	}
	stats := w.GetStats()
	if stats.AbandonedJobs != 2 || stats.FailedJobs != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(pipeline.aborted) != 2 {
		t.Fatalf("aborted = %v", pipeline.aborted)
	}
}

func TestWorkerStartTwice(t *testing.T) {
	w := NewJobWorker("test", queue.NewMemoryJobQueue(1), newBlockingPipeline(), 1, 0)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Fatalf("second Start should fail")
	}
}
