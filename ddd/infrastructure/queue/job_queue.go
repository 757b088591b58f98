package queue

import (
	"context"
	"errors"
	"sync"

	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/metrics"
)

// ErrQueueClosed is returned once Close has been called.
var ErrQueueClosed = errors.New("queue is closed")

// JobQueue 有界作业队列。入队从不阻塞：队列满时立即返回 errno.ErrQueueFull。
// 入队不受调用方 context 影响，提交方断开连接后作业照常处理。
type JobQueue interface {
	Enqueue(ctx context.Context, job *entity.JobEntity) error
	// TryReserve 预占一个槽位，队列满时返回 errno.ErrQueueFull
	TryReserve() (Reservation, error)
	Dequeue(ctx context.Context) (*entity.JobEntity, error)
	TryDequeue(ctx context.Context) (*entity.JobEntity, error)
	Size() int
	Capacity() int
	IsEmpty() bool
	Close() error
	IsClosed() bool
}

// Reservation 已预占的队列槽位，必须调用 Enqueue 或 Release 之一
type Reservation interface {
	Enqueue(job *entity.JobEntity) error
	Release()
}

type memoryJobQueue struct {
	queue    chan *entity.JobEntity
	done     chan struct{}
	closed   bool
	reserved int
	mu       sync.Mutex
}

func NewMemoryJobQueue(capacity int) JobQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &memoryJobQueue{
		queue: make(chan *entity.JobEntity, capacity),
		done:  make(chan struct{}),
	}
}

func (q *memoryJobQueue) Enqueue(_ context.Context, job *entity.JobEntity) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if len(q.queue)+q.reserved >= cap(q.queue) {
		return errno.ErrQueueFull
	}
	return q.pushLocked(job)
}

func (q *memoryJobQueue) TryReserve() (Reservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	if len(q.queue)+q.reserved >= cap(q.queue) {
		return nil, errno.ErrQueueFull
	}
	q.reserved++
	return &reservation{q: q}, nil
}

// pushLocked 调用方已确认有空位；出队只会腾出空间
func (q *memoryJobQueue) pushLocked(job *entity.JobEntity) error {
	select {
	case q.queue <- job:
		metrics.JobQueueDepth.Set(float64(len(q.queue)))
		return nil
	default:
		return errno.ErrQueueFull
	}
}

type reservation struct {
	q    *memoryJobQueue
	used bool
}

func (r *reservation) Enqueue(job *entity.JobEntity) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if r.used {
		return errors.New("reservation already used")
	}
	r.used = true
	q.reserved--
	if q.closed {
		return ErrQueueClosed
	}
	return q.pushLocked(job)
}

func (r *reservation) Release() {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if r.used {
		return
	}
	r.used = true
	q.reserved--
}

// Dequeue blocks until a job is available, the queue is closed or ctx ends.
func (q *memoryJobQueue) Dequeue(ctx context.Context) (*entity.JobEntity, error) {
	select {
	case <-q.done:
		return nil, ErrQueueClosed
	default:
	}
	select {
	case job := <-q.queue:
		metrics.JobQueueDepth.Set(float64(len(q.queue)))
		return job, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryDequeue returns (nil, nil) when the queue is empty. It keeps working
// after Close so callers can drain what is left.
func (q *memoryJobQueue) TryDequeue(ctx context.Context) (*entity.JobEntity, error) {
	select {
	case job := <-q.queue:
		metrics.JobQueueDepth.Set(float64(len(q.queue)))
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, nil
	}
}

func (q *memoryJobQueue) Size() int     { return len(q.queue) }
func (q *memoryJobQueue) Capacity() int { return cap(q.queue) }
func (q *memoryJobQueue) IsEmpty() bool { return q.Size() == 0 }

func (q *memoryJobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

func (q *memoryJobQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
