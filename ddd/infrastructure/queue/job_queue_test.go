package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/pkg/errno"
)

func newJob(id string) *entity.JobEntity {
	return entity.NewJobEntity(id, "/tmp/"+id, "/w/"+id, nil, "")
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	q := NewMemoryJobQueue(2)
	ctx := context.Background()
	for _, id := range []string{"vibe_1", "vibe_2"} {
		if err := q.Enqueue(ctx, newJob(id)); err != nil {
			t.Fatalf("Enqueue(%s): %v", id, err)
		}
	}
	if err := q.Enqueue(ctx, newJob("vibe_3")); !errors.Is(err, errno.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Size() != 2 || q.Capacity() != 2 {
		t.Fatalf("size=%d capacity=%d", q.Size(), q.Capacity())
	}
}

func TestDequeueFIFO(t *testing.T) {
	q := NewMemoryJobQueue(4)
	ctx := context.Background()
	_ = q.Enqueue(ctx, newJob("vibe_1"))
	_ = q.Enqueue(ctx, newJob("vibe_2"))

	for _, want := range []string{"vibe_1", "vibe_2"} {
		job, err := q.Dequeue(ctx)
		if err != nil || job.ID() != want {
			t.Fatalf("Dequeue = %v, %v; want %s", job, err, want)
		}
	}
	if job, err := q.TryDequeue(ctx); job != nil || err != nil {
		t.Fatalf("TryDequeue on empty queue = %v, %v", job, err)
	}
}

func TestCloseUnblocksDequeue(t *testing.T) {
	q := NewMemoryJobQueue(1)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrQueueClosed) {
			t.Fatalf("expected ErrQueueClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Dequeue still blocked after Close")
	}
	if err := q.Enqueue(context.Background(), newJob("vibe_9")); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after Close = %v", err)
	}
}

func TestTryDequeueDrainsAfterClose(t *testing.T) {
	q := NewMemoryJobQueue(2)
	_ = q.Enqueue(context.Background(), newJob("vibe_1"))
	_ = q.Close()

	job, err := q.TryDequeue(context.Background())
	if err != nil || job == nil || job.ID() != "vibe_1" {
		t.Fatalf("TryDequeue = %v, %v", job, err)
	}
}

func TestEnqueueIgnoresCancelledContext(t *testing.T) {
	q := NewMemoryJobQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 8; i++ {
		if err := q.Enqueue(ctx, newJob("job")); err != nil {
			t.Fatalf("Enqueue #%d with cancelled context: %v", i, err)
		}
	}
	if q.Size() != 8 {
		t.Fatalf("size = %d, want 8", q.Size())
	}
}

func TestReservationHoldsCapacity(t *testing.T) {
	q := NewMemoryJobQueue(2)

	first, err := q.TryReserve()
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	second, err := q.TryReserve()
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if _, err := q.TryReserve(); !errors.Is(err, errno.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull while slots are reserved, got %v", err)
	}
	if err := q.Enqueue(context.Background(), newJob("c")); !errors.Is(err, errno.ErrQueueFull) {
		t.Fatalf("Enqueue should see reserved slots, got %v", err)
	}

	second.Release()
	second.Release()
	if err := first.Enqueue(newJob("a")); err != nil {
		t.Fatalf("reservation Enqueue: %v", err)
	}
	if err := first.Enqueue(newJob("a")); err == nil {
		t.Fatalf("a reservation can only be used once")
	}
	if err := q.Enqueue(context.Background(), newJob("b")); err != nil {
		t.Fatalf("released slot should be free: %v", err)
	}
	if q.Size() != 2 {
		t.Fatalf("size = %d, want 2", q.Size())
	}
}

func TestReservationAfterClose(t *testing.T) {
	q := NewMemoryJobQueue(1)
	res, err := q.TryReserve()
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := res.Enqueue(newJob("a")); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	if _, err := q.TryReserve(); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
