package status

import (
	"context"
	"sync"
	"time"

	"vibe-transcode-service/ddd/domain/repo"
)

// MemoryStatusRepository keeps job status for the lifetime of the process.
type MemoryStatusRepository struct {
	mu      sync.RWMutex
	records map[string]repo.JobStatusRecord
}

func NewMemoryStatusRepository() *MemoryStatusRepository {
	return &MemoryStatusRepository{records: make(map[string]repo.JobStatusRecord)}
}

func (r *MemoryStatusRepository) SaveStatus(_ context.Context, rec *repo.JobStatusRecord) error {
	if rec == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.FolderName] = *rec
	return nil
}

func (r *MemoryStatusRepository) UpdateProgress(_ context.Context, folderName string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[folderName]
	if !ok || rec.Status.IsFinalStatus() {
		return nil
	}
	rec.Progress = progress
	rec.UpdatedAt = time.Now()
	r.records[folderName] = rec
	return nil
}

func (r *MemoryStatusRepository) GetStatus(_ context.Context, folderName string) (*repo.JobStatusRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[folderName]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
