package repo

import (
	"context"
	"time"

	"vibe-transcode-service/ddd/domain/vo"
)

// JobStatusRecord 作业状态快照，以工作目录名为键
type JobStatusRecord struct {
	FolderName   string       `json:"folder"`
	Status       vo.JobStatus `json:"status"`
	Progress     int          `json:"progress"`
	ErrorMessage string       `json:"error_message,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// JobStatusRepository 作业状态存储。状态只用于展示，不用于重启后恢复作业。
type JobStatusRepository interface {
	SaveStatus(ctx context.Context, rec *JobStatusRecord) error
	UpdateProgress(ctx context.Context, folderName string, progress int) error
	// GetStatus 未知作业返回 (nil, nil)
	GetStatus(ctx context.Context, folderName string) (*JobStatusRecord, error)
}
