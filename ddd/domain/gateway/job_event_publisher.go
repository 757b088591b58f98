package gateway

import (
	"context"
	"time"
)

// JobEvent 作业终态事件
type JobEvent struct {
	JobID        string    `json:"job_id"`
	Folder       string    `json:"folder"`
	Status       string    `json:"status"`
	PlaylistPath string    `json:"playlist_path,omitempty"`
	Thumbnail    string    `json:"thumbnail_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// JobEventPublisher notifies downstream consumers about job outcomes.
type JobEventPublisher interface {
	Publish(ctx context.Context, event JobEvent) error
}
