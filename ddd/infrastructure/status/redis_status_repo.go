package status

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/pkg/redisclient"
)

const (
	fieldStatus    = "status"
	fieldProgress  = "progress"
	fieldError     = "error_message"
	fieldUpdatedAt = "updated_at"
)

// RedisStatusRepository stores one hash per job under <key_prefix><folder>.
type RedisStatusRepository struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewRedisStatusRepository(client *redisclient.Client, ttl time.Duration) *RedisStatusRepository {
	return &RedisStatusRepository{client: client, ttl: ttl}
}

func (r *RedisStatusRepository) SaveStatus(ctx context.Context, rec *repo.JobStatusRecord) error {
	if rec == nil {
		return nil
	}
	if err := r.client.HSetWithTTL(ctx, r.client.Key(rec.FolderName), toHash(rec), r.ttl); err != nil {
		return fmt.Errorf("redis save status %s: %w", rec.FolderName, err)
	}
	return nil
}

func (r *RedisStatusRepository) UpdateProgress(ctx context.Context, folderName string, progress int) error {
	fields := map[string]interface{}{
		fieldProgress:  progress,
		fieldUpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.client.HSetWithTTL(ctx, r.client.Key(folderName), fields, r.ttl); err != nil {
		return fmt.Errorf("redis update progress %s: %w", folderName, err)
	}
	return nil
}

func (r *RedisStatusRepository) GetStatus(ctx context.Context, folderName string) (*repo.JobStatusRecord, error) {
	values, err := r.client.HGetAll(ctx, r.client.Key(folderName))
	if err != nil {
		return nil, fmt.Errorf("redis get status %s: %w", folderName, err)
	}
	return fromHash(folderName, values), nil
}

func toHash(rec *repo.JobStatusRecord) map[string]interface{} {
	return map[string]interface{}{
		fieldStatus:    rec.Status.String(),
		fieldProgress:  rec.Progress,
		fieldError:     rec.ErrorMessage,
		fieldUpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// fromHash returns nil for an empty hash or an unrecognised status.
func fromHash(folderName string, values map[string]string) *repo.JobStatusRecord {
	if len(values) == 0 {
		return nil
	}
	st, err := vo.NewJobStatusFromString(values[fieldStatus])
	if err != nil {
		return nil
	}
	rec := &repo.JobStatusRecord{
		FolderName:   folderName,
		Status:       st,
		ErrorMessage: values[fieldError],
	}
	if p, err := strconv.Atoi(values[fieldProgress]); err == nil {
		rec.Progress = p
	}
	if ts, err := time.Parse(time.RFC3339Nano, values[fieldUpdatedAt]); err == nil {
		rec.UpdatedAt = ts
	}
	return rec
}
