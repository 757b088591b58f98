package resource

import (
	"context"
	"fmt"

	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/logger"
)

// Resources holds the shared clients opened for this process. A nil field
// means the corresponding backend is disabled by configuration.
type Resources struct {
	Redis *RedisResource
	Kafka *KafkaResource
	Minio *MinioResource
}

// Open connects every backend the configuration enables. On failure the
// already opened resources are closed.
func Open(ctx context.Context, cfg *config.Config) (*Resources, error) {
	res := &Resources{}

	if cfg.Status.Backend == "redis" {
		r := &RedisResource{}
		if err := r.Open(ctx, cfg.Redis); err != nil {
			res.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		res.Redis = r
	}

	if cfg.Kafka.Enabled {
		k := &KafkaResource{}
		if err := k.Open(cfg.Kafka); err != nil {
			res.Close()
			return nil, fmt.Errorf("open kafka: %w", err)
		}
		res.Kafka = k
	}

	if cfg.Minio.Enabled {
		m := &MinioResource{}
		if err := m.Open(ctx, cfg.Minio); err != nil {
			res.Close()
			return nil, fmt.Errorf("open minio: %w", err)
		}
		res.Minio = m
	}

	logger.Info("resources opened", map[string]interface{}{
		"redis": res.Redis != nil,
		"kafka": res.Kafka != nil,
		"minio": res.Minio != nil,
	})
	return res, nil
}

// Close releases resources in reverse order of opening.
func (r *Resources) Close() {
	if r == nil {
		return
	}
	if r.Minio != nil {
		r.Minio.Close()
	}
	if r.Kafka != nil {
		r.Kafka.Close()
	}
	if r.Redis != nil {
		r.Redis.Close()
	}
}
