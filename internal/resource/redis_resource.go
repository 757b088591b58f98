package resource

import (
	"context"

	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/redisclient"
)

// RedisResource manages the lifecycle of the shared Redis client.
type RedisResource struct {
	client *redisclient.Client
}

// Open establishes the Redis connection.
func (r *RedisResource) Open(ctx context.Context, cfg config.RedisConfig) error {
	if r.client != nil {
		return nil
	}
	client, err := redisclient.New(ctx, cfg)
	if err != nil {
		return err
	}
	r.client = client
	return nil
}

// Close tidy ups the underlying Redis client.
func (r *RedisResource) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

// Client exposes the wrapped client.
func (r *RedisResource) Client() *redisclient.Client {
	return r.client
}
