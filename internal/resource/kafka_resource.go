package resource

import (
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/kafka"
	"vibe-transcode-service/pkg/logger"
)

type KafkaResource struct {
	client *kafka.Client
}

// Open creates the client and makes sure the job events topic exists.
// Topic creation failures are logged; the broker may auto-create topics.
func (r *KafkaResource) Open(cfg config.KafkaConfig) error {
	client, err := kafka.New(cfg)
	if err != nil {
		return err
	}
	if err := client.EnsureTopic(cfg.Topics.JobEvents, 1, 1); err != nil {
		logger.Warnf("ensure kafka topic failed topic=%s error=%v", cfg.Topics.JobEvents, err)
	}
	r.client = client
	return nil
}

func (r *KafkaResource) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *KafkaResource) Client() *kafka.Client { return r.client }
