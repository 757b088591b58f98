package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vibe-transcode-service/ddd/domain/gateway"
)

type captureProducer struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (c *captureProducer) Produce(_ context.Context, topic string, key, value []byte) error {
	c.topic, c.key, c.value = topic, key, value
	return c.err
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	producer := &captureProducer{}
	pub := NewKafkaJobEventPublisher(producer, "vibe.job.events")
	evt := gateway.JobEvent{JobID: "vibe_1", Folder: "vibe_1", Status: "completed", PlaylistPath: "/w/vibe_1/index.m3u8", OccurredAt: time.Unix(0, 0).UTC()}

	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if producer.topic != "vibe.job.events" || string(producer.key) != "vibe_1" {
		t.Fatalf("unexpected topic/key %s/%s", producer.topic, producer.key)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(producer.value, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["status"] != "completed" || decoded["playlist_path"] != "/w/vibe_1/index.m3u8" {
		t.Fatalf("unexpected payload %s", producer.value)
	}
	if _, ok := decoded["error_message"]; ok {
		t.Fatalf("empty error_message should be omitted: %s", producer.value)
	}
}

func TestKafkaPublisherWrapsError(t *testing.T) {
	pub := NewKafkaJobEventPublisher(&captureProducer{err: errors.New("broker down")}, "t")
	if err := pub.Publish(context.Background(), gateway.JobEvent{Folder: "vibe_2"}); err == nil {
		t.Fatalf("expected error")
	}
}
