package resource

import (
	"context"
	"testing"

	"vibe-transcode-service/pkg/config"
)

func TestOpenWithEverythingDisabled(t *testing.T) {
	cfg := config.Default()
	res, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer res.Close()
	if res.Redis != nil || res.Kafka != nil || res.Minio != nil {
		t.Fatalf("no backend should be opened by default: %+v", res)
	}
}

func TestMinioOpenRequiresEndpoint(t *testing.T) {
	if err := (&MinioResource{}).Open(context.Background(), config.MinioConfig{BucketName: "b"}); err == nil {
		t.Fatalf("expected missing endpoint error")
	}
}
