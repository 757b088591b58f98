package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vibe-transcode-service/internal/testsupport"
	"vibe-transcode-service/pkg/config"
)

func TestBuildWithLocalBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workspace.UploadDir = filepath.Join(testsupport.BaseDir(cfg), "fresh-uploads")

	svc, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer svc.Resources.Close()

	if svc.Resources.Redis != nil || svc.Resources.Kafka != nil || svc.Resources.Minio != nil {
		t.Fatalf("no remote backends should be opened")
	}
	if _, err := os.Stat(cfg.Workspace.UploadDir); err != nil {
		t.Fatalf("upload dir not created: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /videos = %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoadShippedConfigs(t *testing.T) {
	for _, name := range []string{"config.dev.yaml", "config_prod.yaml"} {
		cfg, err := config.Load(filepath.Join("..", "configs", name))
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if cfg.Server.Port != 4455 || cfg.Workspace.PublicPath != "/processed" {
			t.Fatalf("%s: unexpected server settings %+v %+v", name, cfg.Server, cfg.Workspace)
		}
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_ENV", "prod")
	if got := resolveConfigPath(); got != "configs/config_prod.yaml" {
		t.Fatalf("prod path = %s", got)
	}
	t.Setenv("CONFIG_ENV", "staging")
	if got := resolveConfigPath(); got != "configs/config.staging.yaml" {
		t.Fatalf("staging path = %s", got)
	}
	t.Setenv("CONFIG_PATH", "/etc/vibe.yaml")
	if got := resolveConfigPath(); got != "/etc/vibe.yaml" {
		t.Fatalf("override path = %s", got)
	}
}
