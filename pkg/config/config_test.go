package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 4455 {
		t.Fatalf("expected default port 4455, got %d", cfg.Server.Port)
	}
	if cfg.Workspace.FolderPrefix != "vibe_" {
		t.Fatalf("unexpected folder prefix %q", cfg.Workspace.FolderPrefix)
	}
	if !filepath.IsAbs(cfg.Workspace.Root) {
		t.Fatalf("workspace root should be absolute, got %q", cfg.Workspace.Root)
	}
	ff := cfg.Transcode.FFmpeg
	if ff.CRF != 23 || ff.VideoPreset != "veryfast" || ff.SegmentSeconds != 5 || ff.PlaylistType != "vod" {
		t.Fatalf("unexpected ffmpeg defaults: %+v", ff)
	}
	if ff.MaxWidth != 1920 || ff.MaxHeight != 1080 || ff.ThumbnailWidth != 320 {
		t.Fatalf("unexpected size defaults: %+v", ff)
	}
	if cfg.Worker.MaxConcurrentJobs != 2 || cfg.Worker.QueueCapacity != 100 {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
	if cfg.Status.Backend != "memory" {
		t.Fatalf("unexpected status backend %q", cfg.Status.Backend)
	}
}

func TestLoadReadsYAMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
workspace:
  root: ` + filepath.Join(dir, "out") + `
  public_path: media/
transcode:
  ffmpeg:
    crf: 28
    segment_seconds: 4
worker:
  max_concurrent_jobs: 4
  queue_capacity: 0
status:
  backend: " Redis "
  ttl: 1h
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Workspace.Root != filepath.Join(dir, "out") {
		t.Fatalf("unexpected root %q", cfg.Workspace.Root)
	}
	if cfg.Workspace.PublicPath != "/media" {
		t.Fatalf("public path not normalized: %q", cfg.Workspace.PublicPath)
	}
	if cfg.Transcode.FFmpeg.CRF != 28 || cfg.Transcode.FFmpeg.SegmentSeconds != 4 {
		t.Fatalf("ffmpeg overrides not applied: %+v", cfg.Transcode.FFmpeg)
	}
	if cfg.Worker.QueueCapacity != 200 {
		t.Fatalf("expected queue capacity derived from workers (200), got %d", cfg.Worker.QueueCapacity)
	}
	if cfg.Status.Backend != "redis" || cfg.Status.TTL != time.Hour {
		t.Fatalf("unexpected status config: %+v", cfg.Status)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VIBE_WORKER_MAX_CONCURRENT_JOBS", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Worker.MaxConcurrentJobs != 7 {
		t.Fatalf("expected env override 7, got %d", cfg.Worker.MaxConcurrentJobs)
	}
}
