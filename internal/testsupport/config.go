package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vibe-transcode-service/pkg/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose workspace, upload and overlay directories
// live in a per-test temp directory. The directories are created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Workspace.Root = filepath.Join(base, "processed")
	cfg.Workspace.UploadDir = filepath.Join(base, "uploads")
	cfg.Workspace.OverlayBaseDir = filepath.Join(base, "songs")
	cfg.Log.Level = "error"

	for _, dir := range []string{cfg.Workspace.Root, cfg.Workspace.UploadDir, cfg.Workspace.OverlayBaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: cfg}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithFakeMediaTools installs fake ffmpeg/ffprobe executables and points the
// config at them.
func WithFakeMediaTools(tools FakeTools) ConfigOption {
	return func(b *configBuilder) {
		ffmpeg, ffprobe := InstallFakeTools(b.t, filepath.Join(b.baseDir, "bin"), tools)
		b.cfg.Transcode.FFmpeg.BinaryPath = ffmpeg
		b.cfg.Transcode.FFmpeg.ProbeBinaryPath = ffprobe
	}
}

// WithWorkers overrides the worker pool size and queue capacity.
func WithWorkers(concurrency, capacity int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.MaxConcurrentJobs = concurrency
		b.cfg.Worker.QueueCapacity = capacity
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Workspace.Root)
}

// BinDir returns the directory holding the fake media tools.
func BinDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "bin")
}
