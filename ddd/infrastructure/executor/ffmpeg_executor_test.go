package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vibe-transcode-service/ddd/domain/port"
	"vibe-transcode-service/ddd/domain/service"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/internal/testsupport"
	"vibe-transcode-service/pkg/errno"
)

func newFixture(t *testing.T, tools testsupport.FakeTools) (*FFmpegExecutor, string, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFakeMediaTools(tools))
	src := filepath.Join(cfg.Workspace.UploadDir, "upload-1")
	testsupport.WriteFile(t, src, 128)
	dir := filepath.Join(cfg.Workspace.Root, "vibe_1")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir workspace: %v", err)
	}
	return NewFFmpegExecutor(cfg.Transcode.FFmpeg), src, dir
}

func TestExecuteProducesArtifactsAndRemovesSource(t *testing.T) {
	exec, src, dir := newFixture(t, testsupport.FakeTools{Width: 3840, Height: 2160})
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 3840, Height: 2160}, nil)

	var progress []int
	result, err := exec.Execute(context.Background(), src, plan, dir, port.ExecuteOptions{
		JobID:           "vibe_1",
		DurationSeconds: 10,
		ProgressCb:      func(p int) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.PlaylistPath != filepath.Join(dir, PlaylistName) || !testsupport.Exists(result.PlaylistPath) {
		t.Fatalf("playlist missing: %+v", result)
	}
	if !testsupport.Exists(filepath.Join(dir, "index0.ts")) {
		t.Fatalf("expected at least one segment")
	}
	if result.ThumbnailPath != filepath.Join(dir, ThumbnailName) || !testsupport.Exists(result.ThumbnailPath) {
		t.Fatalf("thumbnail missing: %+v", result)
	}
	if testsupport.Exists(src) || !result.SourceRemoved {
		t.Fatalf("source upload should be removed after a successful encode")
	}
	if len(progress) == 0 || progress[len(progress)-1] != 50 {
		t.Fatalf("unexpected progress %v", progress)
	}

	lines := testsupport.FFmpegInvocations(t, filepath.Join(filepath.Dir(filepath.Dir(dir)), "bin"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 ffmpeg invocations, got %d: %v", len(lines), lines)
	}
	var encodeLine string
	for _, l := range lines {
		if strings.HasSuffix(l, PlaylistName) {
			encodeLine = l
		}
	}
	for _, want := range []string{"-vf scale=-2:1080", "-map 0:v:0", "-map 0:a:0?", "-hls_time 5", "-hls_playlist_type vod", "-crf 23", "-preset veryfast"} {
		if !strings.Contains(encodeLine, want) {
			t.Fatalf("encode command %q missing %q", encodeLine, want)
		}
	}
}

func TestExecuteEncodeFailureKeepsSource(t *testing.T) {
	exec, src, dir := newFixture(t, testsupport.FakeTools{Width: 1280, Height: 720, FFmpeg: testsupport.FFmpegFailEncode})
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 1280, Height: 720}, nil)

	result, err := exec.Execute(context.Background(), src, plan, dir, port.ExecuteOptions{JobID: "vibe_1"})
	if !errors.Is(err, errno.ErrEncodeFailed) {
		t.Fatalf("expected ErrEncodeFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Fatalf("stderr tail missing from %q", err.Error())
	}
	if !testsupport.Exists(src) {
		t.Fatalf("source must be kept when encode fails")
	}
	if testsupport.Exists(filepath.Join(dir, PlaylistName)) {
		t.Fatalf("no playlist expected")
	}
	if result == nil || result.ThumbnailErr != nil || !testsupport.Exists(filepath.Join(dir, ThumbnailName)) {
		t.Fatalf("thumbnail should succeed independently: %+v", result)
	}
}

func TestExecuteThumbnailFailureIsIsolated(t *testing.T) {
	exec, src, dir := newFixture(t, testsupport.FakeTools{Width: 1280, Height: 720, FFmpeg: testsupport.FFmpegFailThumbnail})
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 1280, Height: 720}, nil)

	result, err := exec.Execute(context.Background(), src, plan, dir, port.ExecuteOptions{JobID: "vibe_1"})
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the encode: %v", err)
	}
	if !errors.Is(result.ThumbnailErr, errno.ErrThumbnailFailed) || result.ThumbnailPath != "" {
		t.Fatalf("unexpected thumbnail outcome %+v", result)
	}
	if !testsupport.Exists(result.PlaylistPath) || testsupport.Exists(src) {
		t.Fatalf("encode should complete and remove the source")
	}
}

func TestExecuteMissingThumbnailIsReported(t *testing.T) {
	exec, src, dir := newFixture(t, testsupport.FakeTools{Width: 1280, Height: 720, FFmpeg: testsupport.FFmpegNoThumbnail})
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 1280, Height: 720}, nil)

	result, err := exec.Execute(context.Background(), src, plan, dir, port.ExecuteOptions{JobID: "vibe_1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ThumbnailPath != "" {
		t.Fatalf("thumbnail path reported for a file that was never written: %s", result.ThumbnailPath)
	}
	if !errors.Is(result.ThumbnailErr, errno.ErrThumbnailFailed) {
		t.Fatalf("expected ErrThumbnailFailed, got %v", result.ThumbnailErr)
	}
	if testsupport.Exists(filepath.Join(dir, ThumbnailName)) {
		t.Fatalf("no thumbnail should exist")
	}
	if !testsupport.Exists(result.PlaylistPath) {
		t.Fatalf("encode should still complete")
	}
}

func TestEncodeArgsWithOverlay(t *testing.T) {
	exec := NewFFmpegExecutor(testsupport.NewConfig(t).Transcode.FFmpeg)
	overlay := &vo.AudioOverlay{Path: "/songs/track.mp3", TrimStart: 10, TrimEnd: 25}
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 1280, Height: 720}, overlay)

	cmd := strings.Join(exec.EncodeArgs("/up/src", plan, "/w/vibe_1"), " ")
	if !strings.HasPrefix(cmd, "-i /up/src -ss 10 -to 25 -i /songs/track.mp3 -map 0:v:0 -map 1:a:0 ") {
		t.Fatalf("unexpected overlay inputs: %s", cmd)
	}
	if strings.Contains(cmd, "0:a") {
		t.Fatalf("source audio must not be mapped: %s", cmd)
	}
	if strings.Contains(cmd, "-vf") {
		t.Fatalf("720p must not be scaled: %s", cmd)
	}
	if !strings.HasSuffix(cmd, "-y /w/vibe_1/index.m3u8") {
		t.Fatalf("unexpected output: %s", cmd)
	}
}

func TestEncodeArgsUnboundedTrim(t *testing.T) {
	exec := NewFFmpegExecutor(testsupport.NewConfig(t).Transcode.FFmpeg)
	overlay := &vo.AudioOverlay{Path: "/songs/track.mp3", TrimStart: 4, TrimEnd: 0}
	plan := service.NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{}, overlay)

	cmd := strings.Join(exec.EncodeArgs("/up/src", plan, "/w/vibe_1"), " ")
	if !strings.Contains(cmd, "-ss 4 -i /songs/track.mp3") || strings.Contains(cmd, "-to ") {
		t.Fatalf("unexpected trim args: %s", cmd)
	}
}

func TestThumbnailArgs(t *testing.T) {
	exec := NewFFmpegExecutor(testsupport.NewConfig(t).Transcode.FFmpeg)
	got := strings.Join(exec.ThumbnailArgs("/up/src", "/w/thumbnail.jpg"), " ")
	want := "-ss 1 -i /up/src -frames:v 1 -vf scale=320:-1 -y /w/thumbnail.jpg"
	if got != want {
		t.Fatalf("ThumbnailArgs = %q, want %q", got, want)
	}
}

func TestScanFFmpegProgress(t *testing.T) {
	stderr := strings.NewReader(strings.Join([]string{
		"Input #0, mov,mp4",
		"frame=10",
		"out_time_ms=2500000",
		"progress=continue",
		"size=   1kB time=00:00:07.50 bitrate=1.0kbits/s",
		"out_time_ms=20000000",
		"Conversion failed!",
	}, "\n"))

	var got []int
	var capture []string
	(&FFmpegExecutor{}).scanFFmpegProgress(stderr, 10, &capture, func(p int) { got = append(got, p) })

	if len(got) != 3 || got[0] != 25 || got[1] != 75 || got[2] != 99 {
		t.Fatalf("progress = %v", got)
	}
	if len(capture) != 2 || capture[0] != "Input #0, mov,mp4" || capture[1] != "Conversion failed!" {
		t.Fatalf("capture = %v", capture)
	}
}
