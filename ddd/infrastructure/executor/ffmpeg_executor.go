package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"vibe-transcode-service/ddd/domain/port"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
)

const (
	PlaylistName   = "index.m3u8"
	ThumbnailName  = "thumbnail.jpg"
	segmentPattern = "index%d.ts"

	stderrTailLines = 50
)

var reTime = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

// FFmpegExecutor implements port.TranscodeExecutor using the local ffmpeg binary.
type FFmpegExecutor struct {
	cfg config.FFmpegConfig
}

func NewFFmpegExecutor(cfg config.FFmpegConfig) *FFmpegExecutor {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		cfg.BinaryPath = "ffmpeg"
	}
	return &FFmpegExecutor{cfg: cfg}
}

// Execute launches thumbnail extraction and the segmented encode concurrently.
// Only the encode decides the outcome; the source is removed once the
// playlist exists.
func (e *FFmpegExecutor) Execute(ctx context.Context, sourceVideoPath string, plan vo.TranscodePlan, workspaceDir string, opts port.ExecuteOptions) (*port.ExecuteResult, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	result := &port.ExecuteResult{}
	playlistPath := filepath.Join(workspaceDir, PlaylistName)
	thumbnailPath := filepath.Join(workspaceDir, ThumbnailName)

	var (
		wg        sync.WaitGroup
		encodeErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.ThumbnailErr = e.extractThumbnail(ctx, sourceVideoPath, thumbnailPath, opts.JobID)
	}()
	go func() {
		defer wg.Done()
		encodeErr = e.encode(ctx, sourceVideoPath, plan, workspaceDir, opts)
	}()
	wg.Wait()

	if result.ThumbnailErr == nil {
		result.ThumbnailPath = thumbnailPath
	}
	if encodeErr != nil {
		return result, errno.NewBizError(errno.ErrEncodeFailed, encodeErr)
	}
	if _, err := os.Stat(playlistPath); err != nil {
		return result, errno.NewBizError(errno.ErrEncodeFailed, fmt.Errorf("playlist not written: %w", err))
	}
	result.PlaylistPath = playlistPath

	// 编码成功后才删除上传的临时文件，失败时保留用于排查
	if err := os.Remove(sourceVideoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("failed to remove source upload job_id=%s path=%s error=%v", opts.JobID, sourceVideoPath, err)
	} else if err == nil {
		result.SourceRemoved = true
	}
	return result, nil
}

func (e *FFmpegExecutor) extractThumbnail(ctx context.Context, sourcePath, thumbnailPath, jobID string) error {
	args := e.ThumbnailArgs(sourcePath, thumbnailPath)
	logger.Debugf("ffmpeg thumbnail job_id=%s command=%s", jobID, e.cfg.BinaryPath+" "+strings.Join(args, " "))

	output, err := exec.CommandContext(ctx, e.cfg.BinaryPath, args...).CombinedOutput()
	if err != nil {
		return errno.NewBizError(errno.ErrThumbnailFailed, fmt.Errorf("%w: %s", err, tail(strings.Split(string(output), "\n"))))
	}
	// ffmpeg 对某些输入退出码为 0 却不写文件
	if _, err := os.Stat(thumbnailPath); err != nil {
		return errno.NewBizError(errno.ErrThumbnailFailed, fmt.Errorf("thumbnail not written: %w", err))
	}
	return nil
}

func (e *FFmpegExecutor) encode(ctx context.Context, sourcePath string, plan vo.TranscodePlan, workspaceDir string, opts port.ExecuteOptions) error {
	args := e.EncodeArgs(sourcePath, plan, workspaceDir)
	cmd := exec.CommandContext(ctx, e.cfg.BinaryPath, args...)
	logger.Infof("ffmpeg command job_id=%s command=%s", opts.JobID, strings.Join(cmd.Args, " "))
	return e.executeFFmpegCommand(ctx, cmd, opts.DurationSeconds, opts.ProgressCb)
}

// ThumbnailArgs builds the single-frame capture command.
func (e *FFmpegExecutor) ThumbnailArgs(sourcePath, thumbnailPath string) []string {
	return []string{
		"-ss", formatSeconds(e.cfg.ThumbnailOffsetSeconds),
		"-i", sourcePath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", e.cfg.ThumbnailWidth),
		"-y",
		thumbnailPath,
	}
}

// EncodeArgs builds the segmented encode command for plan. The overlay, when
// present, is input 1 with its trim applied as input options.
func (e *FFmpegExecutor) EncodeArgs(sourcePath string, plan vo.TranscodePlan, workspaceDir string) []string {
	args := make([]string, 0, 48)
	args = append(args, "-i", sourcePath)

	if plan.HasOverlay() {
		if plan.AudioTrim != nil {
			args = append(args, "-ss", formatSeconds(plan.AudioTrim.Start))
			if plan.AudioTrim.Bounded() {
				args = append(args, "-to", formatSeconds(plan.AudioTrim.End))
			}
		}
		args = append(args, "-i", plan.OverlayPath)
	}

	args = append(args,
		"-map", plan.StreamMapping.Video.Specifier(),
		"-map", plan.StreamMapping.Audio.Specifier(),
		"-c:v", e.cfg.VideoCodec,
		"-preset", e.cfg.VideoPreset,
		"-crf", strconv.Itoa(e.cfg.CRF),
	)
	if filter := plan.ScaleFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	if e.cfg.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(e.cfg.Threads))
	}
	args = append(args,
		"-c:a", e.cfg.AudioCodec,
		"-hls_time", strconv.Itoa(e.cfg.SegmentSeconds),
		"-hls_playlist_type", e.cfg.PlaylistType,
		"-hls_segment_filename", filepath.Join(workspaceDir, segmentPattern),
		"-f", "hls",
		"-progress", "pipe:2",
		"-nostats",
		"-y",
		filepath.Join(workspaceDir, PlaylistName),
	)
	return args
}

func (e *FFmpegExecutor) executeFFmpegCommand(ctx context.Context, cmd *exec.Cmd, durationSec float64, progressCb port.ProgressCallback) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("创建FFmpeg stderr管道失败: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动FFmpeg命令失败: %w", err)
	}

	progressDone := make(chan struct{})
	buf := make([]string, 0, 200)
	go func() {
		defer close(progressDone)
		e.scanFFmpegProgress(stderr, durationSec, &buf, progressCb)
	}()

	// stderr 必须读完后才能 Wait
	<-progressDone
	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(buf))
	}
	return nil
}

func (e *FFmpegExecutor) scanFFmpegProgress(stderr io.Reader, durationSec float64, capture *[]string, progressCb port.ProgressCallback) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "out_time_ms=") {
			// out_time_ms 实际单位为微秒
			if us, err := strconv.ParseFloat(strings.TrimPrefix(line, "out_time_ms="), 64); err == nil && durationSec > 0 {
				emitProgress(us/1e6, durationSec, progressCb)
			}
			continue
		}

		if m := reTime.FindStringSubmatch(line); len(m) == 4 && durationSec > 0 {
			hh, _ := strconv.ParseFloat(m[1], 64)
			mm, _ := strconv.ParseFloat(m[2], 64)
			ss, _ := strconv.ParseFloat(m[3], 64)
			emitProgress(hh*3600+mm*60+ss, durationSec, progressCb)
			continue
		}

		if isProgressKey(line) {
			continue
		}

		if capture != nil {
			b := *capture
			if len(b) >= 200 {
				b = b[1:]
			}
			*capture = append(b, line)
		}
	}
	// 超长行导致扫描提前结束时继续排空管道，避免进程阻塞在写 stderr
	_, _ = io.Copy(io.Discard, stderr)
}

func emitProgress(currentSec, totalSec float64, cb port.ProgressCallback) {
	if cb == nil || totalSec <= 0 {
		return
	}
	pct := int((currentSec / totalSec) * 100)
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	cb(pct)
}

// isProgressKey matches the key=value lines written by -progress.
func isProgressKey(line string) bool {
	key, _, ok := strings.Cut(line, "=")
	if !ok {
		return false
	}
	switch key {
	case "frame", "fps", "stream_0_0_q", "bitrate", "total_size", "out_time_us", "out_time",
		"dup_frames", "drop_frames", "speed", "progress":
		return true
	}
	return false
}

func tail(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	if n := len(out); n > stderrTailLines {
		out = out[n-stderrTailLines:]
	}
	return strings.Join(out, "\n")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
