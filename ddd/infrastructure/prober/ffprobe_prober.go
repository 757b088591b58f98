package prober

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/pkg/errno"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// FFprobeProber implements gateway.MediaProber with the ffprobe binary.
type FFprobeProber struct {
	binary string
}

func NewFFprobeProber(binary string) *FFprobeProber {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobeProber{binary: binary}
}

// Probe inspects filePath and returns its media profile. Any failure wraps
// errno.ErrProbeFailed and carries ffprobe's own diagnostic output.
func (p *FFprobeProber) Probe(ctx context.Context, filePath string) (*vo.MediaProfile, error) {
	result, err := p.Inspect(ctx, filePath)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrProbeFailed, err)
	}
	profile := result.Profile()
	return &profile, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p *FFprobeProber) Inspect(ctx context.Context, filePath string) (Result, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", filePath)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Profile converts the raw result into a MediaProfile. The first stream that
// reports both width and height is authoritative for the resolution.
func (r Result) Profile() vo.MediaProfile {
	profile := vo.MediaProfile{
		DurationSeconds: parseSeconds(r.Format.Duration),
		FormatName:      r.Format.FormatName,
	}
	for _, stream := range r.Streams {
		if profile.Width == 0 && stream.Width > 0 && stream.Height > 0 {
			profile.Width = stream.Width
			profile.Height = stream.Height
			profile.VideoCodec = stream.CodecName
		}
		if strings.EqualFold(stream.CodecType, "audio") && !profile.HasAudio {
			profile.HasAudio = true
			profile.AudioCodec = stream.CodecName
		}
		if profile.DurationSeconds == 0 {
			profile.DurationSeconds = parseSeconds(stream.Duration)
		}
	}
	return profile
}

func parseSeconds(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
