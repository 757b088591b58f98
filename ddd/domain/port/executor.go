package port

import (
	"context"

	"vibe-transcode-service/ddd/domain/vo"
)

// TranscodeExecutor runs a plan against one source file: thumbnail extraction
// and segmented encode are launched concurrently into workspaceDir.
//
// The returned error reports the encode outcome only (wrapping
// errno.ErrEncodeFailed). A thumbnail failure is carried in
// ExecuteResult.ThumbnailErr and never fails the call. The source file is
// removed after a successful encode and kept otherwise.
type TranscodeExecutor interface {
	Execute(ctx context.Context, sourceVideoPath string, plan vo.TranscodePlan, workspaceDir string, opts ExecuteOptions) (*ExecuteResult, error)
}

// ExecuteOptions controls executor behaviour.
type ExecuteOptions struct {
	JobID      string
	ProgressCb ProgressCallback
	// DurationSeconds of the source, used to turn ffmpeg timestamps into percent.
	DurationSeconds float64
}

// ExecuteResult describes the artifacts produced by an execution.
type ExecuteResult struct {
	PlaylistPath  string
	ThumbnailPath string
	ThumbnailErr  error
	SourceRemoved bool
}
