package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vibe-transcode-service/ddd/application/cqe"
	"vibe-transcode-service/ddd/application/dto"
	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/ddd/domain/service"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/ddd/infrastructure/queue"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/metrics"
)

const defaultAllocateAttempts = 3

// JobApp 作业编排：校验提交、分配工作目录、入队，立即返回回执
type JobApp interface {
	// Submit 受理一次上传。返回时作业已入队，处理在后台进行
	Submit(ctx context.Context, req *cqe.SubmitJobCqe) (*dto.JobAckDTO, error)
}

// IDSource 生成作业ID
type IDSource interface {
	Next() string
}

type jobAppImpl struct {
	workspace        repo.WorkspaceRepository
	ids              IDSource
	jobQueue         queue.JobQueue
	pipeline         service.JobPipeline
	statusRepo       repo.JobStatusRepository
	overlayBaseDir   string
	allocateAttempts int
}

// NewJobApp 创建作业编排服务。overlayBaseDir 为覆盖音轨路径的解析根目录
func NewJobApp(workspace repo.WorkspaceRepository, ids IDSource, jobQueue queue.JobQueue, pipeline service.JobPipeline,
	statusRepo repo.JobStatusRepository, overlayBaseDir string) JobApp {
	base, err := filepath.Abs(overlayBaseDir)
	if err != nil {
		base = filepath.Clean(overlayBaseDir)
	}
	return &jobAppImpl{
		workspace:        workspace,
		ids:              ids,
		jobQueue:         jobQueue,
		pipeline:         pipeline,
		statusRepo:       statusRepo,
		overlayBaseDir:   base,
		allocateAttempts: defaultAllocateAttempts,
	}
}

func (a *jobAppImpl) Submit(ctx context.Context, req *cqe.SubmitJobCqe) (*dto.JobAckDTO, error) {
	if req == nil {
		req = &cqe.SubmitJobCqe{}
	}

	// 同步校验，失败时不创建工作目录
	if err := req.Validate(); err != nil {
		a.reject(req, "invalid_input", err)
		return nil, err
	}

	var overlay *vo.AudioOverlay
	if req.HasOverlay() {
		overlayPath, err := a.resolveOverlay(req.OverlayPath)
		if err != nil {
			a.reject(req, "invalid_overlay", err)
			return nil, err
		}
		overlay, err = vo.NewAudioOverlay(overlayPath, req.TrimStart, req.TrimEnd)
		if err != nil {
			err = errno.NewBizError(errno.ErrInvalidParam, err)
			a.reject(req, "invalid_overlay", err)
			return nil, err
		}
	}

	// 先预占队列槽位，队列满时不创建工作目录
	slot, err := a.jobQueue.TryReserve()
	if err != nil {
		if !errors.Is(err, errno.ErrQueueFull) {
			err = errno.NewBizError(errno.ErrInternalServer, err)
		}
		a.reject(req, rejectReason(err), err)
		return nil, err
	}

	jobID, workspaceDir, err := a.allocate()
	if err != nil {
		slot.Release()
		a.reject(req, "workspace", err)
		return nil, err
	}

	// 受理后的处理与调用方连接无关
	jobCtx := context.WithoutCancel(ctx)
	job := entity.NewJobEntity(jobID, req.VideoPath, workspaceDir, overlay, req.OverlayPath)
	a.saveSubmitted(jobCtx, job)

	if err := slot.Enqueue(job); err != nil {
		// 仅在服务关闭期间发生：工作目录已创建，作业记录为失败
		err = errno.NewBizError(errno.ErrInternalServer, err)
		_ = a.pipeline.Abort(jobCtx, job, err)
		a.reject(req, "shutting_down", err)
		return nil, err
	}

	metrics.JobsSubmittedTotal.Inc()
	logger.Info("job accepted", map[string]interface{}{
		"job_id":    jobID,
		"workspace": workspaceDir,
		"overlay":   req.OverlayPath,
		"queued":    a.jobQueue.Size(),
	})
	return dto.NewJobAckDTO(job.FolderName(), req.OverlayPath), nil
}

func rejectReason(err error) string {
	if errors.Is(err, errno.ErrQueueFull) {
		return "queue_full"
	}
	return "queue_closed"
}

// resolveOverlay 将覆盖音轨路径解析到根目录下，必须是已存在的文件且不能越出根目录
func (a *jobAppImpl) resolveOverlay(raw string) (string, error) {
	candidate := filepath.Join(a.overlayBaseDir, raw)
	rel, err := filepath.Rel(a.overlayBaseDir, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errno.NewBizError(errno.ErrInvalidOverlayPath, fmt.Errorf("overlay %q escapes base dir", raw))
	}
	info, err := os.Stat(candidate)
	if err != nil {
		return "", errno.NewBizError(errno.ErrInvalidOverlayPath, err)
	}
	if info.IsDir() {
		return "", errno.NewBizError(errno.ErrInvalidOverlayPath, fmt.Errorf("overlay %q is a directory", raw))
	}
	return candidate, nil
}

// allocate 分配工作目录；同名目录已存在时换新ID重试，次数有限
func (a *jobAppImpl) allocate() (string, string, error) {
	var lastErr error
	for attempt := 1; attempt <= a.allocateAttempts; attempt++ {
		jobID := a.ids.Next()
		dir, err := a.workspace.Allocate(jobID)
		if err == nil {
			return jobID, dir, nil
		}
		lastErr = err
		if !errors.Is(err, errno.ErrWorkspaceCollision) {
			return "", "", errno.NewBizError(errno.ErrInternalServer, err)
		}
		logger.Warn("workspace collision", map[string]interface{}{
			"job_id":  jobID,
			"attempt": attempt,
			"code":    errno.ErrWorkspaceCollision.Code,
		})
	}
	return "", "", lastErr
}

func (a *jobAppImpl) saveSubmitted(ctx context.Context, job *entity.JobEntity) {
	if a.statusRepo == nil {
		return
	}
	err := a.statusRepo.SaveStatus(ctx, &repo.JobStatusRecord{
		FolderName: job.FolderName(),
		Status:     job.Status(),
		UpdatedAt:  job.CreatedAt(),
	})
	if err != nil {
		logger.Warnf("save submitted status failed job_id=%s error=%v", job.ID(), err)
	}
}

// reject 记录拒绝原因并删除临时上传文件（它从未成为作业）
func (a *jobAppImpl) reject(req *cqe.SubmitJobCqe, reason string, cause error) {
	metrics.JobsRejectedTotal.WithLabelValues(reason).Inc()
	logger.Warnf("job submission rejected reason=%s error=%v", reason, cause)
	if path := strings.TrimSpace(req.VideoPath); path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("remove rejected upload failed path=%s error=%v", path, err)
		}
	}
}
