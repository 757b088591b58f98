package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vibe-transcode-service/ddd/domain/entity"
	"vibe-transcode-service/ddd/domain/gateway"
	"vibe-transcode-service/ddd/domain/port"
	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/ddd/domain/vo"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/metrics"
)

const progressPersistInterval = 2 * time.Second

// JobPipeline 作业处理流程：探测 -> 规划 -> 执行。
// 每个作业的失败只影响该作业本身，错误仅记录，不回传给提交方。
type JobPipeline interface {
	Run(ctx context.Context, job *entity.JobEntity) error
	// Abort 将未进入处理流程的作业标记为失败（队列已满、服务关闭）
	Abort(ctx context.Context, job *entity.JobEntity, cause error) error
}

type jobPipelineImpl struct {
	prober     gateway.MediaProber
	planner    *TranscodePlanner
	executor   port.TranscodeExecutor
	statusRepo repo.JobStatusRepository
	publisher  gateway.JobEventPublisher
	storage    gateway.StorageGateway

	progressMu  sync.Mutex
	lastPersist map[string]time.Time
}

// NewJobPipeline 创建作业处理流程。publisher 与 storage 可以为 nil。
func NewJobPipeline(prober gateway.MediaProber, planner *TranscodePlanner, executor port.TranscodeExecutor,
	statusRepo repo.JobStatusRepository, publisher gateway.JobEventPublisher, storage gateway.StorageGateway) JobPipeline {
	return &jobPipelineImpl{
		prober:      prober,
		planner:     planner,
		executor:    executor,
		statusRepo:  statusRepo,
		publisher:   publisher,
		storage:     storage,
		lastPersist: make(map[string]time.Time),
	}
}

// Run 执行单个作业直至终态
func (s *jobPipelineImpl) Run(ctx context.Context, job *entity.JobEntity) error {
	if job == nil {
		return errors.New("nil job")
	}
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()
	defer s.clearProgressThrottle(job.ID())

	logger.Info("job started", map[string]interface{}{
		"job_id":  job.ID(),
		"source":  job.SourceVideoPath(),
		"overlay": job.OverlayEcho(),
	})

	// 探测
	s.advance(ctx, job, vo.JobStatusProbing)
	started := time.Now()
	profile, err := s.prober.Probe(ctx, job.SourceVideoPath())
	observeStage("probe", started, err)
	if err != nil {
		return s.fail(ctx, job, wrapAs(errno.ErrProbeFailed, err))
	}

	// 规划
	s.advance(ctx, job, vo.JobStatusPlanning)
	plan := s.planner.Plan(*profile, job.Overlay())
	if plan.ShouldDownscale {
		metrics.DownscaledTotal.Inc()
	}
	logger.Info("job planned", map[string]interface{}{
		"job_id":      job.ID(),
		"resolution":  profile.Resolution(),
		"downscale":   plan.ShouldDownscale,
		"target_size": plan.TargetSize,
		"audio":       plan.StreamMapping.Audio.Specifier(),
	})

	// 编码与缩略图
	s.advance(ctx, job, vo.JobStatusEncoding)
	started = time.Now()
	result, err := s.executor.Execute(ctx, job.SourceVideoPath(), plan, job.WorkspaceDir(), port.ExecuteOptions{
		JobID:           job.ID(),
		DurationSeconds: profile.DurationSeconds,
		ProgressCb:      s.progressCallback(ctx, job),
	})
	observeStage("encode", started, err)
	if result != nil && result.ThumbnailErr != nil {
		logger.Warn("thumbnail extraction failed", map[string]interface{}{
			"job_id": job.ID(),
			"code":   errno.ErrThumbnailFailed.Code,
			"error":  result.ThumbnailErr.Error(),
		})
	}
	if err != nil {
		return s.fail(ctx, job, wrapAs(errno.ErrEncodeFailed, err))
	}

	s.advance(ctx, job, vo.JobStatusCompleted)
	metrics.JobsFinishedTotal.WithLabelValues(string(vo.JobStatusCompleted)).Inc()
	logger.Info("job completed", map[string]interface{}{
		"job_id":    job.ID(),
		"playlist":  result.PlaylistPath,
		"thumbnail": result.ThumbnailPath,
	})

	s.mirror(ctx, job)
	s.publish(ctx, job, result)
	return nil
}

// Abort 记录失败但不执行任何处理
func (s *jobPipelineImpl) Abort(ctx context.Context, job *entity.JobEntity, cause error) error {
	if job == nil {
		return errors.New("nil job")
	}
	if cause == nil {
		cause = errno.ErrInternalServer
	}
	return s.fail(ctx, job, cause)
}

// advance 推进状态并写入状态存储，写入失败只记录日志
func (s *jobPipelineImpl) advance(ctx context.Context, job *entity.JobEntity, status vo.JobStatus) {
	if !job.TransitionTo(status) {
		logger.Warnf("illegal job transition job_id=%s from=%s to=%s", job.ID(), job.Status(), status)
		return
	}
	s.saveStatus(ctx, job)
}

func (s *jobPipelineImpl) fail(ctx context.Context, job *entity.JobEntity, cause error) error {
	job.Fail(cause.Error())
	s.saveStatus(ctx, job)
	metrics.JobsFinishedTotal.WithLabelValues(string(vo.JobStatusFailed)).Inc()

	logger.Error("job failed", map[string]interface{}{
		"job_id": job.ID(),
		"code":   errno.Decode(cause).Code,
		"error":  cause.Error(),
	})
	s.publish(ctx, job, nil)
	return cause
}

func (s *jobPipelineImpl) saveStatus(ctx context.Context, job *entity.JobEntity) {
	if s.statusRepo == nil {
		return
	}
	rec := &repo.JobStatusRecord{
		FolderName:   job.FolderName(),
		Status:       job.Status(),
		Progress:     job.Progress(),
		ErrorMessage: job.ErrorMessage(),
		UpdatedAt:    job.UpdatedAt(),
	}
	// 终态必须落盘，即使作业上下文已取消
	if err := s.statusRepo.SaveStatus(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warnf("save job status failed job_id=%s status=%s error=%v", job.ID(), job.Status(), err)
	}
}

func (s *jobPipelineImpl) progressCallback(ctx context.Context, job *entity.JobEntity) port.ProgressCallback {
	return func(progress int) {
		job.SetProgress(progress)
		if s.statusRepo == nil || !s.shouldPersistProgress(job.ID()) {
			return
		}
		if err := s.statusRepo.UpdateProgress(ctx, job.FolderName(), progress); err != nil {
			logger.Debugf("update progress failed job_id=%s progress=%d error=%v", job.ID(), progress, err)
		}
	}
}

func (s *jobPipelineImpl) shouldPersistProgress(jobID string) bool {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	now := time.Now()
	if last, ok := s.lastPersist[jobID]; ok && now.Sub(last) < progressPersistInterval {
		return false
	}
	s.lastPersist[jobID] = now
	return true
}

func (s *jobPipelineImpl) clearProgressThrottle(jobID string) {
	s.progressMu.Lock()
	delete(s.lastPersist, jobID)
	s.progressMu.Unlock()
}

func (s *jobPipelineImpl) mirror(ctx context.Context, job *entity.JobEntity) {
	if s.storage == nil {
		return
	}
	n, err := s.storage.MirrorDirectory(ctx, job.WorkspaceDir(), job.FolderName())
	if err != nil {
		logger.Warnf("mirror artifacts failed job_id=%s error=%v", job.ID(), err)
		return
	}
	logger.Infof("artifacts mirrored job_id=%s objects=%d", job.ID(), n)
}

func (s *jobPipelineImpl) publish(ctx context.Context, job *entity.JobEntity, result *port.ExecuteResult) {
	if s.publisher == nil {
		return
	}
	evt := gateway.JobEvent{
		JobID:        job.ID(),
		Folder:       job.FolderName(),
		Status:       job.Status().String(),
		ErrorMessage: job.ErrorMessage(),
		OccurredAt:   time.Now().UTC(),
	}
	if result != nil {
		evt.PlaylistPath = result.PlaylistPath
		evt.Thumbnail = result.ThumbnailPath
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		logger.Warnf("publish job event failed job_id=%s status=%s error=%v", job.ID(), evt.Status, err)
	}
}

func observeStage(stage string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StageDuration.WithLabelValues(stage, result).Observe(time.Since(started).Seconds())
}

// wrapAs 保证错误携带指定错误码，已携带业务错误码的保持原样
func wrapAs(code *errno.Errno, err error) error {
	var biz *errno.BizError
	if errors.As(err, &biz) || errors.Is(err, code) {
		return err
	}
	return errno.NewBizError(code, err)
}
