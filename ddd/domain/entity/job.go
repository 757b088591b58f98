package entity

import (
	"time"

	"vibe-transcode-service/ddd/domain/vo"
)

// JobEntity 一次上传对应的转码作业。只由该作业自己的处理流程修改。
type JobEntity struct {
	id              string
	sourceVideoPath string
	overlay         *vo.AudioOverlay
	overlayEcho     string
	workspaceDir    string
	status          vo.JobStatus
	progress        int
	errorMessage    string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewJobEntity 创建已提交状态的作业。overlayEcho 是调用方提交的原始覆盖音轨路径。
func NewJobEntity(id, sourceVideoPath, workspaceDir string, overlay *vo.AudioOverlay, overlayEcho string) *JobEntity {
	now := time.Now()
	return &JobEntity{
		id:              id,
		sourceVideoPath: sourceVideoPath,
		overlay:         overlay,
		overlayEcho:     overlayEcho,
		workspaceDir:    workspaceDir,
		status:          vo.JobStatusSubmitted,
		createdAt:       now,
		updatedAt:       now,
	}
}

func (e *JobEntity) ID() string                     { return e.id }
func (e *JobEntity) FolderName() string             { return e.id }
func (e *JobEntity) SourceVideoPath() string        { return e.sourceVideoPath }
func (e *JobEntity) Overlay() *vo.AudioOverlay      { return e.overlay }
func (e *JobEntity) OverlayEcho() string            { return e.overlayEcho }
func (e *JobEntity) WorkspaceDir() string           { return e.workspaceDir }
func (e *JobEntity) Status() vo.JobStatus           { return e.status }
func (e *JobEntity) Progress() int                  { return e.progress }
func (e *JobEntity) ErrorMessage() string           { return e.errorMessage }
func (e *JobEntity) CreatedAt() time.Time           { return e.createdAt }
func (e *JobEntity) UpdatedAt() time.Time           { return e.updatedAt }
func (e *JobEntity) IsCompleted() bool              { return e.status == vo.JobStatusCompleted }
func (e *JobEntity) IsFailed() bool                 { return e.status == vo.JobStatusFailed }

// TransitionTo 按状态机推进作业状态，非法转换返回 false 且不修改状态
func (e *JobEntity) TransitionTo(status vo.JobStatus) bool {
	if !e.status.CanTransitionTo(status) {
		return false
	}
	e.status = status
	if status == vo.JobStatusCompleted {
		e.progress = 100
	}
	e.updatedAt = time.Now()
	return true
}

// Fail 标记失败并记录原因
func (e *JobEntity) Fail(msg string) bool {
	if !e.TransitionTo(vo.JobStatusFailed) {
		return false
	}
	e.errorMessage = msg
	return true
}

func (e *JobEntity) SetProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	e.progress = p
	e.updatedAt = time.Now()
}
