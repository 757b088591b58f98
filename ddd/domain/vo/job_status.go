package vo

import "fmt"

// JobStatus 作业状态
type JobStatus string

const (
	// JobStatusSubmitted 已提交，等待处理
	JobStatusSubmitted JobStatus = "submitted"
	// JobStatusProbing 正在探测源文件元数据
	JobStatusProbing JobStatus = "probing"
	// JobStatusPlanning 正在生成转码计划
	JobStatusPlanning JobStatus = "planning"
	// JobStatusEncoding 正在切片编码与截取缩略图
	JobStatusEncoding JobStatus = "encoding"
	// JobStatusCompleted 已完成
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 失败
	JobStatusFailed JobStatus = "failed"
)

// IsValid 检查状态是否有效
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusSubmitted, JobStatusProbing, JobStatusPlanning,
		JobStatusEncoding, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s JobStatus) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为最终状态
func (s JobStatus) IsFinalStatus() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态。
// 任何非最终状态都可以直接进入失败。
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	if target == JobStatusFailed {
		return !s.IsFinalStatus()
	}
	switch s {
	case JobStatusSubmitted:
		return target == JobStatusProbing
	case JobStatusProbing:
		return target == JobStatusPlanning
	case JobStatusPlanning:
		return target == JobStatusEncoding
	case JobStatusEncoding:
		return target == JobStatusCompleted
	default:
		return false
	}
}

// NewJobStatusFromString 从字符串解析状态
func NewJobStatusFromString(s string) (JobStatus, error) {
	st := JobStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid job status: %s", s)
	}
	return st, nil
}
