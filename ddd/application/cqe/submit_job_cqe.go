package cqe

import (
	"strings"

	"vibe-transcode-service/pkg/errno"
)

// SubmitJobCqe 提交转码作业
type SubmitJobCqe struct {
	VideoPath   string  // 已落盘的临时上传文件，空表示未上传
	OverlayPath string  // 覆盖音轨路径，相对于覆盖音轨根目录
	TrimStart   float64 // 覆盖音轨裁剪起点（秒）
	TrimEnd     float64 // 覆盖音轨裁剪终点（秒），不大于起点时不限制终点
}

func (req *SubmitJobCqe) Validate() error {
	if strings.TrimSpace(req.VideoPath) == "" {
		return errno.ErrMissingInput
	}
	if req.TrimStart < 0 || req.TrimEnd < 0 {
		return errno.ErrInvalidParam
	}
	return nil
}

// HasOverlay 是否提交了覆盖音轨
func (req *SubmitJobCqe) HasOverlay() bool {
	return strings.TrimSpace(req.OverlayPath) != ""
}
