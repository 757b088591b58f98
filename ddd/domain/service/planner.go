package service

import (
	"fmt"

	"vibe-transcode-service/ddd/domain/vo"
)

const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
)

// TranscodePlanner 根据探测结果与覆盖音轨推导转码计划。
// Plan 不做任何 I/O，相同输入总是得到相同输出。
type TranscodePlanner struct {
	maxWidth  int
	maxHeight int
}

// NewTranscodePlanner 创建规划器，非正数的边界使用 1920x1080
func NewTranscodePlanner(maxWidth, maxHeight int) *TranscodePlanner {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &TranscodePlanner{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Plan 生成转码计划。
// 仅当分辨率已知且宽或高超出边界时缩放，缩放只约束高度。
// 有覆盖音轨时音频一律取自覆盖文件，源音轨不保留。
func (p *TranscodePlanner) Plan(profile vo.MediaProfile, overlay *vo.AudioOverlay) vo.TranscodePlan {
	plan := vo.TranscodePlan{
		TargetSize: vo.SourceNativeSize,
		StreamMapping: vo.StreamMapping{
			Video: vo.StreamRef{Source: vo.StreamSourceVideo, InputIndex: 0, MediaType: "v", StreamIdx: 0},
			Audio: vo.StreamRef{Source: vo.StreamSourceVideo, InputIndex: 0, MediaType: "a", StreamIdx: 0, Optional: true},
		},
	}

	if profile.HasResolution() && (profile.Width > p.maxWidth || profile.Height > p.maxHeight) {
		plan.ShouldDownscale = true
		plan.TargetHeight = p.maxHeight
		plan.TargetSize = fmt.Sprintf("?x%d", p.maxHeight)
	}

	if overlay != nil {
		window := overlay.Window()
		plan.OverlayPath = overlay.Path
		plan.AudioTrim = &window
		plan.StreamMapping.Audio = vo.StreamRef{Source: vo.StreamSourceOverlay, InputIndex: 1, MediaType: "a", StreamIdx: 0}
	}

	return plan
}
