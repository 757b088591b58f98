package vo

import "fmt"

// SourceNativeSize 不缩放时的目标尺寸标记
const SourceNativeSize = "source"

// StreamSource 流来源
type StreamSource string

const (
	StreamSourceVideo   StreamSource = "source"  // 上传的视频文件（输入0）
	StreamSourceOverlay StreamSource = "overlay" // 覆盖音轨文件（输入1）
)

// StreamRef 引用某个输入文件中的一路流
type StreamRef struct {
	Source     StreamSource `json:"source"`
	InputIndex int          `json:"input_index"`
	MediaType  string       `json:"media_type"` // "v" 或 "a"
	StreamIdx  int          `json:"stream_index"`
	// Optional 为 true 时源文件缺少该流不视为错误（源视频可能没有音轨）
	Optional bool `json:"optional"`
}

// Specifier 返回 ffmpeg -map 形式的流描述，例如 "0:v:0"、"1:a:0"、"0:a:0?"
func (r StreamRef) Specifier() string {
	s := fmt.Sprintf("%d:%s:%d", r.InputIndex, r.MediaType, r.StreamIdx)
	if r.Optional {
		s += "?"
	}
	return s
}

// StreamMapping 输出流映射
type StreamMapping struct {
	Video StreamRef `json:"video"`
	Audio StreamRef `json:"audio"`
}

// TranscodePlan 由探测结果与请求推导出的转码计划，生成后不可变
type TranscodePlan struct {
	ShouldDownscale bool          `json:"should_downscale"`
	TargetSize      string        `json:"target_size"`
	TargetHeight    int           `json:"target_height,omitempty"`
	StreamMapping   StreamMapping `json:"stream_mapping"`
	// AudioTrim 仅作用于覆盖音轨输入，nil 表示保留源音轨
	AudioTrim   *TrimWindow `json:"audio_trim,omitempty"`
	OverlayPath string      `json:"overlay_path,omitempty"`
}

// HasOverlay 是否替换音轨
func (p TranscodePlan) HasOverlay() bool {
	return p.OverlayPath != ""
}

// ScaleFilter 返回缩放滤镜，仅约束高度，宽度按比例计算（取偶数）
func (p TranscodePlan) ScaleFilter() string {
	if !p.ShouldDownscale || p.TargetHeight <= 0 {
		return ""
	}
	return fmt.Sprintf("scale=-2:%d", p.TargetHeight)
}
