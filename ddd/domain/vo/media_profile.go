package vo

import "fmt"

// MediaProfile 源文件探测结果。Width/Height 为0表示分辨率未知。
type MediaProfile struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
	HasAudio        bool    `json:"has_audio"`
	FormatName      string  `json:"format_name,omitempty"`
}

// HasResolution 是否同时具备宽高
func (p MediaProfile) HasResolution() bool {
	return p.Width > 0 && p.Height > 0
}

// Resolution 返回 "WxH" 或 "unknown"
func (p MediaProfile) Resolution() string {
	if !p.HasResolution() {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}
