package vo

import "fmt"

// AudioOverlay 替换音轨：覆盖文件路径与裁剪窗口（秒）
type AudioOverlay struct {
	Path      string  `json:"path"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

// NewAudioOverlay 创建覆盖音轨，裁剪时间不能为负数
func NewAudioOverlay(path string, trimStart, trimEnd float64) (*AudioOverlay, error) {
	if path == "" {
		return nil, fmt.Errorf("overlay path is empty")
	}
	if trimStart < 0 || trimEnd < 0 {
		return nil, fmt.Errorf("overlay trim must be >= 0 (start=%v end=%v)", trimStart, trimEnd)
	}
	return &AudioOverlay{Path: path, TrimStart: trimStart, TrimEnd: trimEnd}, nil
}

// Window 返回裁剪窗口
func (a AudioOverlay) Window() TrimWindow {
	return TrimWindow{Start: a.TrimStart, End: a.TrimEnd}
}

// TrimWindow 输入级裁剪窗口，End<=Start 表示不限制结束时间
type TrimWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Bounded 是否有结束边界
func (w TrimWindow) Bounded() bool {
	return w.End > w.Start
}
