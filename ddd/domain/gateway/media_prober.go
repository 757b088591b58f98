package gateway

import (
	"context"

	"vibe-transcode-service/ddd/domain/vo"
)

// MediaProber 读取媒体文件元数据，不做解码或编码。
// 无法解析时返回包装了 errno.ErrProbeFailed 的错误，并携带外部工具的诊断输出。
type MediaProber interface {
	Probe(ctx context.Context, filePath string) (*vo.MediaProfile, error)
}
