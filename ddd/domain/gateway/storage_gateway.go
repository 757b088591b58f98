package gateway

import "context"

// StorageGateway 对象存储网关，用于镜像已完成作业的产物
type StorageGateway interface {
	// MirrorDirectory 上传 localDir 下的所有文件到 keyPrefix/ 下，返回上传的文件数
	MirrorDirectory(ctx context.Context, localDir, keyPrefix string) (int, error)
}
