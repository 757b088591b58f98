package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"vibe-transcode-service/internal/resource"
	"vibe-transcode-service/pkg/logger"
)

// uploadObject 待上传的本地文件
type uploadObject struct {
	LocalPath   string
	ObjectKey   string
	ContentType string
}

// MinioStorage 将作业目录镜像到 MinIO
type MinioStorage struct {
	minioResource *resource.MinioResource
	prefix        string
}

// NewMinioStorage 创建MinIO存储实例，prefix 为对象键的公共前缀
func NewMinioStorage(minioResource *resource.MinioResource, prefix string) *MinioStorage {
	return &MinioStorage{
		minioResource: minioResource,
		prefix:        strings.Trim(prefix, "/"),
	}
}

// MirrorDirectory 上传目录下的全部文件到 <prefix>/<keyPrefix>/<相对路径>
func (s *MinioStorage) MirrorDirectory(ctx context.Context, localDir, keyPrefix string) (int, error) {
	objects, err := collectObjects(localDir, path.Join(s.prefix, keyPrefix))
	if err != nil {
		return 0, err
	}
	if err := s.uploadObjects(ctx, objects); err != nil {
		return 0, err
	}
	return len(objects), nil
}

// uploadObjects 批量上传对象
func (s *MinioStorage) uploadObjects(ctx context.Context, objects []uploadObject) error {
	if len(objects) == 0 {
		return nil
	}

	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	for _, obj := range objects {
		file, err := os.Open(obj.LocalPath)
		if err != nil {
			return fmt.Errorf("open local file failed: %w", err)
		}

		fileInfo, err := file.Stat()
		if err != nil {
			file.Close()
			return fmt.Errorf("get file info failed: %w", err)
		}

		_, err = client.PutObject(ctx, bucketName, obj.ObjectKey, file, fileInfo.Size(), minio.PutObjectOptions{
			ContentType: obj.ContentType,
		})
		file.Close()
		if err != nil {
			logger.Error("Failed to upload object during mirror", map[string]interface{}{
				"local_path": obj.LocalPath,
				"object_key": obj.ObjectKey,
				"error":      err.Error(),
			})
			return fmt.Errorf("upload object to minio failed: %w", err)
		}

		logger.Debug("Uploaded object", map[string]interface{}{
			"object_key": obj.ObjectKey,
			"size":       fileInfo.Size(),
		})
	}

	return nil
}

// collectObjects 遍历目录生成上传列表，对象键使用 / 分隔
func collectObjects(localDir, keyPrefix string) ([]uploadObject, error) {
	objects := make([]uploadObject, 0, 16)
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		objects = append(objects, uploadObject{
			LocalPath:   p,
			ObjectKey:   path.Join(keyPrefix, filepath.ToSlash(rel)),
			ContentType: getContentTypeFromExtension(p),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", localDir, err)
	}
	return objects, nil
}

// getContentTypeFromExtension 根据文件扩展名获取内容类型
func getContentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".m4s":
		return "video/iso.segment"
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
