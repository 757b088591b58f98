package app

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"vibe-transcode-service/ddd/application/dto"
	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
)

const (
	playlistExt     = ".m3u8"
	thumbnailPrefix = "thumbnail"
)

// CatalogApp 扫描工作区报告已产出的内容，反映文件系统而非作业记录
type CatalogApp interface {
	// ListCompleted 列出全部作业目录，baseURL 为静态资源的完整前缀
	ListCompleted(ctx context.Context, baseURL string) (*dto.CatalogDTO, error)
	// Get 返回单个作业目录的概览，不存在时返回 errno.ErrNotFound
	Get(ctx context.Context, folderName, baseURL string) (*dto.VideoSummaryDTO, error)
}

type catalogAppImpl struct {
	workspace  repo.WorkspaceRepository
	statusRepo repo.JobStatusRepository
}

// NewCatalogApp statusRepo 可以为 nil，此时不输出状态字段
func NewCatalogApp(workspace repo.WorkspaceRepository, statusRepo repo.JobStatusRepository) CatalogApp {
	return &catalogAppImpl{workspace: workspace, statusRepo: statusRepo}
}

func (a *catalogAppImpl) ListCompleted(ctx context.Context, baseURL string) (*dto.CatalogDTO, error) {
	folders, err := a.workspace.ListAll()
	if err != nil {
		return nil, errno.NewBizError(errno.ErrListFailed, err)
	}

	videos := make([]dto.VideoSummaryDTO, 0, len(folders))
	for _, folder := range folders {
		summary, err := a.summarize(ctx, folder, filepath.Join(a.workspace.Root(), folder), baseURL)
		if err != nil {
			return nil, errno.NewBizError(errno.ErrListFailed, err)
		}
		videos = append(videos, *summary)
	}
	return &dto.CatalogDTO{Count: len(videos), Videos: videos}, nil
}

func (a *catalogAppImpl) Get(ctx context.Context, folderName, baseURL string) (*dto.VideoSummaryDTO, error) {
	dir, err := a.workspace.Resolve(folderName)
	if err != nil {
		return nil, err
	}
	summary, err := a.summarize(ctx, folderName, dir, baseURL)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}
	return summary, nil
}

// summarize 取目录中第一个 .m3u8 文件与第一个 thumbnail* 文件
func (a *catalogAppImpl) summarize(ctx context.Context, folder, dir, baseURL string) (*dto.VideoSummaryDTO, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	summary := &dto.VideoSummaryDTO{Folder: folder}
	for _, entry := range entries {
		name := entry.Name()
		if summary.URL == nil && strings.HasSuffix(name, playlistExt) {
			summary.URL = artifactURL(baseURL, folder, name)
		}
		if summary.Thumbnail == nil && strings.HasPrefix(name, thumbnailPrefix) {
			summary.Thumbnail = artifactURL(baseURL, folder, name)
		}
	}

	if a.statusRepo != nil {
		rec, err := a.statusRepo.GetStatus(ctx, folder)
		if err != nil {
			logger.Debugf("catalog status lookup failed folder=%s error=%v", folder, err)
		} else if rec != nil {
			progress := rec.Progress
			summary.Status = rec.Status.String()
			summary.Progress = &progress
			summary.Error = rec.ErrorMessage
		}
	}
	return summary, nil
}

func artifactURL(baseURL, folder, name string) *string {
	u := strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(folder) + "/" + url.PathEscape(name)
	return &u
}
