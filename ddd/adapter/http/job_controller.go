package http

import (
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vibe-transcode-service/ddd/application/app"
	"vibe-transcode-service/ddd/application/cqe"
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/restapi"
)

const (
	formVideo     = "video"
	formSongID    = "songId"
	formTrimStart = "musicIntervalSelectedStartTime"
	formTrimEnd   = "musicIntervalSelectedEndTime"
)

// JobController 作业提交控制器
type JobController struct {
	cfg    *config.Config
	jobApp app.JobApp
}

// NewJobController 创建作业提交控制器
func NewJobController(cfg *config.Config, jobApp app.JobApp) *JobController {
	return &JobController{cfg: cfg, jobApp: jobApp}
}

// Share 接收 multipart 上传并受理转码作业，处理在后台进行
func (c *JobController) Share(ctx *gin.Context) {
	if limit := c.cfg.Server.MaxUploadBytes; limit > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
	}

	file, err := ctx.FormFile(formVideo)
	req := cqe.SubmitJobCqe{
		OverlayPath: strings.TrimSpace(ctx.PostForm(formSongID)),
		TrimStart:   parseSeconds(ctx.PostForm(formTrimStart)),
		TrimEnd:     parseSeconds(ctx.PostForm(formTrimEnd)),
	}
	switch {
	case err == nil:
		dst := filepath.Join(c.cfg.Workspace.UploadDir, uuid.NewString())
		if err := ctx.SaveUploadedFile(file, dst); err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrInternalServer, err))
			return
		}
		req.VideoPath = dst
	case isTooLarge(err):
		restapi.Failed(ctx, errno.NewBizError(errno.ErrUploadTooLarge, err))
		return
	default:
		// 缺少视频字段由 Submit 统一返回 ErrMissingInput
		logger.Debugf("no video in share request request_id=%s error=%v", ctx.GetString("request_id"), err)
	}

	ack, err := c.jobApp.Submit(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, ack)
}

// parseSeconds 解析秒数，无法解析的值视为 0
func parseSeconds(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
