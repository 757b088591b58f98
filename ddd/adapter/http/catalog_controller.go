package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"vibe-transcode-service/ddd/application/app"
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/restapi"
)

// CatalogController 作业产物查询控制器
type CatalogController struct {
	cfg        *config.Config
	catalogApp app.CatalogApp
}

// NewCatalogController 创建产物查询控制器
func NewCatalogController(cfg *config.Config, catalogApp app.CatalogApp) *CatalogController {
	return &CatalogController{cfg: cfg, catalogApp: catalogApp}
}

// ListVideos 列出工作区中的全部作业目录
func (c *CatalogController) ListVideos(ctx *gin.Context) {
	resp, err := c.catalogApp.ListCompleted(ctx.Request.Context(), c.baseURL(ctx))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// GetJob 查询单个作业目录
func (c *CatalogController) GetJob(ctx *gin.Context) {
	resp, err := c.catalogApp.Get(ctx.Request.Context(), ctx.Param("folder"), c.baseURL(ctx))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// baseURL 优先使用配置的公开地址，否则由请求的协议与 Host 推导
func (c *CatalogController) baseURL(ctx *gin.Context) string {
	if base := strings.TrimSpace(c.cfg.Workspace.PublicBaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if c.cfg.Server.TrustProxy {
		if proto := forwardedProto(ctx.GetHeader("X-Forwarded-Proto")); proto != "" {
			scheme = proto
		}
	}
	return scheme + "://" + ctx.Request.Host + c.cfg.Workspace.PublicPath
}

// forwardedProto 取代理链中第一个协议，只接受 http/https
func forwardedProto(header string) string {
	proto := strings.ToLower(strings.TrimSpace(strings.Split(header, ",")[0]))
	if proto == "http" || proto == "https" {
		return proto
	}
	return ""
}
