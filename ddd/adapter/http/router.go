package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vibe-transcode-service/ddd/application/app"
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/middleware"
	"vibe-transcode-service/pkg/restapi"
)

// Router 路由配置
type Router struct {
	cfg        *config.Config
	jobApp     app.JobApp
	catalogApp app.CatalogApp
}

// NewRouter 创建路由配置
func NewRouter(cfg *config.Config, jobApp app.JobApp, catalogApp app.CatalogApp) *Router {
	return &Router{
		cfg:        cfg,
		jobApp:     jobApp,
		catalogApp: catalogApp,
	}
}

// Engine 创建并装配 gin 引擎
func (r *Router) Engine() *gin.Engine {
	switch r.cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode, gin.ReleaseMode:
		gin.SetMode(r.cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if r.cfg.Server.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = r.cfg.Server.MaxUploadBytes
	}
	r.SetupMiddleware(engine)
	r.SetupRoutes(engine)
	return engine
}

// SetupMiddleware 设置中间件
func (r *Router) SetupMiddleware(engine *gin.Engine) {
	// CORS中间件
	engine.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	engine.Use(middleware.RequestContextMiddleware())
	engine.Use(middleware.AccessLogMiddleware(r.cfg.Workspace.PublicPath))

	// 未预期的 panic 统一返回 500
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", map[string]interface{}{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
			"panic":      fmt.Sprint(recovered),
		})
		restapi.Failed(c, errno.ErrInternalServer)
	}))
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes(engine *gin.Engine) {
	jobController := NewJobController(r.cfg, r.jobApp)
	catalogController := NewCatalogController(r.cfg, r.catalogApp)

	engine.POST("/share", jobController.Share)
	engine.GET("/videos", catalogController.ListVideos)
	engine.GET("/jobs/:folder", catalogController.GetJob)

	// 作业产物静态访问
	engine.Static(r.cfg.Workspace.PublicPath, r.cfg.Workspace.Root)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 健康检查路由
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "vibe-transcode-service",
			"timestamp": time.Now().Unix(),
		})
	})
}
