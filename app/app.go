package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	vibeGrpc "vibe-transcode-service/ddd/adapter/grpc"
	vibeHttp "vibe-transcode-service/ddd/adapter/http"
	"vibe-transcode-service/ddd/application/app"
	"vibe-transcode-service/ddd/domain/gateway"
	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/ddd/domain/service"
	"vibe-transcode-service/ddd/infrastructure/event"
	"vibe-transcode-service/ddd/infrastructure/executor"
	"vibe-transcode-service/ddd/infrastructure/prober"
	"vibe-transcode-service/ddd/infrastructure/queue"
	"vibe-transcode-service/ddd/infrastructure/status"
	"vibe-transcode-service/ddd/infrastructure/storage"
	"vibe-transcode-service/ddd/infrastructure/worker"
	"vibe-transcode-service/ddd/infrastructure/workspace"
	"vibe-transcode-service/internal/resource"
	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/logger"
	"vibe-transcode-service/pkg/observability"
	"vibe-transcode-service/pkg/registry"
	"vibe-transcode-service/pkg/task"
)

const serviceName = "vibe-transcode-service"

// Service 装配完成的服务，持有需要在关闭时释放的组件
type Service struct {
	Config     *config.Config
	Resources  *resource.Resources
	JobApp     app.JobApp
	CatalogApp app.CatalogApp
	Worker     worker.JobWorker
	Handler    http.Handler
}

// Build 按配置装配全部组件，不启动任何后台任务
func Build(ctx context.Context, cfg *config.Config) (*Service, error) {
	for _, dir := range []string{cfg.Workspace.UploadDir, cfg.Workspace.Root} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	res, err := resource.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewFSWorkspace(cfg.Workspace.Root)
	if err != nil {
		res.Close()
		return nil, err
	}

	statusRepo := newStatusRepository(cfg, res)
	publisher := newEventPublisher(cfg, res)
	var storageGateway gateway.StorageGateway
	if res.Minio != nil {
		storageGateway = storage.NewMinioStorage(res.Minio, cfg.Minio.Prefix)
	}

	ff := cfg.Transcode.FFmpeg
	pipeline := service.NewJobPipeline(
		prober.NewFFprobeProber(ff.ProbeBinaryPath),
		service.NewTranscodePlanner(ff.MaxWidth, ff.MaxHeight),
		executor.NewFFmpegExecutor(ff),
		statusRepo,
		publisher,
		storageGateway,
	)

	jobQueue := queue.NewMemoryJobQueue(cfg.Worker.QueueCapacity)
	jobWorker := worker.NewJobWorker(serviceName, jobQueue, pipeline, cfg.Worker.MaxConcurrentJobs, cfg.Worker.ShutdownGracePeriod)

	jobApp := app.NewJobApp(ws, workspace.NewIDGenerator(cfg.Workspace.FolderPrefix), jobQueue, pipeline, statusRepo, cfg.Workspace.OverlayBaseDir)
	catalogApp := app.NewCatalogApp(ws, statusRepo)

	return &Service{
		Config:     cfg,
		Resources:  res,
		JobApp:     jobApp,
		CatalogApp: catalogApp,
		Worker:     jobWorker,
		Handler:    vibeHttp.NewRouter(cfg, jobApp, catalogApp).Engine(),
	}, nil
}

func newStatusRepository(cfg *config.Config, res *resource.Resources) repo.JobStatusRepository {
	if res.Redis != nil {
		logger.Infof("job status backend=redis ttl=%s", cfg.Status.TTL)
		return status.NewRedisStatusRepository(res.Redis.Client(), cfg.Status.TTL)
	}
	return status.NewMemoryStatusRepository()
}

func newEventPublisher(cfg *config.Config, res *resource.Resources) gateway.JobEventPublisher {
	if res.Kafka != nil {
		return event.NewKafkaJobEventPublisher(res.Kafka.Client(), cfg.Kafka.Topics.JobEvents)
	}
	return event.NoopJobEventPublisher{}
}

// Run 启动服务并阻塞直至收到退出信号
func Run() {
	fmt.Println("[STARTUP] Starting vibe transcode service...")

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	config.SetGlobalConfig(cfg)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()

	// gin 的调试与错误输出统一走 logrus
	ginOut := logService.Raw().Writer()
	ginErr := logService.Raw().WriterLevel(logrus.ErrorLevel)
	defer ginOut.Close()
	defer ginErr.Close()
	gin.DefaultWriter = ginOut
	gin.DefaultErrorWriter = ginErr

	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
		"config": cfgPath,
	})

	stopProfiling := observability.StartProfiling(serviceName, cfg.Profiling)
	defer stopProfiling()

	// 启动阶段检查媒体工具
	if err := checkMediaTools(cfg.Transcode.FFmpeg); err != nil {
		logger.Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := Build(ctx, cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to assemble service error=%v", err))
	}
	defer svc.Resources.Close()

	if err := worker.NewJobWorkerComponent("job-worker", svc.Worker).Start(); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to register job worker error=%v", err))
	}
	if err := task.StartAll(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}

	var healthServer *vibeGrpc.HealthServer
	grpcAddr := ""
	if cfg.GRPCServer.Enabled {
		grpcAddr = cfg.GRPCServer.Addr()
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to listen on gRPC port address=%s error=%v", grpcAddr, err))
		}
		healthServer = vibeGrpc.NewHealthServer(serviceName)
		healthServer.SetServing(svc.Worker.IsRunning())
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Errorf("gRPC server encountered an error error=%v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.HTTPAddr(),
		Handler:      svc.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started address=%s service=%s public_path=%s", server.Addr, serviceName, cfg.Workspace.PublicPath)

	var reg *registry.ServiceRegistry
	if cfg.ServiceRegistry.Enabled {
		reg = register(cfg, grpcAddr)
	}

	<-ctx.Done()
	logger.Infof("Received shutdown signal, shutting down server...")

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			logger.Warnf("deregister failed error=%v", err)
		}
	}
	if healthServer != nil {
		healthServer.SetServing(false)
	}

	// 先停止接收请求，再排空作业
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}
	if err := task.StopAll(); err != nil {
		logger.Errorf("Background tasks stopped with errors error=%v", err)
	}
	if healthServer != nil {
		healthServer.GracefulStop()
	}

	logger.Infof("Server exited safely")
}

func register(cfg *config.Config, grpcAddr string) *registry.ServiceRegistry {
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host, _ = os.Hostname()
	}
	httpAddr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
	if grpcAddr != "" {
		grpcAddr = fmt.Sprintf("%s:%d", host, cfg.GRPCServer.Port)
	}
	reg, err := registry.NewServiceRegistry(cfg.ServiceRegistry, httpAddr, grpcAddr)
	if err != nil {
		logger.Warnf("service registry unavailable error=%v", err)
		return nil
	}
	if err := reg.Register(); err != nil {
		logger.Warnf("service registration failed error=%v", err)
		_ = reg.Deregister()
		return nil
	}
	return reg
}

// checkMediaTools 确认 ffmpeg 与 ffprobe 可执行
func checkMediaTools(ff config.FFmpegConfig) error {
	for _, bin := range []string{ff.BinaryPath, ff.ProbeBinaryPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("media tool not found, install it or set transcode.ffmpeg binary paths binary=%s error=%v", bin, err)
		}
	}
	if strings.Contains(strings.ToLower(ff.VideoCodec), "nvenc") {
		out, err := exec.Command(ff.BinaryPath, "-hide_banner", "-encoders").Output()
		if err == nil && !strings.Contains(strings.ToLower(string(out)), "nvenc") {
			logger.Warnf("NVENC encoder not detected in FFmpeg, codec=%s", ff.VideoCodec)
		}
	}
	return nil
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
