package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Workspace       WorkspaceConfig       `mapstructure:"workspace"`
	Transcode       TranscodeConfig       `mapstructure:"transcode"`
	Worker          WorkerConfig          `mapstructure:"worker"`
	Status          StatusConfig          `mapstructure:"status"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	Minio           MinioConfig           `mapstructure:"minio"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Log             LogConfig             `mapstructure:"log"`
	Profiling       ProfilingConfig       `mapstructure:"profiling"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxUploadBytes 限制 multipart 请求体大小，0 表示使用 gin 默认值
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	// TrustProxy 为 true 时才采信 X-Forwarded-Proto，仅在可信反向代理之后开启
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// WorkspaceConfig 作业工作目录配置
type WorkspaceConfig struct {
	Root           string `mapstructure:"root"`
	UploadDir      string `mapstructure:"upload_dir"`
	OverlayBaseDir string `mapstructure:"overlay_base_dir"`
	FolderPrefix   string `mapstructure:"folder_prefix"`
	PublicPath     string `mapstructure:"public_path"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
}

// TranscodeConfig 转码配置
type TranscodeConfig struct {
	FFmpeg FFmpegConfig `mapstructure:"ffmpeg"`
}

// FFmpegConfig FFmpeg相关配置
type FFmpegConfig struct {
	BinaryPath             string        `mapstructure:"binary_path"`
	ProbeBinaryPath        string        `mapstructure:"probe_binary_path"`
	VideoCodec             string        `mapstructure:"video_codec"`
	AudioCodec             string        `mapstructure:"audio_codec"`
	VideoPreset            string        `mapstructure:"video_preset"`
	CRF                    int           `mapstructure:"crf"`
	SegmentSeconds         int           `mapstructure:"segment_seconds"`
	PlaylistType           string        `mapstructure:"playlist_type"`
	MaxWidth               int           `mapstructure:"max_width"`
	MaxHeight              int           `mapstructure:"max_height"`
	ThumbnailOffsetSeconds float64       `mapstructure:"thumbnail_offset_seconds"`
	ThumbnailWidth         int           `mapstructure:"thumbnail_width"`
	Threads                int           `mapstructure:"threads"`
	Timeout                time.Duration `mapstructure:"timeout"`
}

// WorkerConfig 作业并发与准入配置
type WorkerConfig struct {
	MaxConcurrentJobs   int           `mapstructure:"max_concurrent_jobs"`
	QueueCapacity       int           `mapstructure:"queue_capacity"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// StatusConfig 作业状态存储配置
type StatusConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	Enabled          bool              `mapstructure:"enabled"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	JobEvents string `mapstructure:"job_events"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// ProfilingConfig pyroscope 持续性能分析配置
type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
}

// Load 加载配置；配置文件不存在时仅使用默认值与环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置环境变量前缀
	v.SetEnvPrefix("VIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(configPath) != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4455)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 5*time.Minute)
	v.SetDefault("server.write_timeout", time.Minute)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("workspace.root", "processed")
	v.SetDefault("workspace.upload_dir", "uploads")
	v.SetDefault("workspace.overlay_base_dir", ".")
	v.SetDefault("workspace.folder_prefix", "vibe_")
	v.SetDefault("workspace.public_path", "/processed")

	v.SetDefault("transcode.ffmpeg.binary_path", "ffmpeg")
	v.SetDefault("transcode.ffmpeg.probe_binary_path", "ffprobe")
	v.SetDefault("transcode.ffmpeg.video_codec", "libx264")
	v.SetDefault("transcode.ffmpeg.audio_codec", "aac")
	v.SetDefault("transcode.ffmpeg.video_preset", "veryfast")
	v.SetDefault("transcode.ffmpeg.crf", 23)
	v.SetDefault("transcode.ffmpeg.segment_seconds", 5)
	v.SetDefault("transcode.ffmpeg.playlist_type", "vod")
	v.SetDefault("transcode.ffmpeg.max_width", 1920)
	v.SetDefault("transcode.ffmpeg.max_height", 1080)
	v.SetDefault("transcode.ffmpeg.thumbnail_offset_seconds", 1.0)
	v.SetDefault("transcode.ffmpeg.thumbnail_width", 320)

	v.SetDefault("worker.max_concurrent_jobs", 2)
	v.SetDefault("worker.queue_capacity", 100)
	v.SetDefault("worker.shutdown_grace_period", 10*time.Second)

	v.SetDefault("status.backend", "memory")
	v.SetDefault("status.ttl", 72*time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "vibe:job:")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.client_id", "vibe-transcode-service")
	v.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	v.SetDefault("kafka.topics.job_events", "vibe.job.events")

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.prefix", "processed")

	v.SetDefault("service_registry.enabled", false)
	v.SetDefault("service_registry.service_name", "vibe-transcode-service")

	v.SetDefault("grpc_server.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	if c.Server.Port <= 0 {
		c.Server.Port = 4455
	}
	if strings.TrimSpace(c.Workspace.Root) == "" {
		c.Workspace.Root = "processed"
	}
	if strings.TrimSpace(c.Workspace.UploadDir) == "" {
		c.Workspace.UploadDir = "uploads"
	}
	if strings.TrimSpace(c.Workspace.OverlayBaseDir) == "" {
		c.Workspace.OverlayBaseDir = "."
	}
	if c.Workspace.FolderPrefix == "" {
		c.Workspace.FolderPrefix = "vibe_"
	}
	if c.Workspace.PublicPath == "" {
		c.Workspace.PublicPath = "/processed"
	}
	if !strings.HasPrefix(c.Workspace.PublicPath, "/") {
		c.Workspace.PublicPath = "/" + c.Workspace.PublicPath
	}
	c.Workspace.PublicPath = strings.TrimRight(c.Workspace.PublicPath, "/")
	if abs, err := filepath.Abs(c.Workspace.Root); err == nil {
		c.Workspace.Root = abs
	}

	ff := &c.Transcode.FFmpeg
	if ff.BinaryPath == "" {
		ff.BinaryPath = "ffmpeg"
	}
	if ff.ProbeBinaryPath == "" {
		ff.ProbeBinaryPath = "ffprobe"
	}
	if ff.VideoCodec == "" {
		ff.VideoCodec = "libx264"
	}
	if ff.AudioCodec == "" {
		ff.AudioCodec = "aac"
	}
	if ff.VideoPreset == "" {
		ff.VideoPreset = "veryfast"
	}
	if ff.CRF <= 0 {
		ff.CRF = 23
	}
	if ff.SegmentSeconds <= 0 {
		ff.SegmentSeconds = 5
	}
	if ff.PlaylistType == "" {
		ff.PlaylistType = "vod"
	}
	if ff.MaxWidth <= 0 {
		ff.MaxWidth = 1920
	}
	if ff.MaxHeight <= 0 {
		ff.MaxHeight = 1080
	}
	if ff.ThumbnailOffsetSeconds < 0 {
		ff.ThumbnailOffsetSeconds = 1
	}
	if ff.ThumbnailWidth <= 0 {
		ff.ThumbnailWidth = 320
	}
	if ff.Threads < 0 {
		ff.Threads = 0
	}
	if ff.Timeout < 0 {
		ff.Timeout = 0
	}

	// Worker相关默认值
	if c.Worker.MaxConcurrentJobs <= 0 {
		c.Worker.MaxConcurrentJobs = 2
	}
	if c.Worker.QueueCapacity <= 0 {
		c.Worker.QueueCapacity = c.Worker.MaxConcurrentJobs * 50
	}
	if c.Worker.ShutdownGracePeriod == 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	c.Status.Backend = strings.ToLower(strings.TrimSpace(c.Status.Backend))
	if c.Status.Backend == "" {
		c.Status.Backend = "memory"
	}
	if c.Status.TTL <= 0 {
		c.Status.TTL = 72 * time.Hour
	}

	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "vibe-transcode-service"
	}
	if c.Kafka.Topics.JobEvents == "" {
		c.Kafka.Topics.JobEvents = "vibe.job.events"
	}

	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9455
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "vibe-transcode-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if c.ServiceRegistry.DialTimeout == 0 {
		c.ServiceRegistry.DialTimeout = 5 * time.Second
	}
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HTTPAddr 获取HTTP监听地址
func (c *ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr 获取gRPC监听地址
func (c *GRPCServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
