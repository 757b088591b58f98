package observability

import (
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"

	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/logger"
)

// StartProfiling starts continuous profiling when enabled. The returned stop
// function is always non-nil.
func StartProfiling(appName string, cfg config.ProfilingConfig) func() {
	if !cfg.Enabled || strings.TrimSpace(cfg.ServerAddress) == "" {
		return func() {}
	}
	host, _ := os.Hostname()
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            map[string]string{"hostname": host},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope start failed server=%s error=%v", cfg.ServerAddress, err)
		return func() {}
	}
	logger.Infof("pyroscope profiling started server=%s app=%s", cfg.ServerAddress, appName)
	return func() {
		if err := profiler.Stop(); err != nil {
			logger.Warnf("pyroscope stop failed error=%v", err)
		}
	}
}
