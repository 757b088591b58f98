package observability

import (
	"testing"

	"vibe-transcode-service/pkg/config"
)

func TestStartProfilingDisabledIsNoop(t *testing.T) {
	stop := StartProfiling("vibe-test", config.ProfilingConfig{Enabled: false, ServerAddress: "http://localhost:4040"})
	if stop == nil {
		t.Fatalf("stop func must not be nil")
	}
	stop()

	stop = StartProfiling("vibe-test", config.ProfilingConfig{Enabled: true})
	stop()
}
