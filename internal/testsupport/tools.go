package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FFmpegMode selects how the fake ffmpeg behaves.
type FFmpegMode string

const (
	FFmpegOK            FFmpegMode = "ok"
	FFmpegFailEncode    FFmpegMode = "fail-encode"
	FFmpegFailThumbnail FFmpegMode = "fail-thumbnail"
	FFmpegFailAll       FFmpegMode = "fail-all"
	// FFmpegNoThumbnail exits 0 on the thumbnail capture without writing it.
	FFmpegNoThumbnail FFmpegMode = "no-thumbnail"
)

// FakeTools describes the media the fake ffprobe reports and how the fake
// ffmpeg reacts. A zero Width/Height omits dimensions from the probe output.
type FakeTools struct {
	Width           int
	Height          int
	DurationSeconds float64
	NoAudio         bool
	ProbeFails      bool
	FFmpeg          FFmpegMode
	// EncodeDelay makes the encode sleep before writing its outputs ("0.2").
	EncodeDelay string
}

// FFmpegLogName is the file, next to the fake binaries, that receives one
// line of arguments per ffmpeg invocation.
const FFmpegLogName = "ffmpeg.log"

// InstallFakeTools writes fake ffmpeg and ffprobe scripts into dir and returns
// their absolute paths.
func InstallFakeTools(t testing.TB, dir string, tools FakeTools) (ffmpegPath, ffprobePath string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	if tools.FFmpeg == "" {
		tools.FFmpeg = FFmpegOK
	}
	if tools.DurationSeconds == 0 {
		tools.DurationSeconds = 10
	}

	ffmpegPath = filepath.Join(dir, "ffmpeg")
	ffprobePath = filepath.Join(dir, "ffprobe")
	writeScript(t, ffmpegPath, fakeFFmpegScript(tools))
	writeScript(t, ffprobePath, fakeFFprobeScript(tools))
	return ffmpegPath, ffprobePath
}

// FFmpegInvocations returns the argument lines recorded by the fake ffmpeg.
func FFmpegInvocations(t testing.TB, binDir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(binDir, FFmpegLogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read ffmpeg log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func writeScript(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake %s: %v", filepath.Base(path), err)
	}
}

func fakeFFmpegScript(tools FakeTools) string {
	delay := tools.EncodeDelay
	if delay == "" {
		delay = "0"
	}
	return fmt.Sprintf(`#!/bin/sh
mode=%q
echo "$*" >> "$(dirname "$0")/%s"
last=""
for a in "$@"; do last="$a"; done
case "$last" in
  *.m3u8)
    sleep %s
    if [ "$mode" = "fail-encode" ] || [ "$mode" = "fail-all" ]; then
      echo "Conversion failed!" >&2
      exit 1
    fi
    dir=$(dirname "$last")
    printf 'segment' > "$dir/index0.ts"
    printf '#EXTM3U\n#EXT-X-PLAYLIST-TYPE:VOD\n#EXTINF:5.0,\nindex0.ts\n#EXT-X-ENDLIST\n' > "$last"
    echo "out_time_ms=5000000" >&2
    echo "progress=end" >&2
    ;;
  *.jpg)
    if [ "$mode" = "fail-thumbnail" ] || [ "$mode" = "fail-all" ]; then
      echo "Output file is empty, nothing was encoded" >&2
      exit 1
    fi
    if [ "$mode" = "no-thumbnail" ]; then
      exit 0
    fi
    printf 'jpeg' > "$last"
    ;;
esac
exit 0
`, string(tools.FFmpeg), FFmpegLogName, delay)
}

func fakeFFprobeScript(tools FakeTools) string {
	if tools.ProbeFails {
		return "#!/bin/sh\necho \"Invalid data found when processing input\" >&2\nexit 1\n"
	}

	video := `{"index":0,"codec_type":"video","codec_name":"h264"`
	if tools.Width > 0 && tools.Height > 0 {
		video += fmt.Sprintf(`,"width":%d,"height":%d`, tools.Width, tools.Height)
	}
	video += "}"
	streams := video
	if !tools.NoAudio {
		streams += `,{"index":1,"codec_type":"audio","codec_name":"aac","channels":2}`
	}
	payload := fmt.Sprintf(`{"streams":[%s],"format":{"duration":"%.3f","format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`,
		streams, tools.DurationSeconds)
	return fmt.Sprintf("#!/bin/sh\ncat <<'JSON'\n%s\nJSON\n", payload)
}
