package service

import (
	"reflect"
	"testing"

	"vibe-transcode-service/ddd/domain/vo"
)

func TestPlanDownscaleBoundary(t *testing.T) {
	planner := NewTranscodePlanner(0, 0)
	tests := []struct {
		name          string
		width, height int
		want          bool
	}{
		{"exact 1080p", 1920, 1080, false},
		{"one pixel wider", 1921, 1080, true},
		{"one pixel taller", 1920, 1081, true},
		{"4k", 3840, 2160, true},
		{"720p", 1280, 720, false},
		{"portrait 1080x1920", 1080, 1920, true},
		{"unknown resolution", 0, 0, false},
		{"width only", 4000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planner.Plan(vo.MediaProfile{Width: tt.width, Height: tt.height}, nil)
			if plan.ShouldDownscale != tt.want {
				t.Fatalf("ShouldDownscale = %v, want %v", plan.ShouldDownscale, tt.want)
			}
			if tt.want {
				if plan.TargetHeight != 1080 || plan.TargetSize != "?x1080" {
					t.Fatalf("unexpected target %q/%d", plan.TargetSize, plan.TargetHeight)
				}
				if plan.ScaleFilter() != "scale=-2:1080" {
					t.Fatalf("unexpected scale filter %q", plan.ScaleFilter())
				}
			} else if plan.TargetSize != vo.SourceNativeSize || plan.ScaleFilter() != "" {
				t.Fatalf("expected source-native size, got %q %q", plan.TargetSize, plan.ScaleFilter())
			}
		})
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	planner := NewTranscodePlanner(1920, 1080)
	profile := vo.MediaProfile{Width: 3840, Height: 2160, DurationSeconds: 42}
	overlay := &vo.AudioOverlay{Path: "/songs/a.mp3", TrimStart: 3, TrimEnd: 9}

	first := planner.Plan(profile, overlay)
	second := planner.Plan(profile, overlay)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%+v\n%+v", first, second)
	}
	if first.AudioTrim == second.AudioTrim {
		t.Fatalf("plans must not share the trim window pointer")
	}
}

func TestPlanWithoutOverlayKeepsSourceAudio(t *testing.T) {
	plan := NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{Width: 1280, Height: 720}, nil)
	if plan.HasOverlay() || plan.AudioTrim != nil {
		t.Fatalf("plan should not carry an overlay: %+v", plan)
	}
	if got := plan.StreamMapping.Audio.Specifier(); got != "0:a:0?" {
		t.Fatalf("audio specifier = %q", got)
	}
	if got := plan.StreamMapping.Video.Specifier(); got != "0:v:0" {
		t.Fatalf("video specifier = %q", got)
	}
}

func TestPlanOverlayReplacesAudio(t *testing.T) {
	planner := NewTranscodePlanner(0, 0)
	overlay := &vo.AudioOverlay{Path: "/songs/track.mp3", TrimStart: 10, TrimEnd: 25}

	plan := planner.Plan(vo.MediaProfile{Width: 1280, Height: 720, HasAudio: true}, overlay)

	if plan.ShouldDownscale {
		t.Fatalf("720p must not be downscaled")
	}
	if plan.StreamMapping.Audio.Source != vo.StreamSourceOverlay {
		t.Fatalf("audio source = %s, want overlay", plan.StreamMapping.Audio.Source)
	}
	if got := plan.StreamMapping.Audio.Specifier(); got != "1:a:0" {
		t.Fatalf("audio specifier = %q", got)
	}
	if plan.AudioTrim == nil || plan.AudioTrim.Start != 10 || plan.AudioTrim.End != 25 {
		t.Fatalf("trim window = %+v, want 10..25", plan.AudioTrim)
	}
	if plan.OverlayPath != overlay.Path {
		t.Fatalf("overlay path = %q", plan.OverlayPath)
	}
}

func TestPlanOverlayWithoutEndStillReplacesAudio(t *testing.T) {
	overlay := &vo.AudioOverlay{Path: "/songs/short.mp3"}
	plan := NewTranscodePlanner(0, 0).Plan(vo.MediaProfile{}, overlay)
	if plan.StreamMapping.Audio.Source != vo.StreamSourceOverlay {
		t.Fatalf("audio must come from the overlay")
	}
	if plan.AudioTrim.Bounded() {
		t.Fatalf("0..0 window must be unbounded")
	}
}
