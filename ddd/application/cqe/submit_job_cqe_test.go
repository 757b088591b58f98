package cqe

import (
	"errors"
	"testing"

	"vibe-transcode-service/pkg/errno"
)

func TestSubmitJobCqeValidate(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitJobCqe
		want error
	}{
		{"missing video", SubmitJobCqe{OverlayPath: "songs/a.mp3"}, errno.ErrMissingInput},
		{"blank video", SubmitJobCqe{VideoPath: "  "}, errno.ErrMissingInput},
		{"negative trim", SubmitJobCqe{VideoPath: "/tmp/u", TrimStart: -1}, errno.ErrInvalidParam},
		{"video only", SubmitJobCqe{VideoPath: "/tmp/u"}, nil},
		{"with overlay", SubmitJobCqe{VideoPath: "/tmp/u", OverlayPath: "songs/a.mp3", TrimStart: 10, TrimEnd: 25}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
