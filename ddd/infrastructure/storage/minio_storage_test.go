package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCollectObjects(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"index.m3u8":    "#EXTM3U",
		"index0.ts":     "seg",
		"thumbnail.jpg": "jpg",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	objects, err := collectObjects(dir, "processed/vibe_1")
	if err != nil {
		t.Fatalf("collectObjects: %v", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ObjectKey < objects[j].ObjectKey })

	want := []struct{ key, ct string }{
		{"processed/vibe_1/index.m3u8", "application/vnd.apple.mpegurl"},
		{"processed/vibe_1/index0.ts", "video/mp2t"},
		{"processed/vibe_1/thumbnail.jpg", "image/jpeg"},
	}
	if len(objects) != len(want) {
		t.Fatalf("got %d objects, want %d", len(objects), len(want))
	}
	for i, w := range want {
		if objects[i].ObjectKey != w.key || objects[i].ContentType != w.ct {
			t.Fatalf("object %d = %+v, want %s (%s)", i, objects[i], w.key, w.ct)
		}
	}
}

func TestCollectObjectsMissingDir(t *testing.T) {
	if _, err := collectObjects(filepath.Join(t.TempDir(), "missing"), "p"); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
