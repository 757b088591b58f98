package status

import (
	"context"
	"strconv"
	"testing"
	"time"

	"vibe-transcode-service/ddd/domain/repo"
	"vibe-transcode-service/ddd/domain/vo"
)

func TestMemoryStatusRepository(t *testing.T) {
	r := NewMemoryStatusRepository()
	ctx := context.Background()

	if rec, err := r.GetStatus(ctx, "vibe_1"); rec != nil || err != nil {
		t.Fatalf("unknown job = %v, %v", rec, err)
	}

	_ = r.SaveStatus(ctx, &repo.JobStatusRecord{FolderName: "vibe_1", Status: vo.JobStatusEncoding})
	_ = r.UpdateProgress(ctx, "vibe_1", 42)
	rec, _ := r.GetStatus(ctx, "vibe_1")
	if rec.Status != vo.JobStatusEncoding || rec.Progress != 42 {
		t.Fatalf("unexpected record %+v", rec)
	}

	_ = r.SaveStatus(ctx, &repo.JobStatusRecord{FolderName: "vibe_1", Status: vo.JobStatusFailed, ErrorMessage: "boom"})
	_ = r.UpdateProgress(ctx, "vibe_1", 90)
	rec, _ = r.GetStatus(ctx, "vibe_1")
	if rec.Status != vo.JobStatusFailed || rec.Progress == 90 || rec.ErrorMessage != "boom" {
		t.Fatalf("terminal record must not take progress updates: %+v", rec)
	}
}

func TestRedisHashRoundTrip(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &repo.JobStatusRecord{FolderName: "vibe_7", Status: vo.JobStatusCompleted, Progress: 100, UpdatedAt: updated}

	values := map[string]string{}
	for k, v := range toHash(in) {
		switch val := v.(type) {
		case string:
			values[k] = val
		case int:
			values[k] = strconv.Itoa(val)
		}
	}
	out := fromHash("vibe_7", values)
	if out == nil || out.Status != vo.JobStatusCompleted || out.Progress != 100 || !out.UpdatedAt.Equal(updated) {
		t.Fatalf("unexpected record %+v", out)
	}
}

func TestRedisFromHashRejectsGarbage(t *testing.T) {
	if rec := fromHash("vibe_8", map[string]string{}); rec != nil {
		t.Fatalf("empty hash should be nil")
	}
	if rec := fromHash("vibe_8", map[string]string{"status": "exploded"}); rec != nil {
		t.Fatalf("unknown status should be nil")
	}
}
