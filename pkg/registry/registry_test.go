package registry

import "testing"

func TestInstanceKey(t *testing.T) {
	if got := InstanceKey("vibe-transcode-service", "node-1"); got != "/services/vibe-transcode-service/node-1" {
		t.Fatalf("InstanceKey = %s", got)
	}
	if got := InstanceKey("vibe", ""); got != "/services/vibe/" {
		t.Fatalf("prefix key = %s", got)
	}
}

func TestDecodeInstancesSkipsForeignValues(t *testing.T) {
	values := [][]byte{
		[]byte(`{"id":"b","service":"vibe","http_addr":"10.0.0.2:4455"}`),
		[]byte(`10.0.0.9:8083`),
		[]byte(`{"id":"a","service":"vibe","http_addr":"10.0.0.1:4455"}`),
		[]byte(`{"service":"vibe"}`),
	}
	got := decodeInstances(values)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected instances %+v", got)
	}
}
