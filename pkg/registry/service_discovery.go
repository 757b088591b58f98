package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	clientv3 "go.etcd.io/etcd/client/v3"

	"vibe-transcode-service/pkg/config"
)

// ServiceDiscovery lists instances registered under a service name.
type ServiceDiscovery struct {
	client *clientv3.Client
}

// NewServiceDiscovery initialises a discovery client.
func NewServiceDiscovery(cfg config.ServiceRegistryConfig) (*ServiceDiscovery, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ServiceDiscovery{client: client}, nil
}

// ListInstances returns the live instances of serviceName ordered by ID.
func (sd *ServiceDiscovery) ListInstances(ctx context.Context, serviceName string) ([]Instance, error) {
	resp, err := sd.client.Get(ctx, InstanceKey(serviceName, ""), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get service instances: %w", err)
	}
	values := make([][]byte, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		values = append(values, kv.Value)
	}
	return decodeInstances(values), nil
}

// decodeInstances skips values that are not instance JSON, such as bare
// addresses written by older registrations.
func decodeInstances(values [][]byte) []Instance {
	out := make([]Instance, 0, len(values))
	for _, v := range values {
		var inst Instance
		if err := json.Unmarshal(v, &inst); err != nil || inst.ID == "" {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close releases the etcd client.
func (sd *ServiceDiscovery) Close() error {
	return sd.client.Close()
}
