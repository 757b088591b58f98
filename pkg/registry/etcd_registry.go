package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"vibe-transcode-service/pkg/config"
	"vibe-transcode-service/pkg/logger"
)

const keyRoot = "/services"

// Instance 注册到 etcd 的服务实例信息
type Instance struct {
	ID           string    `json:"id"`
	Service      string    `json:"service"`
	HTTPAddr     string    `json:"http_addr"`
	GRPCAddr     string    `json:"grpc_addr,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ServiceRegistry registers the running instance into etcd under a lease.
type ServiceRegistry struct {
	client   *clientv3.Client
	instance Instance
	ttl      int64
	retry    time.Duration

	mu      sync.Mutex
	leaseID clientv3.LeaseID
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient 根据注册中心配置创建 etcd 客户端
func NewClient(cfg config.ServiceRegistryConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// NewServiceRegistry creates a registry for this process. ServiceID defaults
// to <hostname>-<pid>.
func NewServiceRegistry(cfg config.ServiceRegistryConfig, httpAddr, grpcAddr string) (*ServiceRegistry, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(cfg.ServiceID)
	if id == "" {
		host, _ := os.Hostname()
		id = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	ttl := int64(cfg.TTL.Seconds())
	if ttl < 5 {
		ttl = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client: client,
		instance: Instance{
			ID:       id,
			Service:  cfg.ServiceName,
			HTTPAddr: httpAddr,
			GRPCAddr: grpcAddr,
		},
		ttl:    ttl,
		retry:  cfg.RefreshInterval,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// InstanceKey returns the etcd key for an instance.
func InstanceKey(serviceName, id string) string {
	return fmt.Sprintf("%s/%s/%s", keyRoot, serviceName, id)
}

// Register puts the instance under a fresh lease and keeps it alive in the
// background, re-registering when the lease is lost.
func (r *ServiceRegistry) Register() error {
	if err := r.putWithLease(r.ctx); err != nil {
		return err
	}
	go r.keepAlive()
	logger.Infof("service registered key=%s http=%s", InstanceKey(r.instance.Service, r.instance.ID), r.instance.HTTPAddr)
	return nil
}

func (r *ServiceRegistry) putWithLease(ctx context.Context) error {
	lease, err := r.client.Grant(ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	inst := r.instance
	inst.RegisteredAt = time.Now().UTC()
	value, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	if _, err := r.client.Put(ctx, InstanceKey(inst.Service, inst.ID), string(value), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	r.mu.Lock()
	r.leaseID = lease.ID
	r.mu.Unlock()
	return nil
}

func (r *ServiceRegistry) keepAlive() {
	defer close(r.done)
	for {
		r.mu.Lock()
		leaseID := r.leaseID
		r.mu.Unlock()

		ch, err := r.client.KeepAlive(r.ctx, leaseID)
		if err == nil {
			for range ch {
			}
		}
		if r.ctx.Err() != nil {
			return
		}
		logger.Warnf("registry lease lost id=%s, re-registering", r.instance.ID)

		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.retry):
		}
		if err := r.putWithLease(r.ctx); err != nil {
			logger.Warnf("re-register failed id=%s error=%v", r.instance.ID, err)
		}
	}
}

// Deregister revokes the lease and closes the client.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	r.mu.Lock()
	leaseID := r.leaseID
	r.mu.Unlock()
	if leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if _, err := r.client.Revoke(ctx, leaseID); err != nil {
			logger.Warnf("failed to revoke lease error=%v", err)
		}
		cancel()
		<-r.done
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("service deregistered id=%s", r.instance.ID)
	return nil
}
