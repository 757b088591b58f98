package grpc

import (
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vibe-transcode-service/pkg/logger"
)

// HealthServer exposes the standard gRPC health service. The named service
// reports SERVING while the job workers are running.
type HealthServer struct {
	server      *grpc.Server
	health      *health.Server
	serviceName string
}

// NewHealthServer creates the gRPC server with only the health service registered.
func NewHealthServer(serviceName string) *HealthServer {
	srv := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	h.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{server: srv, health: h, serviceName: serviceName}
}

// SetServing toggles the status reported for the service and the overall server.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(s.serviceName, status)
	s.health.SetServingStatus("", status)
}

// Serve blocks until the listener fails or the server stops.
func (s *HealthServer) Serve(lis net.Listener) error {
	logger.Infof("gRPC server started address=%s service=%s", lis.Addr(), s.serviceName)
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop marks the service as not serving and drains connections.
func (s *HealthServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
