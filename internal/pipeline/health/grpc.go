package health

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vietddude/recipefetch/internal/pipeline/fetch"
)

// ServiceName is the gRPC health service name reported for the fetch pipeline.
const ServiceName = "recipefetch.v1.RecipeFeed"

// GRPCServer serves the standard grpc.health.v1.Health service.
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
	addr   string
}

// NewGRPCServer creates a gRPC health server. The feed starts NOT_SERVING
// until the first successful fetch.
func NewGRPCServer(port int) *GRPCServer {
	hs := grpchealth.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		server: srv,
		health: hs,
		addr:   fmt.Sprintf(":%d", port),
	}
}

// SetServing updates the feed's serving status.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
}

// RecordFetch flips the serving status on fetch outcomes.
func (s *GRPCServer) RecordFetch(ev fetch.Event) {
	switch ev.Type {
	case fetch.EventSucceeded:
		s.SetServing(true)
	case fetch.EventFailed:
		s.SetServing(false)
	}
}

// Start listens and serves until Stop is called.
func (s *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and stops gracefully.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
