package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"daily-habits-tracker/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the server-wide ""
const ServiceName = "habits"

// Server exposes grpc.health.v1 and reflection
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	port         int
}

// NewServer creates a new gRPC server. It reports NOT_SERVING until
// SetServing(true) is called.
func NewServer(port int) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	s := &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		port:         port,
	}
	s.SetServing(false)

	return s
}

// SetServing flips the health status of the server and the habits service
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}

	s.healthServer.SetServingStatus("", status)
	s.healthServer.SetServingStatus(ServiceName, status)
}

// Start listens on the configured port and serves until Stop
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	logger.Info("gRPC server listening", "port", s.port)
	return s.Serve(listener)
}

// Serve serves on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING and gracefully stops the gRPC server
func (s *Server) Stop() {
	logger.Info("gracefully stopping gRPC server")
	s.healthServer.Shutdown()
	s.grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		logger.Warn("grpc call failed", "method", info.FullMethod, "error", err, "took", time.Since(start))
	} else {
		logger.Debug("grpc call", "method", info.FullMethod, "took", time.Since(start))
	}
	return resp, err
}
