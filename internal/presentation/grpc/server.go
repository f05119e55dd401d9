package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/tlsutil"
)

// ServerConfig holds the optional features of the gRPC listener.
type ServerConfig struct {
	Address string

	// JWT enables the auth interceptor when set.
	JWT *auth.JWTService

	// TLS is enabled when CertFile and KeyFile are both set. ClientCAFile
	// additionally requires client certificates.
	CertFile     string
	KeyFile      string
	ClientCAFile string

	Reflection bool

	// Ready sets the initial health status.
	Ready bool
}

// Server wraps the gRPC server with credit risk handlers.
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	handler    *CreditRiskHandler
	logger     *slog.Logger
}

// NewServer creates a new gRPC server for the credit risk service.
func NewServer(handler *CreditRiskHandler, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	var serverOpts []grpc.ServerOption

	if cfg.JWT != nil {
		// Health checks stay reachable without a token.
		skip := []string{healthCheckMethod, healthWatchMethod}
		authInterceptor := auth.UnaryAuthInterceptor(cfg.JWT, skip)
		serverOpts = append(serverOpts, grpc.UnaryInterceptor(authInterceptor))
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		creds, err := tlsutil.ServerCredentials(cfg.CertFile, cfg.KeyFile, cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("load gRPC TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.CertFile, "mtls", cfg.ClientCAFile != "")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	RegisterCreditRiskServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	s := &Server{
		address:    cfg.Address,
		grpcServer: grpcServer,
		health:     healthServer,
		handler:    handler,
		logger:     logger,
	}
	s.SetReady(cfg.Ready)
	return s, nil
}

// SetReady flips the health status of the service and of the server as a whole.
func (s *Server) SetReady(ready bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting",
		slog.String("address", listener.Addr().String()),
	)
	return s.grpcServer.Serve(listener)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
