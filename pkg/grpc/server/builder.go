// Package server assembles the gRPC server that fronts the CGPA calculator:
// listener, interceptor chain, reflection and a health service that follows
// every registered service from startup through draining.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const defaultPort = 50051

type Option func(*Options)

type Options struct {
	port              int
	listener          net.Listener
	logger            *zap.Logger
	reflection        bool
	unaryInterceptors []grpc.UnaryServerInterceptor
	enableLogging     bool
	enableRecovery    bool
}

// WithPort sets the listening port. Port 0 picks a free port.
func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

// WithListener serves on lis instead of opening a TCP port.
func WithListener(lis net.Listener) Option {
	return func(o *Options) {
		o.listener = lis
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func WithReflection(enabled bool) Option {
	return func(o *Options) {
		o.reflection = enabled
	}
}

// WithUnaryInterceptors appends interceptors after the recovery and logging ones.
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(o *Options) {
		o.unaryInterceptors = append(o.unaryInterceptors, interceptors...)
	}
}

func WithLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableLogging = enabled
	}
}

// WithRecovery converts handler panics into codes.Internal errors.
func WithRecovery(enabled bool) Option {
	return func(o *Options) {
		o.enableRecovery = enabled
	}
}

// Server is a grpc.ServiceRegistrar. Every service registered through it is
// reported SERVING by the health service until Shutdown begins.
type Server struct {
	grpcServer *grpc.Server
	lis        net.Listener
	logger     *zap.Logger
	health     *health.Server
}

var _ grpc.ServiceRegistrar = (*Server)(nil)

func New(opts ...Option) (*Server, error) {
	o := &Options{
		port:   defaultPort,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	lis := o.listener
	if lis == nil {
		if o.port < 0 || o.port > 65535 {
			return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", o.port)
		}
		var err error
		lis, err = net.Listen("tcp", fmt.Sprintf(":%d", o.port))
		if err != nil {
			return nil, fmt.Errorf("failed to listen on port %d: %w", o.port, err)
		}
	}

	var serverOpts []grpc.ServerOption
	if chain := o.interceptorChain(); len(chain) > 0 {
		serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(chain...))
	}
	grpcServer := grpc.NewServer(serverOpts...)

	if o.reflection {
		reflection.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		grpcServer: grpcServer,
		lis:        lis,
		logger:     o.logger.Named("grpc-server"),
		health:     healthServer,
	}, nil
}

// interceptorChain orders recovery outermost so panics in logging or custom
// interceptors are caught too.
func (o *Options) interceptorChain() []grpc.UnaryServerInterceptor {
	var chain []grpc.UnaryServerInterceptor
	if o.enableRecovery {
		chain = append(chain, RecoveryInterceptor(o.logger))
	}
	if o.enableLogging {
		chain = append(chain, LoggingInterceptor(o.logger))
	}
	return append(chain, o.unaryInterceptors...)
}

// RegisterService registers impl and marks desc.ServiceName SERVING.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl any) {
	s.grpcServer.RegisterService(desc, impl)
	s.health.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("registered service", zap.String("service", desc.ServiceName))
}

// SetServing flips the health status of one registered service, for example
// while its storage is unreachable.
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
	s.logger.Info("service health changed",
		zap.String("service", service),
		zap.String("status", st.String()))
}

// Start serves in the background. The returned channel yields a serve
// failure, if any, and is closed once serving stops.
func (s *Server) Start() <-chan error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("gRPC server starting", zap.String("addr", s.lis.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.grpcServer.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("gRPC server failed", zap.Error(err))
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown reports every service NOT_SERVING, drains in-flight calls and
// forces a stop once ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")

	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("forced shutdown due to timeout")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
