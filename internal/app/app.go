package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/cgpa-server/internal/config"
	handler "github.com/godilite/cgpa-server/internal/grpc"
	httpapi "github.com/godilite/cgpa-server/internal/http"
	"github.com/godilite/cgpa-server/internal/repository"
	"github.com/godilite/cgpa-server/internal/service"
	dbbuilder "github.com/godilite/cgpa-server/pkg/database"
	grpcsrv "github.com/godilite/cgpa-server/pkg/grpc/server"
	"github.com/godilite/cgpa-server/pkg/monitoring"
	"github.com/godilite/cgpa-server/pkg/ratelimit"
	"github.com/godilite/cgpa-server/web"
)

const (
	migrateTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	limiter    ratelimit.Limiter
	httpServer *nethttp.Server
	httpLis    net.Listener
	grpcServer *grpcsrv.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbOpts := []dbbuilder.Option{
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	}
	if cfg.DBDriver == "sqlite3" {
		dbOpts = append(dbOpts, dbbuilder.WithMaxOpenConns(1))
	}
	dbPool, err := dbbuilder.New(dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("driver", cfg.DBDriver))

	migrateCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := repository.Migrate(migrateCtx, dbPool, cfg.DBDriver); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("rate limiter init failed: %w", err)
	}
	logger.Info("Rate limiter initialized",
		zap.String("backend", cfg.RateLimit.Backend),
		zap.Int("max_requests", cfg.RateLimit.MaxRequests),
		zap.Duration("window", cfg.RateLimit.Window))

	metrics := monitoring.New()

	calcRepo := repository.NewCalculationRepository(dbPool)
	cgpaService := service.NewCGPAService(calcRepo, logger.Named("cgpa-service"),
		service.WithHistoryLimit(cfg.HistoryLimit),
		service.WithRecorder(metrics),
	)

	router := httpapi.NewRouter(cgpaService, logger,
		httpapi.WithMetrics(metrics),
		httpapi.WithRateLimiter(limiter),
		httpapi.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		httpapi.WithStatic(web.Static()),
		httpapi.WithHealthCheck(dbPool.PingContext),
	)

	httpLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		limiter.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to listen on port %d: %w", cfg.HTTPPort, err)
	}

	a := &App{
		logger:  logger,
		dbPool:  dbPool,
		limiter: limiter,
		httpLis: httpLis,
		httpServer: &nethttp.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
	}

	if cfg.GRPCEnabled {
		grpcServer, err := grpcsrv.New(
			grpcsrv.WithPort(cfg.GRPCPort),
			grpcsrv.WithLogger(logger),
			grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
			grpcsrv.WithLogging(true),
			grpcsrv.WithRecovery(true),
		)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("failed to create gRPC server: %w", err)
		}

		handler.RegisterCGPAServer(grpcServer, handler.NewCGPAHandlers(cgpaService, logger, 0))
		a.grpcServer = grpcServer
	}

	return a, nil
}

func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return ratelimit.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window), nil
	case "redis":
		return ratelimit.NewRedis(ctx,
			ratelimit.WithAddress(cfg.Redis.Addr),
			ratelimit.WithPassword(cfg.Redis.Password),
			ratelimit.WithDB(cfg.Redis.DB),
			ratelimit.WithLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
		)
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}

// HTTPAddr returns the address the HTTP server listens on.
func (a *App) HTTPAddr() net.Addr {
	return a.httpLis.Addr()
}

// GRPCAddr returns the gRPC listening address, or nil when gRPC is disabled.
func (a *App) GRPCAddr() net.Addr {
	if a.grpcServer == nil {
		return nil
	}
	return a.grpcServer.Addr()
}

// Run starts the servers and blocks until ctx is done or either server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting", zap.String("http_addr", a.httpLis.Addr().String()))

	var grpcErr <-chan error
	if a.grpcServer != nil {
		grpcErr = a.grpcServer.Start()
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := a.httpServer.Serve(a.httpLis); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			a.logger.Error("http server failed", zap.Error(err))
			runErr = err
		}
	case err := <-grpcErr:
		if err != nil {
			runErr = fmt.Errorf("gRPC server failed: %w", err)
		}
	}

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", zap.Error(err))
	}
	if a.grpcServer != nil {
		if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("gRPC shutdown error", zap.Error(err))
		}
	}
	a.closeResources()

	if shutdownCtx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return runErr
}

func (a *App) closeResources() {
	_ = a.httpLis.Close()
	if err := a.limiter.Close(); err != nil {
		a.logger.Error("rate limiter shutdown error", zap.Error(err))
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}
}
