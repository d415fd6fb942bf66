// Package http exposes the CGPA service as a JSON API and serves the browser UI.
package http

import (
	"io/fs"
	nethttp "net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godilite/cgpa-server/pkg/monitoring"
	"github.com/godilite/cgpa-server/pkg/ratelimit"
)

type Option func(*options)

type options struct {
	metrics        *monitoring.Metrics
	limiter        ratelimit.Limiter
	allowedOrigins []string
	static         fs.FS
	health         HealthChecker
	timeout        time.Duration
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// WithStatic serves files for unmatched GET requests, falling back to index.html.
func WithStatic(files fs.FS) Option {
	return func(o *options) {
		o.static = files
	}
}

func WithHealthCheck(check HealthChecker) Option {
	return func(o *options) {
		o.health = check
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cgpa CGPAService, logger *zap.Logger, opts ...Option) *gin.Engine {
	if cgpa == nil {
		panic("nil CGPAService provided to NewRouter")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	h := newHandlers(cgpa, logger, o.health, o.timeout)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), Secure(), CORS(o.allowedOrigins))
	if o.metrics != nil {
		router.Use(o.metrics.Middleware())
		router.GET("/metrics", o.metrics.Handler())
	}

	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	if o.limiter != nil {
		api.Use(RateLimit(o.limiter, logger))
	}
	api.POST("/user", h.RegisterUser)
	api.GET("/user/:userId/history", h.GetHistory)
	api.POST("/cgpa", h.Calculate)
	api.GET("/curriculum", h.Curriculum)

	router.NoRoute(staticHandler(o.static))

	return router
}

func staticHandler(files fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if files == nil || (method != nethttp.MethodGet && method != nethttp.MethodHead) ||
			c.Request.URL.Path == "/api" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			abortWithError(c, nethttp.StatusNotFound, "not found")
			return
		}

		name := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if name != "" && name != "index.html" {
			if info, err := fs.Stat(files, name); err == nil && !info.IsDir() {
				nethttp.ServeFileFS(c.Writer, c.Request, files, name)
				return
			}
		}

		index, err := fs.ReadFile(files, "index.html")
		if err != nil {
			abortWithError(c, nethttp.StatusNotFound, "not found")
			return
		}
		c.Data(nethttp.StatusOK, "text/html; charset=utf-8", index)
	}
}
