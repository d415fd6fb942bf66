package http

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/service"
)

const (
	defaultRequestTimeout = 10 * time.Second
	healthTimeout         = 2 * time.Second
)

type errorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	cgpa    CGPAService
	logger  *zap.Logger
	health  HealthChecker
	timeout time.Duration
}

func newHandlers(cgpa CGPAService, logger *zap.Logger, health HealthChecker, timeout time.Duration) *Handlers {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Handlers{
		cgpa:    cgpa,
		logger:  logger,
		health:  health,
		timeout: timeout,
	}
}

func abortWithError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}

func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, curriculum.ErrOutOfRange), errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, nethttp.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, nethttp.StatusNotFound, "user not found")
	default:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		abortWithError(c, nethttp.StatusInternalServerError, "internal server error")
	}
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, nethttp.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handlers) RegisterUser(c *gin.Context) {
	var req service.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	profile, err := h.cgpa.RegisterUser(ctx, req)
	if err != nil {
		h.writeError(c, "RegisterUser", err)
		return
	}

	c.JSON(nethttp.StatusOK, profile)
}

func (h *Handlers) GetHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	records, err := h.cgpa.GetHistory(ctx, c.Param("userId"))
	if err != nil {
		h.writeError(c, "GetHistory", err)
		return
	}

	c.JSON(nethttp.StatusOK, records)
}

func (h *Handlers) Calculate(c *gin.Context) {
	var req service.CalculateRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.cgpa.Calculate(ctx, req)
	if err != nil {
		h.writeError(c, "Calculate", err)
		return
	}

	c.JSON(nethttp.StatusOK, result)
}

func (h *Handlers) Curriculum(c *gin.Context) {
	c.JSON(nethttp.StatusOK, h.cgpa.Curriculum())
}

func (h *Handlers) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := h.health(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
}
