package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/service"
)

const defaultGRPCTimeout = 10 * time.Second

type historyRequest struct {
	UserID string `json:"userId"`
}

type historyResponse struct {
	History []service.CalculationRecord `json:"history"`
}

type CGPAHandlers struct {
	cgpa    CGPAService
	logger  *zap.Logger
	timeout time.Duration
}

// NewCGPAHandlers initializes the gRPC handlers.
func NewCGPAHandlers(cgpa CGPAService, logger *zap.Logger, timeout time.Duration) *CGPAHandlers {
	if cgpa == nil {
		panic("nil CGPAService provided to NewCGPAHandlers")
	}
	if timeout <= 0 {
		timeout = defaultGRPCTimeout
	}
	return &CGPAHandlers{
		cgpa:    cgpa,
		logger:  logger.Named("grpc-handler"),
		timeout: timeout,
	}
}

func decodeStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *CGPAHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, curriculum.ErrOutOfRange), errors.Is(err, service.ErrInvalidInput):
		s.logger.Info("invalid argument", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		s.logger.Info("user not found", zap.String("op", op))
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *CGPAHandlers) Calculate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.CalculateRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.cgpa.Calculate(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, "Calculate", err)
	}

	return encodeStruct(result)
}

func (s *CGPAHandlers) RegisterUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.RegisterUserRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.cgpa.RegisterUser(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, "RegisterUser", err)
	}

	return encodeStruct(profile)
}

func (s *CGPAHandlers) GetHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req historyRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.cgpa.GetHistory(ctx, req.UserID)
	if err != nil {
		return nil, s.handleError(ctx, "GetHistory", err)
	}

	return encodeStruct(historyResponse{History: records})
}
