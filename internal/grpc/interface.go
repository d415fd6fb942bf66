package grpc

import (
	"context"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/service"
)

type CGPAService interface {
	Calculate(ctx context.Context, req service.CalculateRequest) (curriculum.Result, error)
	RegisterUser(ctx context.Context, req service.RegisterUserRequest) (service.UserProfile, error)
	GetHistory(ctx context.Context, userID string) ([]service.CalculationRecord, error)
}
