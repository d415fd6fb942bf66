package mocks

import (
	"context"
	"errors"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/service"
)

// MockCGPAService is a mock implementation of the CGPAService interface
// for testing the gRPC and HTTP layers. It uses function-based mocking for flexibility.
type MockCGPAService struct {
	CalculateFunc    func(ctx context.Context, req service.CalculateRequest) (curriculum.Result, error)
	RegisterUserFunc func(ctx context.Context, req service.RegisterUserRequest) (service.UserProfile, error)
	GetHistoryFunc   func(ctx context.Context, userID string) ([]service.CalculationRecord, error)
	CurriculumFunc   func() curriculum.Curriculum
}

// Calculate implements the CGPAService interface
func (m *MockCGPAService) Calculate(ctx context.Context, req service.CalculateRequest) (curriculum.Result, error) {
	if m.CalculateFunc != nil {
		return m.CalculateFunc(ctx, req)
	}
	return curriculum.Result{}, errors.New("CalculateFunc not implemented")
}

// RegisterUser implements the CGPAService interface
func (m *MockCGPAService) RegisterUser(ctx context.Context, req service.RegisterUserRequest) (service.UserProfile, error) {
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(ctx, req)
	}
	return service.UserProfile{}, errors.New("RegisterUserFunc not implemented")
}

// GetHistory implements the CGPAService interface
func (m *MockCGPAService) GetHistory(ctx context.Context, userID string) ([]service.CalculationRecord, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, userID)
	}
	return nil, errors.New("GetHistoryFunc not implemented")
}

// Curriculum returns CurriculumFunc's result, or the first-year curriculum when unset.
func (m *MockCGPAService) Curriculum() curriculum.Curriculum {
	if m.CurriculumFunc != nil {
		return m.CurriculumFunc()
	}
	return curriculum.FirstYear.Describe()
}
