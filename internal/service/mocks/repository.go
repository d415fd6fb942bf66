package mocks

import (
	"context"
	"errors"

	"github.com/godilite/cgpa-server/internal/repository/models"
)

// MockCalculationRepository is a mock implementation of the CalculationRepository interface
// for testing the service layer.
type MockCalculationRepository struct {
	CreateUserFunc             func(ctx context.Context, u models.User) error
	GetUserFunc                func(ctx context.Context, id string) (models.User, error)
	SaveCalculationFunc        func(ctx context.Context, c models.Calculation) error
	ListCalculationsByUserFunc func(ctx context.Context, userID string, limit int) ([]models.Calculation, error)
}

// CreateUser implements the CalculationRepository interface
func (m *MockCalculationRepository) CreateUser(ctx context.Context, u models.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, u)
	}
	return errors.New("CreateUserFunc not implemented")
}

// GetUser implements the CalculationRepository interface
func (m *MockCalculationRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return models.User{}, errors.New("GetUserFunc not implemented")
}

// SaveCalculation implements the CalculationRepository interface
func (m *MockCalculationRepository) SaveCalculation(ctx context.Context, c models.Calculation) error {
	if m.SaveCalculationFunc != nil {
		return m.SaveCalculationFunc(ctx, c)
	}
	return errors.New("SaveCalculationFunc not implemented")
}

// ListCalculationsByUser implements the CalculationRepository interface
func (m *MockCalculationRepository) ListCalculationsByUser(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
	if m.ListCalculationsByUserFunc != nil {
		return m.ListCalculationsByUserFunc(ctx, userID, limit)
	}
	return nil, errors.New("ListCalculationsByUserFunc not implemented")
}
