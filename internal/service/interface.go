package service

import (
	"context"

	"github.com/godilite/cgpa-server/internal/repository/models"
)

// CalculationRepository defines the storage operations the service needs.
type CalculationRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	SaveCalculation(ctx context.Context, c models.Calculation) error
	ListCalculationsByUser(ctx context.Context, userID string, limit int) ([]models.Calculation, error)
}

// CalculationRecorder receives one outcome label per calculation.
type CalculationRecorder interface {
	ObserveCalculation(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCalculation(string) {}
