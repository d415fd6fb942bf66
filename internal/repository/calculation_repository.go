package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/cgpa-server/internal/repository/models"
)

var ErrNotFound = errors.New("record not found")

type CalculationRepository struct {
	db *sql.DB
}

func NewCalculationRepository(db *sql.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

// CreateUser inserts a new user profile.
func (s *CalculationRepository) CreateUser(ctx context.Context, u models.User) error {
	const query = `
		INSERT INTO users (id, full_name, branch, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.FullName, u.Branch, u.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("exec CreateUser: %w", err)
	}
	return nil
}

// GetUser fetches a user profile by id, returning ErrNotFound when absent.
func (s *CalculationRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, full_name, branch, created_at
		FROM users
		WHERE id = ?
	`

	var (
		u         models.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.FullName, &u.Branch, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query GetUser: %w", err)
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()

	return u, nil
}

// SaveCalculation stores a calculation snapshot.
func (s *CalculationRepository) SaveCalculation(ctx context.Context, c models.Calculation) error {
	const query = `
		INSERT INTO calculations
			(id, user_id, user_name, user_branch, course_data, result, cgpa, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.UserName, c.UserBranch,
		string(c.CourseData), string(c.Result), c.CGPA, c.CalculatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("exec SaveCalculation: %w", err)
	}
	return nil
}

// ListCalculationsByUser returns at most limit snapshots for userID, newest first.
func (s *CalculationRepository) ListCalculationsByUser(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list calculations: invalid limit %d", limit)
	}

	const query = `
		SELECT id, user_id, user_name, user_branch, course_data, result, cgpa, calculated_at
		FROM calculations
		WHERE user_id = ?
		ORDER BY calculated_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ListCalculationsByUser: %w", err)
	}
	defer rows.Close()

	results := make([]models.Calculation, 0, limit)
	for rows.Next() {
		var (
			c            models.Calculation
			calculatedAt int64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.UserName, &c.UserBranch,
			&c.CourseData, &c.Result, &c.CGPA, &calculatedAt); err != nil {
			return nil, fmt.Errorf("scan ListCalculationsByUser row: %w", err)
		}
		c.CalculatedAt = time.Unix(0, calculatedAt).UTC()
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListCalculationsByUser: %w", err)
	}
	return results, nil
}
