package service

import (
	"time"

	"github.com/godilite/cgpa-server/internal/curriculum"
)

// CalculateRequest carries the marks to score and, optionally, the user the
// result should be stored for.
type CalculateRequest struct {
	UserID     string           `json:"userId"`
	UserName   string           `json:"userName"`
	UserBranch string           `json:"userBranch"`
	CourseData curriculum.Input `json:"courseData"`
}

type RegisterUserRequest struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Branch   string `json:"branch" validate:"required,oneof=CSE ECE ME CE BT CHE CH EE EP ICDT Other"`
}

type UserProfile struct {
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"createdAt"`
}

type CalculationRecord struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	UserName     string            `json:"userName"`
	UserBranch   string            `json:"userBranch"`
	CourseData   curriculum.Input  `json:"courseData"`
	Result       curriculum.Result `json:"result"`
	CalculatedAt time.Time         `json:"calculatedAt"`
}
