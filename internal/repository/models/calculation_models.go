package models

import "time"

type User struct {
	ID        string
	FullName  string
	Branch    string
	CreatedAt time.Time
}

// Calculation is an immutable snapshot of one CGPA computation.
// CourseData and Result hold JSON documents.
type Calculation struct {
	ID           string
	UserID       string
	UserName     string
	UserBranch   string
	CourseData   []byte
	Result       []byte
	CGPA         float64
	CalculatedAt time.Time
}
