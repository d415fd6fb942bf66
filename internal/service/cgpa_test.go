package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/repository"
	"github.com/godilite/cgpa-server/internal/repository/models"
	"github.com/godilite/cgpa-server/internal/service/mocks"
	"github.com/godilite/cgpa-server/pkg/monitoring"
)

const testUserID = "3f2b8c1e-9d4a-4e6b-8f0a-1c2d3e4f5a6b"

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingRecorder) ObserveCalculation(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func courseInput(kv map[string]float64) curriculum.CourseInput {
	m := make(map[string]curriculum.Mark, len(kv))
	for k, v := range kv {
		m[k] = curriculum.Mark(v)
	}
	return curriculum.CourseInput{Marks: m}
}

var fixedNow = time.Date(2025, 10, 19, 8, 30, 0, 0, time.UTC)

// TestNewCGPAService tests the constructor
func TestNewCGPAService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{}
		logger := zap.NewNop()

		service := NewCGPAService(mockRepo, logger)

		assert.NotNil(t, service)
		assert.Equal(t, mockRepo, service.storage)
		assert.Equal(t, logger, service.logger)
		assert.Equal(t, defaultHistoryLimit, service.historyLimit)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewCGPAService(nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		service := NewCGPAService(&mocks.MockCalculationRepository{}, nil)

		assert.NotNil(t, service.logger)
	})

	t.Run("options", func(t *testing.T) {
		rec := &recordingRecorder{}
		service := NewCGPAService(&mocks.MockCalculationRepository{}, zap.NewNop(),
			WithHistoryLimit(3),
			WithHistoryLimit(0),
			WithRecorder(rec),
			WithClock(func() time.Time { return fixedNow }),
		)

		assert.Equal(t, 3, service.historyLimit)
		assert.Equal(t, rec, service.recorder)
		assert.Equal(t, fixedNow, service.now())
	})
}

// TestCalculate tests scoring with and without persistence
func TestCalculate(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("anonymous calculation does not touch storage", func(t *testing.T) {
		rec := &recordingRecorder{}
		service := NewCGPAService(&mocks.MockCalculationRepository{}, logger, WithRecorder(rec))

		result, err := service.Calculate(ctx, CalculateRequest{
			CourseData: curriculum.Input{"nso": courseInput(map[string]float64{"grade": 10})},
		})

		assert.NoError(t, err)
		assert.Equal(t, 18.5, result.TotalCredits)
		assert.Equal(t, 10.0, result.TotalGradePoints)
		assert.Equal(t, []string{monitoring.OutcomeSuccess}, rec.outcomes)
	})

	t.Run("nil course data scores as empty", func(t *testing.T) {
		service := NewCGPAService(&mocks.MockCalculationRepository{}, logger)

		result, err := service.Calculate(ctx, CalculateRequest{})

		assert.NoError(t, err)
		assert.Equal(t, 0.0, result.CGPA)
		assert.Len(t, result.Courses, 8)
	})

	t.Run("out of range marks", func(t *testing.T) {
		rec := &recordingRecorder{}
		saved := false
		mockRepo := &mocks.MockCalculationRepository{
			SaveCalculationFunc: func(ctx context.Context, c models.Calculation) error {
				saved = true
				return nil
			},
		}
		service := NewCGPAService(mockRepo, logger, WithRecorder(rec))

		result, err := service.Calculate(ctx, CalculateRequest{
			UserID:     testUserID,
			CourseData: curriculum.Input{"ph102": courseInput(map[string]float64{"grade": 12})},
		})

		assert.ErrorIs(t, err, curriculum.ErrOutOfRange)
		assert.EqualError(t, err, "PH102 grade cannot exceed 10")
		assert.Equal(t, curriculum.Result{}, result)
		assert.False(t, saved)
		assert.Equal(t, []string{monitoring.OutcomeOutOfRange}, rec.outcomes)
	})

	t.Run("stores snapshot for known user", func(t *testing.T) {
		var stored models.Calculation
		mockRepo := &mocks.MockCalculationRepository{
			GetUserFunc: func(ctx context.Context, id string) (models.User, error) {
				assert.Equal(t, testUserID, id)
				return models.User{ID: id, FullName: "Asha Rao", Branch: "ECE"}, nil
			},
			SaveCalculationFunc: func(ctx context.Context, c models.Calculation) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				stored = c
				return nil
			},
		}
		service := NewCGPAService(mockRepo, logger, WithClock(func() time.Time { return fixedNow }))
		service.newID = func() string { return "calc-1" }

		hum := courseInput(map[string]float64{"ta": 30, "mid": 30, "end": 22})
		hum.Type = "HS103"

		result, err := service.Calculate(ctx, CalculateRequest{
			UserID:     testUserID,
			UserBranch: "CSE",
			CourseData: curriculum.Input{"humanities": hum},
		})

		require.NoError(t, err)
		assert.Equal(t, 30.0, result.TotalGradePoints)

		assert.Equal(t, "calc-1", stored.ID)
		assert.Equal(t, testUserID, stored.UserID)
		assert.Equal(t, "Asha Rao", stored.UserName, "falls back to the profile name")
		assert.Equal(t, "CSE", stored.UserBranch, "request branch wins")
		assert.Equal(t, fixedNow, stored.CalculatedAt)
		assert.Equal(t, result.CGPA, stored.CGPA)
		assert.JSONEq(t, `{"humanities":{"type":"HS103","ta":30,"mid":30,"end":22}}`, string(stored.CourseData))

		var decoded curriculum.Result
		require.NoError(t, json.Unmarshal(stored.Result, &decoded))
		assert.Equal(t, result.CGPA, decoded.CGPA)
		assert.Contains(t, decoded.Courses, "HS103")
	})

	t.Run("snapshot keeps marks as submitted", func(t *testing.T) {
		var stored models.Calculation
		mockRepo := &mocks.MockCalculationRepository{
			GetUserFunc: func(ctx context.Context, id string) (models.User, error) {
				return models.User{ID: id, FullName: "Asha Rao", Branch: "ECE"}, nil
			},
			SaveCalculationFunc: func(ctx context.Context, c models.Calculation) error {
				stored = c
				return nil
			},
		}
		service := NewCGPAService(mockRepo, logger)

		var req CalculateRequest
		courseData := `{"ma101":{"q1":"7","q2":"abc"}}`
		require.NoError(t, json.Unmarshal([]byte(`{"userId":"`+testUserID+`","courseData":`+courseData+`}`), &req))

		_, err := service.Calculate(ctx, req)

		require.NoError(t, err)
		assert.JSONEq(t, courseData, string(stored.CourseData))
	})

	t.Run("invalid user id", func(t *testing.T) {
		service := NewCGPAService(&mocks.MockCalculationRepository{}, logger)

		_, err := service.Calculate(ctx, CalculateRequest{UserID: "42"})

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "userId must be a valid UUID")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := &recordingRecorder{}
		mockRepo := &mocks.MockCalculationRepository{
			GetUserFunc: func(ctx context.Context, id string) (models.User, error) {
				return models.User{}, repository.ErrNotFound
			},
		}
		service := NewCGPAService(mockRepo, logger, WithRecorder(rec))

		_, err := service.Calculate(ctx, CalculateRequest{UserID: testUserID})

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, []string{monitoring.OutcomeError}, rec.outcomes)
	})

	t.Run("user lookup failure", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			GetUserFunc: func(ctx context.Context, id string) (models.User, error) {
				return models.User{}, errors.New("database is locked")
			},
		}
		service := NewCGPAService(mockRepo, logger)

		_, err := service.Calculate(ctx, CalculateRequest{UserID: testUserID})

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database is locked")
	})

	t.Run("save failure", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			GetUserFunc: func(ctx context.Context, id string) (models.User, error) {
				return models.User{ID: id}, nil
			},
			SaveCalculationFunc: func(ctx context.Context, c models.Calculation) error {
				return errors.New("disk full")
			},
		}
		service := NewCGPAService(mockRepo, logger)

		result, err := service.Calculate(ctx, CalculateRequest{UserID: testUserID})

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, curriculum.Result{}, result)
	})
}

// TestRegisterUser tests profile validation and creation
func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("valid profile", func(t *testing.T) {
		var created models.User
		mockRepo := &mocks.MockCalculationRepository{
			CreateUserFunc: func(ctx context.Context, u models.User) error {
				created = u
				return nil
			},
		}
		service := NewCGPAService(mockRepo, logger, WithClock(func() time.Time { return fixedNow }))
		service.newID = func() string { return testUserID }

		profile, err := service.RegisterUser(ctx, RegisterUserRequest{FullName: "  Asha Rao ", Branch: "ICDT"})

		require.NoError(t, err)
		assert.Equal(t, UserProfile{UserID: testUserID, FullName: "Asha Rao", Branch: "ICDT", CreatedAt: fixedNow}, profile)
		assert.Equal(t, "Asha Rao", created.FullName)
		assert.Equal(t, fixedNow, created.CreatedAt)
	})

	t.Run("generated ids are UUIDs", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			CreateUserFunc: func(ctx context.Context, u models.User) error { return nil },
		}
		service := NewCGPAService(mockRepo, logger)

		profile, err := service.RegisterUser(ctx, RegisterUserRequest{FullName: "Ravi", Branch: "Other"})

		require.NoError(t, err)
		_, err = parseUserID(profile.UserID)
		assert.NoError(t, err)
	})

	cases := []struct {
		name    string
		req     RegisterUserRequest
		message string
	}{
		{"missing name", RegisterUserRequest{FullName: "   ", Branch: "CSE"}, "fullName is required"},
		{"missing branch", RegisterUserRequest{FullName: "Asha"}, "branch is required"},
		{"unknown branch", RegisterUserRequest{FullName: "Asha", Branch: "cse"}, "branch must be one of: CSE, ECE, ME, CE, BT, CHE, CH, EE, EP, ICDT, Other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := NewCGPAService(&mocks.MockCalculationRepository{}, logger)

			_, err := service.RegisterUser(ctx, tc.req)

			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.message)
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			CreateUserFunc: func(ctx context.Context, u models.User) error {
				return errors.New("constraint failed")
			},
		}
		service := NewCGPAService(mockRepo, logger)

		_, err := service.RegisterUser(ctx, RegisterUserRequest{FullName: "Asha", Branch: "ME"})

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

// TestGetHistory tests history retrieval
func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("decodes snapshots", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				assert.Equal(t, testUserID, userID)
				assert.Equal(t, 4, limit)
				return []models.Calculation{
					{
						ID:           "c2",
						UserID:       userID,
						UserName:     "Asha",
						UserBranch:   "CSE",
						CourseData:   []byte(`{"nso":{"grade":9}}`),
						Result:       []byte(`{"courses":{"NSO":{"gradePoint":9,"credits":1}},"totalCredits":18.5,"totalGradePoints":9,"cgpa":0.4864864864864865}`),
						CalculatedAt: fixedNow,
					},
				}, nil
			},
		}
		service := NewCGPAService(mockRepo, logger, WithHistoryLimit(4))

		records, err := service.GetHistory(ctx, testUserID)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "c2", records[0].ID)
		assert.Equal(t, 9.0, records[0].CourseData["nso"].Value("grade"))
		assert.Equal(t, 9.0, records[0].Result.Courses["NSO"].GradePoint)
		assert.Equal(t, 18.5, records[0].Result.TotalCredits)
		assert.Equal(t, fixedNow, records[0].CalculatedAt)
	})

	t.Run("unknown user has empty history", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				return nil, nil
			},
		}
		service := NewCGPAService(mockRepo, logger)

		records, err := service.GetHistory(ctx, testUserID)

		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("invalid user id", func(t *testing.T) {
		service := NewCGPAService(&mocks.MockCalculationRepository{}, logger)

		records, err := service.GetHistory(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, records)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				return nil, errors.New("query timeout")
			},
		}
		service := NewCGPAService(mockRepo, logger)

		records, err := service.GetHistory(ctx, testUserID)

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "query timeout")
		assert.Nil(t, records)
	})

	t.Run("corrupt snapshot", func(t *testing.T) {
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				return []models.Calculation{{ID: "bad", CourseData: []byte(`{}`), Result: []byte(`{`)}}, nil
			},
		}
		service := NewCGPAService(mockRepo, logger)

		_, err := service.GetHistory(ctx, testUserID)

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "decode result of bad")
	})

	t.Run("concurrent reads share one query", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				calls.Add(1)
				<-release
				return nil, nil
			},
		}
		service := NewCGPAService(mockRepo, logger)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.GetHistory(ctx, testUserID)
				assert.NoError(t, err)
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.LessOrEqual(t, calls.Load(), int32(5))
		assert.GreaterOrEqual(t, calls.Load(), int32(1))
	})

	t.Run("cancelled caller does not fail shared read", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		mockRepo := &mocks.MockCalculationRepository{
			ListCalculationsByUserFunc: func(ctx context.Context, userID string, limit int) ([]models.Calculation, error) {
				close(started)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-release:
				}
				return []models.Calculation{{
					ID:         "c1",
					UserID:     userID,
					CourseData: []byte(`{}`),
					Result:     []byte(`{"totalCredits":18.5}`),
				}}, nil
			},
		}
		service := NewCGPAService(mockRepo, logger)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := service.GetHistory(ctxA, testUserID)
			errA <- err
		}()
		<-started

		type outcome struct {
			records []CalculationRecord
			err     error
		}
		resB := make(chan outcome, 1)
		go func() {
			records, err := service.GetHistory(context.Background(), testUserID)
			resB <- outcome{records, err}
		}()

		time.Sleep(20 * time.Millisecond)
		cancelA()
		assert.ErrorIs(t, <-errA, context.Canceled)

		close(release)
		b := <-resB
		require.NoError(t, b.err)
		require.Len(t, b.records, 1)
		assert.Equal(t, "c1", b.records[0].ID)
	})
}

func TestCurriculum(t *testing.T) {
	service := NewCGPAService(&mocks.MockCalculationRepository{}, zap.NewNop())

	desc := service.Curriculum()

	require.Len(t, desc, 8)
	assert.Equal(t, "humanities", desc[5].Key)
	assert.Len(t, desc[5].Schemes, 2)
}
