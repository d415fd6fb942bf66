package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/cgpa-server/internal/curriculum"
	"github.com/godilite/cgpa-server/internal/repository"
	"github.com/godilite/cgpa-server/internal/repository/models"
	"github.com/godilite/cgpa-server/pkg/monitoring"
)

const (
	dbTimeout           = 2 * time.Second
	defaultHistoryLimit = 10
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUserNotFound   = errors.New("user not found")
	ErrStorageFailure = errors.New("storage failure")
)

// CGPAService scores course marks and manages user profiles and their
// calculation history.
type CGPAService struct {
	storage      CalculationRepository
	logger       *zap.Logger
	recorder     CalculationRecorder
	validate     *validator.Validate
	historyLimit int
	now          func() time.Time
	newID        func() string
	sfGroup      singleflight.Group
}

type Option func(*CGPAService)

// WithHistoryLimit bounds how many snapshots GetHistory returns.
func WithHistoryLimit(n int) Option {
	return func(s *CGPAService) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

func WithRecorder(r CalculationRecorder) Option {
	return func(s *CGPAService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CGPAService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCGPAService creates a new CGPAService instance.
func NewCGPAService(storage CalculationRepository, logger *zap.Logger, opts ...Option) *CGPAService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}

	s := &CGPAService{
		storage:      storage,
		logger:       logger,
		recorder:     nopRecorder{},
		validate:     newValidator(),
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Curriculum describes the courses, fields and grade tables used for scoring.
func (s *CGPAService) Curriculum() curriculum.Curriculum {
	return curriculum.FirstYear.Describe()
}

// Calculate scores req.CourseData. An out-of-range mark is returned as the
// *curriculum.OutOfRangeError itself. When req.UserID is set the result is
// stored as a snapshot for that user before it is returned.
func (s *CGPAService) Calculate(ctx context.Context, req CalculateRequest) (curriculum.Result, error) {
	if req.CourseData == nil {
		req.CourseData = curriculum.Input{}
	}

	result, err := curriculum.Calculate(req.CourseData)
	if err != nil {
		s.recorder.ObserveCalculation(monitoring.OutcomeOutOfRange)
		s.logger.Info("marks rejected", zap.Error(err))
		return curriculum.Result{}, err
	}

	if req.UserID != "" {
		if err := s.saveSnapshot(ctx, req, result); err != nil {
			s.recorder.ObserveCalculation(monitoring.OutcomeError)
			return curriculum.Result{}, err
		}
	}

	s.recorder.ObserveCalculation(monitoring.OutcomeSuccess)
	s.logger.Debug("cgpa calculated",
		zap.Float64("cgpa", result.CGPA),
		zap.Bool("stored", req.UserID != ""))

	return result, nil
}

func (s *CGPAService) saveSnapshot(ctx context.Context, req CalculateRequest, result curriculum.Result) error {
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	user, err := s.storage.GetUser(dbCtx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	courseData, err := json.Marshal(req.CourseData)
	if err != nil {
		return fmt.Errorf("encode course data: %w", err)
	}
	resultData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	snapshot := models.Calculation{
		ID:           s.newID(),
		UserID:       user.ID,
		UserName:     firstNonEmpty(req.UserName, user.FullName),
		UserBranch:   firstNonEmpty(req.UserBranch, user.Branch),
		CourseData:   courseData,
		Result:       resultData,
		CGPA:         result.CGPA,
		CalculatedAt: s.now().UTC(),
	}

	if err := s.storage.SaveCalculation(dbCtx, snapshot); err != nil {
		s.logger.Error("failed to save calculation", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("calculation stored",
		zap.String("calculation_id", snapshot.ID),
		zap.String("user_id", userID),
		zap.Float64("cgpa", result.CGPA))
	return nil
}

// RegisterUser validates the profile and issues a new user identifier.
func (s *CGPAService) RegisterUser(ctx context.Context, req RegisterUserRequest) (UserProfile, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Branch = strings.TrimSpace(req.Branch)

	if err := s.validate.Struct(req); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	user := models.User{
		ID:        s.newID(),
		FullName:  req.FullName,
		Branch:    req.Branch,
		CreatedAt: s.now().UTC(),
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.storage.CreateUser(dbCtx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return UserProfile{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("branch", user.Branch))

	return UserProfile{
		UserID:    user.ID,
		FullName:  user.FullName,
		Branch:    user.Branch,
		CreatedAt: user.CreatedAt,
	}, nil
}

// GetHistory returns the most recent snapshots for userID, newest first.
// Unknown users have an empty history. Concurrent reads for the same user
// share one query, so the returned records must not be modified. The shared
// query is bounded by dbTimeout only; each caller stops waiting when its own
// ctx is done.
func (s *CGPAService) GetHistory(ctx context.Context, userID string) ([]CalculationRecord, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	ch := s.sfGroup.DoChan("history:"+id, func() (any, error) {
		dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
		defer cancel()

		rows, err := s.storage.ListCalculationsByUser(dbCtx, id, s.historyLimit)
		if err != nil {
			s.logger.Error("failed to fetch history", zap.String("user_id", id), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		return s.toRecords(rows)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("history read shared", zap.String("user_id", id))
		}
		return res.Val.([]CalculationRecord), nil
	}
}

func (s *CGPAService) toRecords(rows []models.Calculation) ([]CalculationRecord, error) {
	out := make([]CalculationRecord, 0, len(rows))
	for _, r := range rows {
		rec := CalculationRecord{
			ID:           r.ID,
			UserID:       r.UserID,
			UserName:     r.UserName,
			UserBranch:   r.UserBranch,
			CalculatedAt: r.CalculatedAt,
		}
		if err := json.Unmarshal(r.CourseData, &rec.CourseData); err != nil {
			s.logger.Error("corrupt course data", zap.String("calculation_id", r.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: decode course data of %s: %v", ErrStorageFailure, r.ID, err)
		}
		if err := json.Unmarshal(r.Result, &rec.Result); err != nil {
			s.logger.Error("corrupt result", zap.String("calculation_id", r.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: decode result of %s: %v", ErrStorageFailure, r.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseUserID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: userId must be a valid UUID", ErrInvalidInput)
	}
	return id.String(), nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
