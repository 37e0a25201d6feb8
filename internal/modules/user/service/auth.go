package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/user/dto"
	repo "pera.com/perasystem/internal/modules/user/repository"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/ratelimiter"
	"pera.com/perasystem/pkg/token"
)

// StationChecker is the slice of the station registry users depend on.
type StationChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MaxLoginFailures is how many bad attempts from one address are allowed
// within the login window before that address is throttled.
const MaxLoginFailures = 5

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authService struct {
	repo        repo.Repository
	stations    StationChecker
	tokens      token.Service
	redisClient *redis.Client
	loginWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthService(repo repo.Repository, stations StationChecker, tokens token.Service, redisClient *redis.Client, loginWindow time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		repo:        repo,
		stations:    stations,
		tokens:      tokens,
		redisClient: redisClient,
		loginWindow: loginWindow,
		logger:      logger,
		now:         time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	stationID, err := resolveStation(ctx, s.stations, req.Station)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         NormalizeEmail(req.Email),
		EmployeeID:    strings.TrimSpace(req.EmployeeID),
		Designation:   req.Designation,
		Rank:          strings.TrimSpace(req.Rank),
		StationID:     stationID,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		IsActive:      true,
	}
	user.SetPassword(req.Password)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user with this email or employee ID %w", apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("designation", user.Designation),
	)

	created, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return s.buildAuthResponse(created)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	email := NormalizeEmail(req.Email)

	attempt := email + "|" + req.ClientIP

	failures, ttl, err := ratelimiter.Failures(ctx, s.redisClient, attempt, ratelimiter.ScopeLogin)
	if err != nil {
		s.logger.Warn("login failure count unavailable", zap.Error(err))
	} else if failures >= MaxLoginFailures && ttl > 0 {
		return nil, ratelimiter.NewRateLimitError("trying to log in", ttl)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, attempt)
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.CheckPassword(req.Password) {
		s.recordFailure(ctx, attempt)
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.ErrAccountDeactivated
	}

	if err := ratelimiter.ClearFailures(ctx, s.redisClient, attempt, ratelimiter.ScopeLogin); err != nil {
		s.logger.Warn("failed to reset login failures", zap.Error(err))
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	return s.buildAuthResponse(user)
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// recordFailure counts a failed login for one email from one client address.
func (s *authService) recordFailure(ctx context.Context, attempt string) {
	if _, err := ratelimiter.RecordFailure(ctx, s.redisClient, attempt, ratelimiter.ScopeLogin, s.loginWindow); err != nil {
		s.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Designation)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &dto.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func resolveStation(ctx context.Context, stations StationChecker, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.FieldError("station", "invalid station id")
	}
	ok, err := stations.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check station: %w", err)
	}
	if !ok {
		return nil, apperror.FieldError("station", "station not found")
	}
	return &id, nil
}
