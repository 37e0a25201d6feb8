package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/modules/user/dto"
	repo "pera.com/perasystem/internal/modules/user/repository"
	"pera.com/perasystem/pkg/apperror"
)

const defaultPageSize = 50

type Service interface {
	List(ctx context.Context, sub authz.Subject, filter dto.UserFilter) (*dto.UserListResponse, error)
	Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.UserResponse, error)
	Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	SetStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, active bool) (*dto.UserResponse, error)
}

type service struct {
	repo     repo.Repository
	stations StationChecker
	authz    *authz.Evaluator
	logger   *zap.Logger
}

func NewService(repo repo.Repository, stations StationChecker, evaluator *authz.Evaluator, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		stations: stations,
		authz:    evaluator,
		logger:   logger,
	}
}

func (s *service) List(ctx context.Context, sub authz.Subject, filter dto.UserFilter) (*dto.UserListResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionList, nil); err != nil {
		return nil, err
	}

	f := repo.Filter{
		Designation: filter.Designation,
		Active:      filter.Active,
		Search:      strings.TrimSpace(filter.Search),
	}
	if filter.Station != "" {
		id, err := uuid.Parse(filter.Station)
		if err != nil {
			return nil, apperror.FieldError("station", "invalid station id")
		}
		f.StationID = &id
	}

	offset := filter.Normalize(defaultPageSize)
	users, total, err := s.repo.FindAll(ctx, f, offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := &dto.UserListResponse{
		Users: make([]*dto.UserResponse, 0, len(users)),
		Total: total,
		Page:  filter.Page,
	}
	for _, u := range users {
		res.Users = append(res.Users, dto.NewUserResponse(u))
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.UserResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, id); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *service) Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionUpdate, id); err != nil {
		return nil, err
	}
	if req.AdminFieldsSet() {
		if err := s.authz.Authorize(sub, Resource, ActionUpdateRestricted, id); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Rank != nil {
		user.Rank = strings.TrimSpace(*req.Rank)
	}
	if req.ContactNumber != nil {
		user.ContactNumber = strings.TrimSpace(*req.ContactNumber)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = req.ProfilePicture
	}
	if req.Password != nil {
		user.SetPassword(*req.Password)
	}
	if req.Designation != nil {
		user.Designation = *req.Designation
	}
	if req.Station != nil {
		stationID, err := resolveStation(ctx, s.stations, *req.Station)
		if err != nil {
			return nil, err
		}
		user.StationID = stationID
		user.Station = nil
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.reload(ctx, id)
}

func (s *service) SetStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, active bool) (*dto.UserResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionStatus, id); err != nil {
		return nil, err
	}
	if !active && id == sub.UserID {
		return nil, fmt.Errorf("%w: you cannot deactivate your own account", apperror.ErrBadRequest)
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("user status changed",
		zap.String("user_id", id.String()),
		zap.Bool("active", active),
		zap.String("by", sub.UserID.String()),
	)

	return s.reload(ctx, id)
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return dto.NewUserResponse(user), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %w", apperror.ErrNotFound)
	}
	return err
}
