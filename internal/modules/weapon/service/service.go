package weapon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/weapon/dto"
	repo "pera.com/perasystem/internal/modules/weapon/repository"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/sanitize"
)

const defaultPageSize = 50

type ReferenceChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, sub authz.Subject, req dto.CreateWeaponRequest) (*dto.WeaponResponse, error)
	List(ctx context.Context, sub authz.Subject, filter dto.WeaponFilter) (*dto.WeaponListResponse, error)
	Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.WeaponResponse, error)
	Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateWeaponRequest) (*dto.WeaponResponse, error)
	UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.WeaponResponse, error)
}

type service struct {
	repo     repo.Repository
	stations ReferenceChecker
	users    ReferenceChecker
	authz    *authz.Evaluator
	logger   *zap.Logger
}

func NewService(repo repo.Repository, stations, users ReferenceChecker, evaluator *authz.Evaluator, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		stations: stations,
		users:    users,
		authz:    evaluator,
		logger:   logger,
	}
}

func (s *service) Create(ctx context.Context, sub authz.Subject, req dto.CreateWeaponRequest) (*dto.WeaponResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionCreate, nil); err != nil {
		return nil, err
	}

	weapon := &entity.Weapon{
		WeaponType:          req.WeaponType,
		SerialNumber:        strings.TrimSpace(req.SerialNumber),
		Status:              entity.WeaponStatusAvailable,
		PurchaseDate:        *req.PurchaseDate,
		LastMaintenanceDate: req.LastMaintenanceDate,
		NextMaintenanceDate: req.NextMaintenanceDate,
		IsActive:            true,
		Notes:               sanitize.Text(req.Notes),
	}
	if weapon.SerialNumber == "" {
		return nil, apperror.FieldError("serialNumber", "serialNumber is required")
	}

	var err error
	if weapon.CurrentLocationID, err = s.resolve(ctx, s.stations, "currentLocation", req.CurrentLocation); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, weapon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("weapon with serial number %s %w", weapon.SerialNumber, apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create weapon: %w", err)
	}

	s.logger.Info("weapon registered",
		zap.String("weapon_id", weapon.ID.String()),
		zap.String("serial_number", weapon.SerialNumber),
	)

	return s.reload(ctx, weapon.ID)
}

func (s *service) List(ctx context.Context, sub authz.Subject, filter dto.WeaponFilter) (*dto.WeaponListResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	f := repo.Filter{
		Status:     filter.Status,
		WeaponType: filter.WeaponType,
		Active:     filter.Active,
		Search:     strings.TrimSpace(filter.Search),
	}
	if filter.CurrentLocation != "" {
		id, err := uuid.Parse(filter.CurrentLocation)
		if err != nil {
			return nil, apperror.FieldError("currentLocation", "invalid station id")
		}
		f.CurrentLocationID = &id
	}

	offset := filter.Normalize(defaultPageSize)
	weapons, total, err := s.repo.FindAll(ctx, f, offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weapons: %w", err)
	}

	res := &dto.WeaponListResponse{
		Weapons: make([]*dto.WeaponResponse, 0, len(weapons)),
		Total:   total,
		Page:    filter.Page,
	}
	for _, w := range weapons {
		res.Weapons = append(res.Weapons, dto.NewWeaponResponse(w))
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.WeaponResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *service) Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateWeaponRequest) (*dto.WeaponResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionUpdate, nil); err != nil {
		return nil, err
	}

	weapon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.WeaponType != nil {
		weapon.WeaponType = *req.WeaponType
	}
	if req.SerialNumber != nil {
		serial := strings.TrimSpace(*req.SerialNumber)
		if serial == "" {
			return nil, apperror.FieldError("serialNumber", "serialNumber cannot be empty")
		}
		weapon.SerialNumber = serial
	}
	if req.PurchaseDate != nil {
		weapon.PurchaseDate = *req.PurchaseDate
	}
	if req.LastMaintenanceDate != nil {
		weapon.LastMaintenanceDate = req.LastMaintenanceDate
	}
	if req.NextMaintenanceDate != nil {
		weapon.NextMaintenanceDate = req.NextMaintenanceDate
	}
	if req.Notes != nil {
		weapon.Notes = sanitize.Text(*req.Notes)
	}
	if req.IsActive != nil {
		weapon.IsActive = *req.IsActive
	}
	if req.CurrentLocation != nil {
		if weapon.CurrentLocationID, err = s.resolve(ctx, s.stations, "currentLocation", *req.CurrentLocation); err != nil {
			return nil, err
		}
		weapon.CurrentLocation = nil
	}

	if err := s.repo.Update(ctx, weapon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("weapon with serial number %s %w", weapon.SerialNumber, apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update weapon: %w", err)
	}

	return s.reload(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.WeaponResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionStatus, nil); err != nil {
		return nil, err
	}
	if !entity.Contains(entity.WeaponStatuses, req.Status) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidStatus, req.Status)
	}

	// only "assigned" keeps an assignee
	var assignedTo *uuid.UUID
	if req.Status == entity.WeaponStatusAssigned {
		if req.AssignedTo == "" {
			return nil, apperror.FieldError("assignedTo", "assignedTo is required for status assigned")
		}
		var err error
		if assignedTo, err = s.resolve(ctx, s.users, "assignedTo", req.AssignedTo); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, assignedTo); err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("weapon status changed",
		zap.String("weapon_id", id.String()),
		zap.String("status", req.Status),
		zap.String("by", sub.UserID.String()),
	)

	return s.reload(ctx, id)
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*dto.WeaponResponse, error) {
	weapon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return dto.NewWeaponResponse(weapon), nil
}

func (s *service) resolve(ctx context.Context, checker ReferenceChecker, field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.FieldError(field, "invalid id")
	}
	ok, err := checker.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", field, err)
	}
	if !ok {
		return nil, apperror.FieldError(field, field+" not found")
	}
	return &id, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("weapon %w", apperror.ErrNotFound)
	}
	return err
}
