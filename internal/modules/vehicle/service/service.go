package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/vehicle/dto"
	repo "pera.com/perasystem/internal/modules/vehicle/repository"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/sanitize"
)

const (
	defaultPageSize = 50
	minYear         = 1950
)

// ReferenceChecker confirms that a referenced station or user exists.
type ReferenceChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, sub authz.Subject, req dto.CreateVehicleRequest) (*dto.VehicleResponse, error)
	List(ctx context.Context, sub authz.Subject, filter dto.VehicleFilter) (*dto.VehicleListResponse, error)
	Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.VehicleResponse, error)
	Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateVehicleRequest) (*dto.VehicleResponse, error)
	UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.VehicleResponse, error)
}

type service struct {
	repo     repo.Repository
	stations ReferenceChecker
	users    ReferenceChecker
	authz    *authz.Evaluator
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo repo.Repository, stations, users ReferenceChecker, evaluator *authz.Evaluator, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		stations: stations,
		users:    users,
		authz:    evaluator,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, sub authz.Subject, req dto.CreateVehicleRequest) (*dto.VehicleResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.checkYear(req.Year); err != nil {
		return nil, err
	}

	vehicle := &entity.Vehicle{
		RegistrationNumber:  normalizeRegistration(req.RegistrationNumber),
		VehicleType:         req.VehicleType,
		Make:                strings.TrimSpace(req.Make),
		Model:               strings.TrimSpace(req.Model),
		Year:                req.Year,
		Status:              entity.VehicleStatusAvailable,
		LastMaintenanceDate: req.LastMaintenanceDate,
		NextMaintenanceDate: req.NextMaintenanceDate,
		OdometerReading:     req.OdometerReading,
		FuelType:            req.FuelType,
		FuelEfficiency:      req.FuelEfficiency,
		Insurance:           buildInsurance(req.InsuranceDetails),
		IsActive:            true,
		Notes:               sanitize.Text(req.Notes),
	}

	var err error
	if vehicle.CurrentLocationID, err = s.resolve(ctx, s.stations, "currentLocation", req.CurrentLocation); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("vehicle with registration number %s %w", vehicle.RegistrationNumber, apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("registration_number", vehicle.RegistrationNumber),
	)

	return s.reload(ctx, vehicle.ID)
}

func (s *service) List(ctx context.Context, sub authz.Subject, filter dto.VehicleFilter) (*dto.VehicleListResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	f := repo.Filter{
		Status:      filter.Status,
		VehicleType: filter.VehicleType,
		Active:      filter.Active,
		Search:      strings.TrimSpace(filter.Search),
	}
	if filter.CurrentLocation != "" {
		id, err := uuid.Parse(filter.CurrentLocation)
		if err != nil {
			return nil, apperror.FieldError("currentLocation", "invalid station id")
		}
		f.CurrentLocationID = &id
	}

	offset := filter.Normalize(defaultPageSize)
	vehicles, total, err := s.repo.FindAll(ctx, f, offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	res := &dto.VehicleListResponse{
		Vehicles: make([]*dto.VehicleResponse, 0, len(vehicles)),
		Total:    total,
		Page:     filter.Page,
	}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, dto.NewVehicleResponse(v))
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.VehicleResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *service) Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateVehicleRequest) (*dto.VehicleResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionUpdate, nil); err != nil {
		return nil, err
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.RegistrationNumber != nil {
		vehicle.RegistrationNumber = normalizeRegistration(*req.RegistrationNumber)
	}
	if req.VehicleType != nil {
		vehicle.VehicleType = *req.VehicleType
	}
	if req.Make != nil {
		vehicle.Make = strings.TrimSpace(*req.Make)
	}
	if req.Model != nil {
		vehicle.Model = strings.TrimSpace(*req.Model)
	}
	if req.Year != nil {
		if err := s.checkYear(*req.Year); err != nil {
			return nil, err
		}
		vehicle.Year = *req.Year
	}
	if req.LastMaintenanceDate != nil {
		vehicle.LastMaintenanceDate = req.LastMaintenanceDate
	}
	if req.NextMaintenanceDate != nil {
		vehicle.NextMaintenanceDate = req.NextMaintenanceDate
	}
	if req.OdometerReading != nil {
		vehicle.OdometerReading = *req.OdometerReading
	}
	if req.FuelType != nil {
		vehicle.FuelType = *req.FuelType
	}
	if req.FuelEfficiency != nil {
		vehicle.FuelEfficiency = req.FuelEfficiency
	}
	if req.InsuranceDetails != nil {
		vehicle.Insurance = buildInsurance(req.InsuranceDetails)
	}
	if req.Notes != nil {
		vehicle.Notes = sanitize.Text(*req.Notes)
	}
	if req.IsActive != nil {
		vehicle.IsActive = *req.IsActive
	}
	if req.CurrentLocation != nil {
		if vehicle.CurrentLocationID, err = s.resolve(ctx, s.stations, "currentLocation", *req.CurrentLocation); err != nil {
			return nil, err
		}
		vehicle.CurrentLocation = nil
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("vehicle with registration number %s %w", vehicle.RegistrationNumber, apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	return s.reload(ctx, id)
}

// UpdateStatus sets the status. assigned and in_use need an assignee; any
// other status clears it.
func (s *service) UpdateStatus(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.VehicleResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionStatus, nil); err != nil {
		return nil, err
	}
	if !entity.Contains(entity.VehicleStatuses, req.Status) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidStatus, req.Status)
	}

	var assignedTo *uuid.UUID
	if req.Status == entity.VehicleStatusAssigned || req.Status == entity.VehicleStatusInUse {
		if req.AssignedTo == "" {
			return nil, apperror.FieldError("assignedTo", "assignedTo is required for status "+req.Status)
		}
		var err error
		if assignedTo, err = s.resolve(ctx, s.users, "assignedTo", req.AssignedTo); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, assignedTo); err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("vehicle status changed",
		zap.String("vehicle_id", id.String()),
		zap.String("status", req.Status),
		zap.String("by", sub.UserID.String()),
	)

	return s.reload(ctx, id)
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*dto.VehicleResponse, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return dto.NewVehicleResponse(vehicle), nil
}

func (s *service) checkYear(year int) error {
	if upper := s.now().Year() + 1; year < minYear || year > upper {
		return apperror.FieldError("year", fmt.Sprintf("year must be between %d and %d", minYear, upper))
	}
	return nil
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

func buildInsurance(in *dto.InsuranceInput) entity.InsuranceDetails {
	if in == nil {
		return entity.InsuranceDetails{}
	}
	return entity.InsuranceDetails{
		PolicyNumber: strings.TrimSpace(in.PolicyNumber),
		Provider:     strings.TrimSpace(in.Provider),
		ExpiryDate:   in.ExpiryDate,
	}
}

func normalizeRegistration(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("vehicle %w", apperror.ErrNotFound)
	}
	return err
}
