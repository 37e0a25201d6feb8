package stat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/stat/dto"
)

const (
	Resource        = "stat"
	ActionDashboard = "dashboard"
	// ActionOverview unlocks organisation-wide figures.
	ActionOverview = "overview"
)

type RequisitionCounter interface {
	CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[string]int64, error)
}

type ResourceCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type UserCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type Service interface {
	Dashboard(ctx context.Context, sub authz.Subject) (*dto.DashboardResponse, error)
}

type service struct {
	requisitions RequisitionCounter
	vehicles     ResourceCounter
	weapons      ResourceCounter
	users        UserCounter
	authz        *authz.Evaluator
}

func NewService(requisitions RequisitionCounter, vehicles, weapons ResourceCounter, users UserCounter, evaluator *authz.Evaluator) Service {
	return &service{
		requisitions: requisitions,
		vehicles:     vehicles,
		weapons:      weapons,
		users:        users,
		authz:        evaluator,
	}
}

func RegisterPolicy(e *authz.Evaluator) {
	e.Allow(Resource, ActionDashboard, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionOverview, "", authz.AnyRole(entity.RoleAdmin, entity.RoleSDO))
}

func (s *service) Dashboard(ctx context.Context, sub authz.Subject) (*dto.DashboardResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionDashboard, nil); err != nil {
		return nil, err
	}
	overview := s.authz.Can(sub, Resource, ActionOverview, nil)

	var visibleTo *uuid.UUID
	if !overview {
		visibleTo = &sub.UserID
	}
	counts, err := s.requisitions.CountByStatus(ctx, visibleTo)
	if err != nil {
		return nil, fmt.Errorf("failed to count requisitions: %w", err)
	}

	res := &dto.DashboardResponse{Requisitions: withZeros(entity.RequisitionStatuses, counts)}
	for _, n := range counts {
		res.TotalRequisitions += n
	}
	if !overview {
		return res, nil
	}

	vehicles, err := s.vehicles.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	weapons, err := s.weapons.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count weapons: %w", err)
	}
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	res.Vehicles = withZeros(entity.VehicleStatuses, vehicles)
	res.Weapons = withZeros(entity.WeaponStatuses, weapons)
	res.ActiveUsers = &active
	return res, nil
}

// withZeros reports every known status, including ones with no rows.
func withZeros(statuses []string, counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(statuses))
	for _, s := range statuses {
		out[s] = counts[s]
	}
	return out
}
