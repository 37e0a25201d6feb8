package stat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

type fakeRequisitions struct {
	visibleTo *uuid.UUID
}

func (f *fakeRequisitions) CountByStatus(_ context.Context, visibleTo *uuid.UUID) (map[string]int64, error) {
	f.visibleTo = visibleTo
	if visibleTo != nil {
		return map[string]int64{entity.StatusSubmitted: 1}, nil
	}
	return map[string]int64{entity.StatusSubmitted: 4, entity.StatusCompleted: 2}, nil
}

type fakeResources map[string]int64

func (f fakeResources) CountByStatus(context.Context) (map[string]int64, error) { return f, nil }

type fakeUsers int64

func (f fakeUsers) CountActive(context.Context) (int64, error) { return int64(f), nil }

func newTestService(reqs *fakeRequisitions) Service {
	e := authz.NewEvaluator()
	RegisterPolicy(e)
	return NewService(reqs,
		fakeResources{entity.VehicleStatusAvailable: 3},
		fakeResources{entity.WeaponStatusAssigned: 5},
		fakeUsers(12), e)
}

func TestDashboard_Officer(t *testing.T) {
	reqs := &fakeRequisitions{}
	sub := authz.Subject{UserID: uuid.New(), Role: entity.RoleIO}

	res, err := newTestService(reqs).Dashboard(context.Background(), sub)
	require.NoError(t, err)
	require.NotNil(t, reqs.visibleTo)
	assert.Equal(t, sub.UserID, *reqs.visibleTo)
	assert.EqualValues(t, 1, res.TotalRequisitions)
	assert.Len(t, res.Requisitions, len(entity.RequisitionStatuses))
	assert.Zero(t, res.Requisitions[entity.StatusCompleted])
	assert.Nil(t, res.Vehicles)
	assert.Nil(t, res.ActiveUsers)
}

func TestDashboard_SDO(t *testing.T) {
	reqs := &fakeRequisitions{}
	res, err := newTestService(reqs).Dashboard(context.Background(), authz.Subject{UserID: uuid.New(), Role: entity.RoleSDO})
	require.NoError(t, err)
	assert.Nil(t, reqs.visibleTo)
	assert.EqualValues(t, 6, res.TotalRequisitions)
	assert.EqualValues(t, 3, res.Vehicles[entity.VehicleStatusAvailable])
	assert.Zero(t, res.Vehicles[entity.VehicleStatusInUse])
	assert.EqualValues(t, 5, res.Weapons[entity.WeaponStatusAssigned])
	require.NotNil(t, res.ActiveUsers)
	assert.EqualValues(t, 12, *res.ActiveUsers)
}

func TestDashboard_Anonymous(t *testing.T) {
	_, err := newTestService(&fakeRequisitions{}).Dashboard(context.Background(), authz.Subject{})
	assert.Error(t, err)
}
