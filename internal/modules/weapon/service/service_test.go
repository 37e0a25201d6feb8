package weapon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/weapon/dto"
	repo "pera.com/perasystem/internal/modules/weapon/repository"
	"pera.com/perasystem/pkg/apperror"
)

type fakeRepo struct {
	weapons map[uuid.UUID]*entity.Weapon
}

func (f *fakeRepo) Create(_ context.Context, w *entity.Weapon) error {
	for _, existing := range f.weapons {
		if existing.SerialNumber == w.SerialNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = w.BeforeCreate(nil)
	cp := *w
	f.weapons[w.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Weapon, error) {
	w, ok := f.weapons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeRepo) FindAll(_ context.Context, filter repo.Filter, _, _ int) ([]*entity.Weapon, int64, error) {
	var out []*entity.Weapon
	for _, w := range f.weapons {
		if filter.WeaponType != "" && w.WeaponType != filter.WeaponType {
			continue
		}
		out = append(out, w)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) Update(_ context.Context, w *entity.Weapon) error {
	cp := *w
	f.weapons[w.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, assignedTo *uuid.UUID) error {
	w, ok := f.weapons[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.Status = status
	w.AssignedToID = assignedTo
	return nil
}

func (f *fakeRepo) CountExisting(context.Context, []uuid.UUID) (int64, error) { return 0, nil }

func (f *fakeRepo) CountByStatus(context.Context) (map[string]int64, error) { return nil, nil }

func (f *fakeRepo) FindMaintenanceDue(context.Context, time.Time) ([]*entity.Weapon, error) {
	return nil, nil
}

type fakeRefs map[uuid.UUID]bool

func (f fakeRefs) Exists(_ context.Context, id uuid.UUID) (bool, error) { return f[id], nil }

var (
	admin = authz.Subject{UserID: uuid.New(), Role: entity.RoleAdmin}
	sdo   = authz.Subject{UserID: uuid.New(), Role: entity.RoleSDO}
	fo    = authz.Subject{UserID: uuid.New(), Role: entity.RoleConstable}
)

func newTestService(users fakeRefs) (Service, *fakeRepo) {
	e := authz.NewEvaluator()
	RegisterPolicy(e)
	r := &fakeRepo{weapons: map[uuid.UUID]*entity.Weapon{}}
	return NewService(r, fakeRefs{}, users, e, zap.NewNop()), r
}

func createReq(serial string) dto.CreateWeaponRequest {
	purchased := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	return dto.CreateWeaponRequest{WeaponType: "Pistol", SerialNumber: serial, PurchaseDate: &purchased}
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, createReq("  SN-100 "))
	require.NoError(t, err)
	assert.Equal(t, "SN-100", res.SerialNumber)
	assert.Equal(t, entity.WeaponStatusAvailable, res.Status)

	_, err = svc.Create(ctx, admin, createReq("SN-100"))
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	_, err = svc.Create(ctx, admin, createReq("   "))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Create(ctx, sdo, createReq("SN-101"))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateStatus(t *testing.T) {
	officer := uuid.New()
	svc, r := newTestService(fakeRefs{officer: true})
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, createReq("SN-200"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, fo, created.ID, dto.UpdateStatusRequest{Status: entity.WeaponStatusDamaged})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.UpdateStatus(ctx, sdo, created.ID, dto.UpdateStatusRequest{Status: entity.WeaponStatusAssigned})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, sdo, created.ID, dto.UpdateStatusRequest{Status: entity.WeaponStatusAssigned, AssignedTo: uuid.NewString()})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, sdo, created.ID, dto.UpdateStatusRequest{Status: entity.WeaponStatusAssigned, AssignedTo: officer.String()})
	require.NoError(t, err)
	assert.Equal(t, officer, *r.weapons[created.ID].AssignedToID)

	_, err = svc.UpdateStatus(ctx, admin, created.ID, dto.UpdateStatusRequest{Status: entity.WeaponStatusDecommissioned})
	require.NoError(t, err)
	assert.Nil(t, r.weapons[created.ID].AssignedToID)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, createReq("SN-300"))
	require.NoError(t, err)

	kind := "Rifle"
	notes := "<b>scope</b> fitted"
	res, err := svc.Update(ctx, admin, created.ID, dto.UpdateWeaponRequest{WeaponType: &kind, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Rifle", res.WeaponType)
	assert.Equal(t, "scope fitted", res.Notes)

	_, err = svc.Update(ctx, admin, uuid.New(), dto.UpdateWeaponRequest{WeaponType: &kind})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
