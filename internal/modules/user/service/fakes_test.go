package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
	repo "pera.com/perasystem/internal/modules/user/repository"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.EmployeeID == u.EmployeeID {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = u.BeforeCreate(nil)
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAll(_ context.Context, filter repo.Filter, offset, limit int) ([]*entity.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, u := range f.users {
		if filter.Designation != "" && u.Designation != filter.Designation {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeRepo) FindByDesignation(_ context.Context, designation string) ([]*entity.User, error) {
	all, _, err := f.FindAll(context.Background(), repo.Filter{Designation: designation}, 0, 1000)
	return all, err
}

func (f *fakeRepo) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeRepo) CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if ok, _ := f.Exists(ctx, id); ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountActive(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

type fakeStations map[uuid.UUID]bool

func (f fakeStations) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}
