package requisition

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
	repo "pera.com/perasystem/internal/modules/requisition/repository"
	"pera.com/perasystem/pkg/storage"
)

type fakeRepo struct {
	mu           sync.Mutex
	requisitions map[uuid.UUID]*entity.Requisition
	changes      []*repo.ResourceChange
	failUpdate   error
	duplicates   int
	maxSeq       int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requisitions: make(map[uuid.UUID]*entity.Requisition)}
}

func (f *fakeRepo) Create(_ context.Context, r *entity.Requisition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicates > 0 {
		f.duplicates--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range f.requisitions {
		if existing.RequestNumber == r.RequestNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = r.BeforeCreate(nil)
	cp := *r
	f.requisitions[r.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Requisition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requisitions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	cp.Attachments = append([]entity.RequisitionAttachment(nil), r.Attachments...)
	return &cp, nil
}

func (f *fakeRepo) FindAll(_ context.Context, filter repo.Filter, offset, limit int) ([]*entity.Requisition, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Requisition
	for _, r := range f.requisitions {
		if filter.VisibleTo != nil && r.RequestedByID != *filter.VisibleTo && !r.IsTeamMember(*filter.VisibleTo) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && (r.StartTime.Before(*filter.StartDate) || r.StartTime.After(*filter.EndDate)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, u repo.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	r, ok := f.requisitions[u.ID]
	if !ok || r.Version != u.Version {
		return repo.ErrStaleVersion
	}
	r.Status = u.Status
	r.Version++
	if u.SDORemarks != nil {
		r.SDORemarks = *u.SDORemarks
	}
	if u.CompletionReport != nil {
		r.CompletionReport = *u.CompletionReport
	}
	if u.CompletedAt != nil {
		r.CompletedAt = u.CompletedAt
		r.CompletedByID = u.CompletedByID
	}
	r.Attachments = append(r.Attachments, u.Attachments...)
	f.changes = append(f.changes, u.Resources)
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, r *entity.Requisition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requisitions[r.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.requisitions, r.ID)
	return nil
}

func (f *fakeRepo) CountByStatus(context.Context, *uuid.UUID) (map[string]int64, error) {
	return nil, nil
}

func (f *fakeRepo) MaxSequence(context.Context, int) (int64, error) {
	return f.maxSeq, nil
}

func (f *fakeRepo) NextSequence(context.Context, int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxSeq++
	return f.maxSeq, nil
}

type fakeCounter map[uuid.UUID]bool

func (f fakeCounter) CountExisting(_ context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if f[id] {
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
	failOn  string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (f *fakeStorage) Save(_ context.Context, r io.Reader, folder, name string) (*storage.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == f.failOn {
		return nil, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := "/uploads/" + folder + "/" + name
	f.saved[p] = data
	return &storage.StoredFile{Filename: name, Path: p}, nil
}

func (f *fakeStorage) Delete(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, p)
	f.deleted = append(f.deleted, p)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, ns ...*entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ns...)
	return nil
}

func (f *fakeNotifier) recipients() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(f.sent))
	for _, n := range f.sent {
		ids = append(ids, n.UserID)
	}
	return ids
}
