package station

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/station/dto"
	repo "pera.com/perasystem/internal/modules/station/repository"
	"pera.com/perasystem/pkg/apperror"
)

type fakeRepo struct {
	mu       sync.Mutex
	stations map[uuid.UUID]*entity.Station
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stations: make(map[uuid.UUID]*entity.Station)}
}

func (f *fakeRepo) Create(_ context.Context, s *entity.Station) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.stations {
		if existing.Code == s.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = s.BeforeCreate(nil)
	cp := *s
	f.stations[s.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Station, error) {
	var out []*entity.Station
	for _, id := range ids {
		if s, err := f.FindByID(ctx, id); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAll(_ context.Context, filter repo.Filter, offset, limit int) ([]*entity.Station, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Station
	for _, s := range f.stations {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(s.Code), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeRepo) FindChildren(_ context.Context, parentID uuid.UUID) ([]*entity.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Station
	for _, s := range f.stations {
		if s.ParentStationID != nil && *s.ParentStationID == parentID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindInBox(_ context.Context, box repo.BoundingBox) ([]*entity.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Station
	for _, s := range f.stations {
		if s.Address.Latitude == nil {
			continue
		}
		lat, lng := *s.Address.Latitude, *s.Address.Longitude
		if lat >= box.MinLat && lat <= box.MaxLat && lng >= box.MinLng && lng <= box.MaxLng {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAllForIndex(ctx context.Context) ([]*entity.Station, error) {
	all, _, err := f.FindAll(ctx, repo.Filter{}, 0, 1000)
	return all, err
}

func (f *fakeRepo) ParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	s, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ParentStationID, nil
}

func (f *fakeRepo) Update(_ context.Context, s *entity.Station) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.stations[s.ID] = &cp
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.stations[id]
	return ok, nil
}

type fakeUsers map[uuid.UUID]bool

func (f fakeUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}

type fakeIndex struct {
	indexed map[uuid.UUID]bool
	hits    []uuid.UUID
	err     error
}

func (f *fakeIndex) Index(stations ...*entity.Station) error {
	if f.indexed == nil {
		f.indexed = map[uuid.UUID]bool{}
	}
	for _, s := range stations {
		f.indexed[s.ID] = true
	}
	return nil
}

func (f *fakeIndex) Search(string, int) ([]uuid.UUID, error) {
	return f.hits, f.err
}

var (
	admin = authz.Subject{UserID: uuid.New(), Role: entity.RoleAdmin}
	io    = authz.Subject{UserID: uuid.New(), Role: entity.RoleIO}
)

func newTestService(index repo.SearchIndex, users fakeUsers) (Service, *fakeRepo) {
	e := authz.NewEvaluator()
	RegisterPolicy(e)
	r := newFakeRepo()
	return NewService(r, users, index, e, zap.NewNop()), r
}

func createReq(name, code string, lng, lat float64) dto.CreateStationRequest {
	return dto.CreateStationRequest{
		Name: name,
		Code: code,
		Type: entity.StationTypePoliceStation,
		Address: &dto.AddressInput{
			City:        "Lahore",
			Province:    "Punjab",
			Coordinates: []float64{lng, lat},
		},
	}
}

func TestCreate(t *testing.T) {
	index := &fakeIndex{}
	svc, _ := newTestService(index, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, createReq("Model Town", " lhr-01 ", 74.32, 31.48))
	require.NoError(t, err)
	assert.Equal(t, "LHR-01", res.Code)
	assert.InDelta(t, 31.48, *res.Address.Latitude, 1e-9)
	assert.True(t, index.indexed[res.ID])

	_, err = svc.Create(ctx, admin, createReq("Other", "lhr-01", 74.0, 31.0))
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	_, err = svc.Create(ctx, io, createReq("Nope", "X-1", 74.0, 31.0))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCreate_AddressValidation(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	ctx := context.Background()

	noCoords := createReq("A", "A-1", 0, 0)
	noCoords.Address.Coordinates = nil
	_, err := svc.Create(ctx, admin, noCoords)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, createReq("B", "B-1", 74, 95))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, createReq("C", "C-1", 190, 31))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	bare := dto.CreateStationRequest{Name: "D", Code: "D-1", Type: entity.StationTypeOther}
	res, err := svc.Create(ctx, admin, bare)
	require.NoError(t, err)
	assert.Nil(t, res.Address.Latitude)
}

func TestCreate_References(t *testing.T) {
	officer := uuid.New()
	svc, _ := newTestService(nil, fakeUsers{officer: true})
	ctx := context.Background()

	req := createReq("A", "A-1", 74, 31)
	req.InCharge = uuid.NewString()
	_, err := svc.Create(ctx, admin, req)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	req.InCharge = officer.String()
	req.ParentStation = uuid.NewString()
	_, err = svc.Create(ctx, admin, req)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	req.ParentStation = ""
	parent, err := svc.Create(ctx, admin, req)
	require.NoError(t, err)

	child := createReq("B", "B-1", 74, 31)
	child.ParentStation = parent.ID.String()
	_, err = svc.Create(ctx, admin, child)
	require.NoError(t, err)

	children, err := svc.Children(ctx, io, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "B-1", children[0].Code)
}

func TestUpdate_RejectsCycles(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	ctx := context.Background()

	hq, err := svc.Create(ctx, admin, createReq("HQ", "HQ", 74, 31))
	require.NoError(t, err)

	region := createReq("Region", "RG", 74, 31)
	region.ParentStation = hq.ID.String()
	rg, err := svc.Create(ctx, admin, region)
	require.NoError(t, err)

	post := createReq("Post", "PS", 74, 31)
	post.ParentStation = rg.ID.String()
	ps, err := svc.Create(ctx, admin, post)
	require.NoError(t, err)

	self := hq.ID.String()
	_, err = svc.Update(ctx, admin, hq.ID, dto.UpdateStationRequest{ParentStation: &self})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	grandchild := ps.ID.String()
	_, err = svc.Update(ctx, admin, hq.ID, dto.UpdateStationRequest{ParentStation: &grandchild})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	// moving a leaf under the root is fine
	root := hq.ID.String()
	res, err := svc.Update(ctx, admin, ps.ID, dto.UpdateStationRequest{ParentStation: &root})
	require.NoError(t, err)
	require.NotNil(t, res.ParentStation)

	none := ""
	res, err = svc.Update(ctx, admin, ps.ID, dto.UpdateStationRequest{ParentStation: &none})
	require.NoError(t, err)
	assert.Nil(t, res.ParentStation)
}

func TestNearby(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	ctx := context.Background()

	// Lahore area, roughly 1km, 5km and 200km from the query point
	_, err := svc.Create(ctx, admin, createReq("Near", "N-1", 74.3587, 31.5204))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, createReq("Mid", "M-1", 74.40, 31.55))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, createReq("Far", "F-1", 73.05, 33.68))
	require.NoError(t, err)

	lat, lng := 31.5204, 74.3500
	res, err := svc.Nearby(ctx, io, dto.NearbyQuery{Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "N-1", res[0].Code)
	assert.Equal(t, "M-1", res[1].Code)
	assert.Less(t, *res[0].DistanceKm, *res[1].DistanceKm)

	res, err = svc.Nearby(ctx, io, dto.NearbyQuery{Lat: &lat, Lng: &lng, RadiusKm: 300})
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestNearby_AcrossAntimeridian(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, createReq("East", "E-1", 179.95, -16.5))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, createReq("West", "W-1", -179.95, -16.5))
	require.NoError(t, err)

	lat, lng := -16.5, 179.99
	res, err := svc.Nearby(ctx, io, dto.NearbyQuery{Lat: &lat, Lng: &lng, RadiusKm: 20})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "E-1", res[0].Code)
	assert.Equal(t, "W-1", res[1].Code)

	box := boundingBox(lat, lng, 20)
	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("index order is preserved", func(t *testing.T) {
		index := &fakeIndex{}
		svc, _ := newTestService(index, nil)
		a, _ := svc.Create(ctx, admin, createReq("Alpha", "A-1", 74, 31))
		b, _ := svc.Create(ctx, admin, createReq("Beta", "B-1", 74, 31))
		index.hits = []uuid.UUID{b.ID, uuid.New(), a.ID}

		res, err := svc.Search(ctx, io, dto.SearchQuery{Q: "a"})
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "B-1", res[0].Code)
		assert.Equal(t, "A-1", res[1].Code)
	})

	t.Run("falls back to database", func(t *testing.T) {
		index := &fakeIndex{err: errors.New("meili down")}
		svc, _ := newTestService(index, nil)
		_, _ = svc.Create(ctx, admin, createReq("Gulberg", "GB-1", 74, 31))
		_, _ = svc.Create(ctx, admin, createReq("Cantt", "CT-1", 74, 31))

		res, err := svc.Search(ctx, io, dto.SearchQuery{Q: "gul"})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "GB-1", res[0].Code)
	})
}

func TestReindex(t *testing.T) {
	index := &fakeIndex{}
	svc, r := newTestService(index, nil)
	ctx := context.Background()

	_, _ = svc.Create(ctx, admin, createReq("A", "A-1", 74, 31))
	_, _ = svc.Create(ctx, admin, createReq("B", "B-1", 74, 31))
	index.indexed = nil

	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, index.indexed, len(r.stations))

	noIndex, _ := newTestService(nil, nil)
	n, err = noIndex.Reindex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHaversine(t *testing.T) {
	// Lahore to Islamabad is roughly 270km
	d := haversineKm(31.5204, 74.3587, 33.6844, 73.0479)
	assert.InDelta(t, 270, d, 10)
	assert.Zero(t, haversineKm(10, 10, 10, 10))

	box := boundingBox(31.5, 74.3, 10)
	assert.Less(t, box.MinLat, 31.5)
	assert.Greater(t, box.MaxLng, 74.3)
	assert.False(t, math.IsNaN(box.MinLng))

	polar := boundingBox(89.99, 0, 50)
	assert.Equal(t, -180.0, polar.MinLng)
}
