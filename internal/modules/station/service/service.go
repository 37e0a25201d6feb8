package station

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/station/dto"
	repo "pera.com/perasystem/internal/modules/station/repository"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/sanitize"
)

const (
	defaultPageSize    = 50
	defaultRadiusKm    = 10.0
	defaultSearchLimit = 20
	maxTreeDepth       = 64
)

// UserChecker is the slice of the user registry stations depend on.
type UserChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, sub authz.Subject, req dto.CreateStationRequest) (*dto.StationResponse, error)
	List(ctx context.Context, sub authz.Subject, filter dto.StationFilter) (*dto.StationListResponse, error)
	Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.StationResponse, error)
	Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStationRequest) (*dto.StationResponse, error)
	Children(ctx context.Context, sub authz.Subject, id uuid.UUID) ([]*dto.StationResponse, error)
	Nearby(ctx context.Context, sub authz.Subject, q dto.NearbyQuery) ([]*dto.StationResponse, error)
	Search(ctx context.Context, sub authz.Subject, q dto.SearchQuery) ([]*dto.StationResponse, error)
	Reindex(ctx context.Context) (int, error)
}

type service struct {
	repo   repo.Repository
	users  UserChecker
	index  repo.SearchIndex
	authz  *authz.Evaluator
	logger *zap.Logger
}

// NewService wires the station registry. index may be nil, in which case
// search falls back to a name/code match in the database.
func NewService(repo repo.Repository, users UserChecker, index repo.SearchIndex, evaluator *authz.Evaluator, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		users:  users,
		index:  index,
		authz:  evaluator,
		logger: logger,
	}
}

func (s *service) Create(ctx context.Context, sub authz.Subject, req dto.CreateStationRequest) (*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionCreate, nil); err != nil {
		return nil, err
	}

	address, err := buildAddress(req.Address)
	if err != nil {
		return nil, err
	}

	station := &entity.Station{
		Name:       strings.TrimSpace(req.Name),
		Code:       normalizeCode(req.Code),
		Type:       req.Type,
		Address:    address,
		Contact:    buildContact(req.Contact),
		IsActive:   true,
		Facilities: trimAll(req.Facilities),
		Notes:      sanitize.Text(req.Notes),
	}
	if req.OperationalHours != nil {
		station.OperationalHours = buildHours(req.OperationalHours)
	}

	if station.InChargeID, err = s.resolveInCharge(ctx, req.InCharge); err != nil {
		return nil, err
	}
	if req.ParentStation != "" {
		parentID, err := s.resolveParent(ctx, uuid.Nil, req.ParentStation)
		if err != nil {
			return nil, err
		}
		station.ParentStationID = parentID
	}

	if err := s.repo.Create(ctx, station); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("station code %s %w", station.Code, apperror.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create station: %w", err)
	}

	return s.reloadAndIndex(ctx, station.ID)
}

func (s *service) List(ctx context.Context, sub authz.Subject, filter dto.StationFilter) (*dto.StationListResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	offset := filter.Normalize(defaultPageSize)
	stations, total, err := s.repo.FindAll(ctx, repo.Filter{
		Type:     filter.Type,
		Province: filter.Province,
		City:     strings.TrimSpace(filter.City),
		Active:   filter.Active,
		Search:   strings.TrimSpace(filter.Search),
	}, offset, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return &dto.StationListResponse{
		Stations: toResponses(stations),
		Total:    total,
		Page:     filter.Page,
	}, nil
}

func (s *service) Get(ctx context.Context, sub authz.Subject, id uuid.UUID) (*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return dto.NewStationResponse(station), nil
}

func (s *service) Update(ctx context.Context, sub authz.Subject, id uuid.UUID, req dto.UpdateStationRequest) (*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionUpdate, nil); err != nil {
		return nil, err
	}

	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Name != nil {
		station.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		station.Type = *req.Type
	}
	if req.Address != nil {
		if station.Address, err = buildAddress(req.Address); err != nil {
			return nil, err
		}
	}
	if req.Contact != nil {
		station.Contact = buildContact(req.Contact)
	}
	if req.OperationalHours != nil {
		station.OperationalHours = buildHours(req.OperationalHours)
	}
	if req.Facilities != nil {
		station.Facilities = trimAll(req.Facilities)
	}
	if req.Notes != nil {
		station.Notes = sanitize.Text(*req.Notes)
	}
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}
	if req.InCharge != nil {
		if station.InChargeID, err = s.resolveInCharge(ctx, *req.InCharge); err != nil {
			return nil, err
		}
		station.InCharge = nil
	}
	if req.ParentStation != nil {
		if *req.ParentStation == "" {
			station.ParentStationID = nil
		} else if station.ParentStationID, err = s.resolveParent(ctx, id, *req.ParentStation); err != nil {
			return nil, err
		}
		station.ParentStation = nil
	}

	if err := s.repo.Update(ctx, station); err != nil {
		return nil, fmt.Errorf("failed to update station: %w", err)
	}

	return s.reloadAndIndex(ctx, id)
}

func (s *service) Children(ctx context.Context, sub authz.Subject, id uuid.UUID) ([]*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("station %w", apperror.ErrNotFound)
	}

	children, err := s.repo.FindChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load child stations: %w", err)
	}
	return toResponses(children), nil
}

func (s *service) Nearby(ctx context.Context, sub authz.Subject, q dto.NearbyQuery) ([]*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	lat, lng := *q.Lat, *q.Lng
	radius := q.RadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}

	candidates, err := s.repo.FindInBox(ctx, boundingBox(lat, lng, radius))
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby stations: %w", err)
	}

	res := make([]*dto.StationResponse, 0, len(candidates))
	for _, st := range candidates {
		if st.Address.Latitude == nil || st.Address.Longitude == nil {
			continue
		}
		d := haversineKm(lat, lng, *st.Address.Latitude, *st.Address.Longitude)
		if d > radius {
			continue
		}
		r := dto.NewStationResponse(st)
		r.DistanceKm = &d
		res = append(res, r)
	}

	sort.SliceStable(res, func(i, j int) bool { return *res[i].DistanceKm < *res[j].DistanceKm })
	return res, nil
}

func (s *service) Search(ctx context.Context, sub authz.Subject, q dto.SearchQuery) ([]*dto.StationResponse, error) {
	if err := s.authz.Authorize(sub, Resource, ActionRead, nil); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	term := strings.TrimSpace(q.Q)

	if s.index != nil {
		ids, err := s.index.Search(term, limit)
		if err == nil {
			return s.loadOrdered(ctx, ids)
		}
		s.logger.Warn("station index search failed, falling back to database", zap.Error(err))
	}

	stations, _, err := s.repo.FindAll(ctx, repo.Filter{Search: term}, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stations: %w", err)
	}
	return toResponses(stations), nil
}

// Reindex pushes every station to the search index.
func (s *service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	stations, err := s.repo.FindAllForIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load stations for indexing: %w", err)
	}
	if err := s.index.Index(stations...); err != nil {
		return 0, err
	}
	return len(stations), nil
}

func (s *service) loadOrdered(ctx context.Context, ids []uuid.UUID) ([]*dto.StationResponse, error) {
	stations, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}

	byID := make(map[uuid.UUID]*entity.Station, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}

	res := make([]*dto.StationResponse, 0, len(ids))
	for _, id := range ids {
		if st, ok := byID[id]; ok {
			res = append(res, dto.NewStationResponse(st))
		}
	}
	return res, nil
}

func (s *service) reloadAndIndex(ctx context.Context, id uuid.UUID) (*dto.StationResponse, error) {
	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if s.index != nil {
		if err := s.index.Index(station); err != nil {
			s.logger.Warn("failed to index station", zap.String("station_id", id.String()), zap.Error(err))
		}
	}

	return dto.NewStationResponse(station), nil
}

func (s *service) resolveInCharge(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.FieldError("inCharge", "invalid user id")
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check in-charge user: %w", err)
	}
	if !ok {
		return nil, apperror.FieldError("inCharge", "user not found")
	}
	return &id, nil
}

// resolveParent validates a parent reference. self is uuid.Nil on create.
func (s *service) resolveParent(ctx context.Context, self uuid.UUID, raw string) (*uuid.UUID, error) {
	parentID, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.FieldError("parentStation", "invalid station id")
	}
	if parentID == self {
		return nil, apperror.FieldError("parentStation", "a station cannot be its own parent")
	}

	ok, err := s.repo.Exists(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check parent station: %w", err)
	}
	if !ok {
		return nil, apperror.FieldError("parentStation", "parent station not found")
	}

	if self == uuid.Nil {
		return &parentID, nil
	}

	// Walk up from the new parent; meeting self means self is an ancestor.
	cur := parentID
	for depth := 0; depth < maxTreeDepth; depth++ {
		next, err := s.repo.ParentID(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("failed to walk station tree: %w", err)
		}
		if next == nil {
			return &parentID, nil
		}
		if *next == self {
			return nil, apperror.FieldError("parentStation", "parent station cannot be a descendant of this station")
		}
		cur = *next
	}
	return nil, apperror.FieldError("parentStation", "station hierarchy is too deep")
}

func buildAddress(in *dto.AddressInput) (entity.Address, error) {
	if in.IsEmpty() {
		return entity.Address{}, nil
	}
	if len(in.Coordinates) != 2 {
		return entity.Address{}, apperror.FieldError("address.coordinates", "coordinates [longitude, latitude] are required when an address is given")
	}

	lng, lat := in.Coordinates[0], in.Coordinates[1]
	fields := map[string]string{}
	if lng < -180 || lng > 180 {
		fields["address.coordinates"] = "longitude must be between -180 and 180"
	}
	if lat < -90 || lat > 90 {
		fields["address.coordinates"] = "latitude must be between -90 and 90"
	}
	if len(fields) > 0 {
		return entity.Address{}, apperror.NewValidationError(fields)
	}

	return entity.Address{
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		District:   strings.TrimSpace(in.District),
		Province:   in.Province,
		PostalCode: strings.TrimSpace(in.PostalCode),
		Longitude:  &lng,
		Latitude:   &lat,
	}, nil
}

func buildContact(in *dto.ContactInput) entity.StationContact {
	if in == nil {
		return entity.StationContact{}
	}
	return entity.StationContact{
		Phone:            trimAll(in.Phone),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
	}
}

func buildHours(in *dto.OperationalHoursInput) entity.OperationalHours {
	return entity.OperationalHours{
		Open:        strings.TrimSpace(in.Open),
		Close:       strings.TrimSpace(in.Close),
		WorkingDays: in.WorkingDays,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toResponses(stations []*entity.Station) []*dto.StationResponse {
	res := make([]*dto.StationResponse, 0, len(stations))
	for _, st := range stations {
		res = append(res, dto.NewStationResponse(st))
	}
	return res
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("station %w", apperror.ErrNotFound)
	}
	return err
}
