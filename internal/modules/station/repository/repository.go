package station

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
)

type Filter struct {
	Type     string
	Province string
	City     string
	Active   *bool
	Search   string
}

// BoundingBox limits a coordinate scan before exact distances are computed.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

type Repository interface {
	Create(ctx context.Context, station *entity.Station) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Station, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Station, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Station, int64, error)
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Station, error)
	FindInBox(ctx context.Context, box BoundingBox) ([]*entity.Station, error)
	FindAllForIndex(ctx context.Context) ([]*entity.Station, error)
	ParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	Update(ctx context.Context, station *entity.Station) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Omit("InCharge", "ParentStation").Create(station).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Station, error) {
	var station entity.Station
	if err := r.db.WithContext(ctx).
		Preload("InCharge").
		Preload("ParentStation").
		Where("id = ?", id).
		First(&station).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Station, error) {
	var stations []*entity.Station
	if len(ids) == 0 {
		return stations, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("InCharge").
		Where("id IN ?", ids).
		Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *repository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Station, int64, error) {
	var stations []*entity.Station
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Station{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Province != "" {
		query = query.Where("address_province = ?", filter.Province)
	}
	if filter.City != "" {
		query = query.Where("address_city ILIKE ?", filter.City)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("InCharge").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&stations).Error; err != nil {
		return nil, 0, err
	}

	return stations, total, nil
}

func (r *repository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Station, error) {
	var stations []*entity.Station
	if err := r.db.WithContext(ctx).
		Where("parent_station_id = ?", parentID).
		Order("name ASC").
		Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *repository) FindInBox(ctx context.Context, box BoundingBox) ([]*entity.Station, error) {
	var stations []*entity.Station
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("address_latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("address_longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *repository) FindAllForIndex(ctx context.Context) ([]*entity.Station, error) {
	var stations []*entity.Station
	if err := r.db.WithContext(ctx).Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *repository) ParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var station entity.Station
	if err := r.db.WithContext(ctx).
		Select("id", "parent_station_id").
		Where("id = ?", id).
		First(&station).Error; err != nil {
		return nil, err
	}
	return station.ParentStationID, nil
}

func (r *repository) Update(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Omit("InCharge", "ParentStation").Save(station).Error
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Station{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
