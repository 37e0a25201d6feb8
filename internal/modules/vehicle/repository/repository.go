package vehicle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
)

type Filter struct {
	Status            string
	VehicleType       string
	CurrentLocationID *uuid.UUID
	Active            *bool
	Search            string
}

type Repository interface {
	Create(ctx context.Context, vehicle *entity.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Vehicle, int64, error)
	Update(ctx context.Context, vehicle *entity.Vehicle) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, assignedTo *uuid.UUID) error
	CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Vehicle, error)
	FindInsuranceExpiring(ctx context.Context, before time.Time) ([]*entity.Vehicle, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	return r.db.WithContext(ctx).Omit("CurrentLocation", "AssignedTo").Create(vehicle).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	var vehicle entity.Vehicle
	if err := r.db.WithContext(ctx).
		Preload("CurrentLocation").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Vehicle, int64, error) {
	var vehicles []*entity.Vehicle
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Vehicle{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VehicleType != "" {
		query = query.Where("vehicle_type = ?", filter.VehicleType)
	}
	if filter.CurrentLocationID != nil {
		query = query.Where("current_location_id = ?", *filter.CurrentLocationID)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("registration_number ILIKE ? OR make ILIKE ? OR model ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("CurrentLocation").
		Preload("AssignedTo").
		Order("registration_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *repository) Update(ctx context.Context, vehicle *entity.Vehicle) error {
	return r.db.WithContext(ctx).Omit("CurrentLocation", "AssignedTo").Save(vehicle).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, assignedTo *uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "assigned_to_id": assignedTo})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Vehicle{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Vehicle{}).
		Select("status, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Vehicle, error) {
	var vehicles []*entity.Vehicle
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND next_maintenance_date IS NOT NULL AND next_maintenance_date <= ?", true, before).
		Order("next_maintenance_date ASC").
		Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repository) FindInsuranceExpiring(ctx context.Context, before time.Time) ([]*entity.Vehicle, error) {
	var vehicles []*entity.Vehicle
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND insurance_expiry_date IS NOT NULL AND insurance_expiry_date <= ?", true, before).
		Order("insurance_expiry_date ASC").
		Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}
