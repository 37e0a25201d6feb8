package weapon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
)

type Filter struct {
	Status            string
	WeaponType        string
	CurrentLocationID *uuid.UUID
	Active            *bool
	Search            string
}

type Repository interface {
	Create(ctx context.Context, weapon *entity.Weapon) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Weapon, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Weapon, int64, error)
	Update(ctx context.Context, weapon *entity.Weapon) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, assignedTo *uuid.UUID) error
	CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Weapon, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, weapon *entity.Weapon) error {
	return r.db.WithContext(ctx).Omit("CurrentLocation", "AssignedTo").Create(weapon).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Weapon, error) {
	var weapon entity.Weapon
	if err := r.db.WithContext(ctx).
		Preload("CurrentLocation").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&weapon).Error; err != nil {
		return nil, err
	}
	return &weapon, nil
}

func (r *repository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Weapon, int64, error) {
	var weapons []*entity.Weapon
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Weapon{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.WeaponType != "" {
		query = query.Where("weapon_type = ?", filter.WeaponType)
	}
	if filter.CurrentLocationID != nil {
		query = query.Where("current_location_id = ?", *filter.CurrentLocationID)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		query = query.Where("serial_number ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("CurrentLocation").
		Preload("AssignedTo").
		Order("serial_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&weapons).Error; err != nil {
		return nil, 0, err
	}

	return weapons, total, nil
}

func (r *repository) Update(ctx context.Context, weapon *entity.Weapon) error {
	return r.db.WithContext(ctx).Omit("CurrentLocation", "AssignedTo").Save(weapon).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, assignedTo *uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Weapon{}).
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
	err := r.db.WithContext(ctx).Model(&entity.Weapon{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Weapon{}).
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

func (r *repository) FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Weapon, error) {
	var weapons []*entity.Weapon
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND next_maintenance_date IS NOT NULL AND next_maintenance_date <= ?", true, before).
		Order("next_maintenance_date ASC").
		Find(&weapons).Error
	return weapons, err
}
