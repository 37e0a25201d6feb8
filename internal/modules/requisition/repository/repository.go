package requisition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
)

// ErrStaleVersion means the row changed since it was read.
var ErrStaleVersion = errors.New("requisition version is stale")

type Filter struct {
	Status        string
	RequestedByID *uuid.UUID
	OperationType string
	Urgency       string
	StartDate     *time.Time
	EndDate       *time.Time
	// VisibleTo limits results to requisitions the user requested or is
	// on the team of. nil means no restriction.
	VisibleTo *uuid.UUID
}

// ResourceChange moves the requisition's vehicles and weapons between
// statuses. Only rows currently in one of the From statuses are touched,
// and when Holder is set only rows assigned to that user.
type ResourceChange struct {
	VehicleIDs    []uuid.UUID
	VehicleStatus string
	VehicleFrom   []string
	WeaponIDs     []uuid.UUID
	WeaponStatus  string
	WeaponFrom    []string
	AssignedTo    *uuid.UUID
	Holder        *uuid.UUID
}

type StatusUpdate struct {
	ID               uuid.UUID
	Version          int
	Status           string
	SDORemarks       *string
	CompletionReport *string
	CompletedAt      *time.Time
	CompletedByID    *uuid.UUID
	Attachments      []entity.RequisitionAttachment
	Resources        *ResourceChange
}

type Repository interface {
	Create(ctx context.Context, requisition *entity.Requisition) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Requisition, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Requisition, int64, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	Delete(ctx context.Context, requisition *entity.Requisition) error
	CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[string]int64, error)
	MaxSequence(ctx context.Context, year int) (int64, error)
	NextSequence(ctx context.Context, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// RequestNumber formats a sequence value, e.g. REQ-2026-00042.
func RequestNumber(year int, seq int64) string {
	return fmt.Sprintf("REQ-%d-%05d", year, seq)
}

func requestPrefix(year int) string {
	return fmt.Sprintf("REQ-%d-", year)
}

func (r *repository) Create(ctx context.Context, requisition *entity.Requisition) error {
	return r.db.WithContext(ctx).
		Omit("RequestedBy", "CompletedBy", "AssignedTeam.*", "AssignedVehicles.*", "AssignedWeapons.*").
		Create(requisition).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Requisition, error) {
	var requisition entity.Requisition
	if err := r.preload(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&requisition).Error; err != nil {
		return nil, err
	}
	return &requisition, nil
}

func (r *repository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("RequestedBy").
		Preload("CompletedBy").
		Preload("AssignedTeam").
		Preload("AssignedVehicles").
		Preload("AssignedWeapons").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		})
}

func visible(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Where(
		"requested_by_id = ? OR id IN (SELECT requisition_id FROM requisition_team WHERE user_id = ?)",
		userID, userID,
	)
}

func (r *repository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Requisition, int64, error) {
	var requisitions []*entity.Requisition
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Requisition{})
	if filter.VisibleTo != nil {
		query = visible(query, *filter.VisibleTo)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequestedByID != nil {
		query = query.Where("requested_by_id = ?", *filter.RequestedByID)
	}
	if filter.OperationType != "" {
		query = query.Where("operation_type = ?", filter.OperationType)
	}
	if filter.Urgency != "" {
		query = query.Where("urgency = ?", filter.Urgency)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		query = query.Where("start_time BETWEEN ? AND ?", *filter.StartDate, *filter.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.preload(query).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requisitions).Error; err != nil {
		return nil, 0, err
	}

	return requisitions, total, nil
}

// UpdateStatus applies the status write, new attachments and resource moves
// in one transaction. The write is conditional on update.Version.
func (r *repository) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"status":     update.Status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}
		if update.SDORemarks != nil {
			fields["sdo_remarks"] = *update.SDORemarks
		}
		if update.CompletionReport != nil {
			fields["completion_report"] = *update.CompletionReport
		}
		if update.CompletedAt != nil {
			fields["completed_at"] = *update.CompletedAt
			fields["completed_by_id"] = update.CompletedByID
		}

		res := tx.Model(&entity.Requisition{}).
			Where("id = ? AND version = ?", update.ID, update.Version).
			UpdateColumns(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleVersion
		}

		if len(update.Attachments) > 0 {
			for i := range update.Attachments {
				update.Attachments[i].RequisitionID = update.ID
			}
			if err := tx.Create(&update.Attachments).Error; err != nil {
				return err
			}
		}

		if update.Resources != nil {
			return applyResourceChange(tx, update.Resources)
		}
		return nil
	})
}

func applyResourceChange(tx *gorm.DB, change *ResourceChange) error {
	held := func(q *gorm.DB) *gorm.DB {
		if change.Holder != nil {
			return q.Where("assigned_to_id = ?", *change.Holder)
		}
		return q
	}

	if len(change.VehicleIDs) > 0 && change.VehicleStatus != "" {
		if err := held(tx.Model(&entity.Vehicle{}).
			Where("id IN ? AND status IN ?", change.VehicleIDs, change.VehicleFrom)).
			Updates(map[string]any{"status": change.VehicleStatus, "assigned_to_id": change.AssignedTo}).Error; err != nil {
			return fmt.Errorf("failed to update vehicles: %w", err)
		}
	}
	if len(change.WeaponIDs) > 0 && change.WeaponStatus != "" {
		if err := held(tx.Model(&entity.Weapon{}).
			Where("id IN ? AND status IN ?", change.WeaponIDs, change.WeaponFrom)).
			Updates(map[string]any{"status": change.WeaponStatus, "assigned_to_id": change.AssignedTo}).Error; err != nil {
			return fmt.Errorf("failed to update weapons: %w", err)
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, requisition *entity.Requisition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("requisition_id = ?", requisition.ID).Delete(&entity.RequisitionAttachment{}).Error; err != nil {
			return err
		}
		for _, assoc := range []string{"AssignedTeam", "AssignedVehicles", "AssignedWeapons"} {
			if err := tx.Model(requisition).Association(assoc).Clear(); err != nil {
				return err
			}
		}
		res := tx.Delete(&entity.Requisition{}, "id = ?", requisition.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	query := r.db.WithContext(ctx).Model(&entity.Requisition{})
	if visibleTo != nil {
		query = visible(query, *visibleTo)
	}
	if err := query.
		Select("status, COUNT(*) AS count").
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

// MaxSequence returns the highest sequence already used in year, or 0.
func (r *repository) MaxSequence(ctx context.Context, year int) (int64, error) {
	var latest *string
	prefix := requestPrefix(year)
	if err := r.db.WithContext(ctx).
		Model(&entity.Requisition{}).
		Select("request_number").
		Where("request_number LIKE ?", prefix+"%").
		Order("length(request_number) DESC, request_number DESC").
		Limit(1).
		Scan(&latest).Error; err != nil {
		return 0, err
	}
	if latest == nil || *latest == "" {
		return 0, nil
	}

	seq, err := strconv.ParseInt(strings.TrimPrefix(*latest, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed request number %q: %w", *latest, err)
	}
	return seq, nil
}

// NextSequence atomically advances the year's counter row. A missing row is
// seeded from the highest request number already stored.
func (r *repository) NextSequence(ctx context.Context, year int) (int64, error) {
	seed, err := r.MaxSequence(ctx, year)
	if err != nil {
		return 0, err
	}

	var value int64
	err = r.db.WithContext(ctx).Raw(
		`INSERT INTO requisition_sequences (year, value) VALUES (?, ?)
		 ON CONFLICT (year) DO UPDATE SET value = requisition_sequences.value + 1
		 RETURNING value`,
		year, seed+1,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
