package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"pera.com/perasystem/internal/entity"
)

const (
	maintenanceWindow = 7 * 24 * time.Hour
	insuranceWindow   = 30 * 24 * time.Hour
)

type StationIndexer interface {
	Reindex(ctx context.Context) (int, error)
}

type reindexJob struct {
	stations StationIndexer
	logger   *zap.Logger
}

// NewStationReindexJob rebuilds the station search index every night.
func NewStationReindexJob(stations StationIndexer, logger *zap.Logger) Job {
	return &reindexJob{stations: stations, logger: logger}
}

func (j *reindexJob) Name() string     { return "station-search-reindex" }
func (j *reindexJob) Schedule() string { return "0 2 * * *" }

func (j *reindexJob) Run(ctx context.Context) error {
	n, err := j.stations.Reindex(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("stations reindexed", zap.Int("count", n))
	return nil
}

type VehicleSource interface {
	FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Vehicle, error)
	FindInsuranceExpiring(ctx context.Context, before time.Time) ([]*entity.Vehicle, error)
}

type WeaponSource interface {
	FindMaintenanceDue(ctx context.Context, before time.Time) ([]*entity.Weapon, error)
}

type UserDirectory interface {
	FindByDesignation(ctx context.Context, designation string) ([]*entity.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, notifications ...*entity.Notification) error
}

type maintenanceJob struct {
	vehicles VehicleSource
	weapons  WeaponSource
	users    UserDirectory
	notifier Notifier
	now      func() time.Time
}

// NewMaintenanceDueJob warns administrators about upcoming maintenance and
// expiring vehicle insurance.
func NewMaintenanceDueJob(vehicles VehicleSource, weapons WeaponSource, users UserDirectory, notifier Notifier) Job {
	return &maintenanceJob{
		vehicles: vehicles,
		weapons:  weapons,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

func (j *maintenanceJob) Name() string     { return "maintenance-due" }
func (j *maintenanceJob) Schedule() string { return "0 6 * * *" }

type alert struct {
	entityID   uuid.UUID
	entityType string
	ref        string
	message    string
}

func (j *maintenanceJob) Run(ctx context.Context) error {
	now := j.now()

	vehicles, err := j.vehicles.FindMaintenanceDue(ctx, now.Add(maintenanceWindow))
	if err != nil {
		return fmt.Errorf("failed to load vehicles due for maintenance: %w", err)
	}
	weapons, err := j.weapons.FindMaintenanceDue(ctx, now.Add(maintenanceWindow))
	if err != nil {
		return fmt.Errorf("failed to load weapons due for maintenance: %w", err)
	}
	insured, err := j.vehicles.FindInsuranceExpiring(ctx, now.Add(insuranceWindow))
	if err != nil {
		return fmt.Errorf("failed to load expiring insurance: %w", err)
	}

	var alerts []alert
	for _, v := range vehicles {
		alerts = append(alerts, alert{
			entityID:   v.ID,
			entityType: "vehicle",
			ref:        v.RegistrationNumber,
			message:    fmt.Sprintf("Vehicle %s is due for maintenance on %s", v.RegistrationNumber, v.NextMaintenanceDate.Format(time.DateOnly)),
		})
	}
	for _, w := range weapons {
		alerts = append(alerts, alert{
			entityID:   w.ID,
			entityType: "weapon",
			ref:        w.SerialNumber,
			message:    fmt.Sprintf("Weapon %s (%s) is due for maintenance on %s", w.SerialNumber, w.WeaponType, w.NextMaintenanceDate.Format(time.DateOnly)),
		})
	}
	for _, v := range insured {
		alerts = append(alerts, alert{
			entityID:   v.ID,
			entityType: "vehicle",
			ref:        v.RegistrationNumber,
			message:    fmt.Sprintf("Insurance for vehicle %s expires on %s", v.RegistrationNumber, v.Insurance.ExpiryDate.Format(time.DateOnly)),
		})
	}
	if len(alerts) == 0 {
		return nil
	}

	admins, err := j.users.FindByDesignation(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to load administrators: %w", err)
	}

	var notes []*entity.Notification
	for _, admin := range admins {
		if !admin.IsActive {
			continue
		}
		for _, a := range alerts {
			notes = append(notes, &entity.Notification{
				UserID:     admin.ID,
				EntityID:   a.entityID,
				EntityType: a.entityType,
				EntityRef:  a.ref,
				Type:       entity.NotificationMaintenanceDue,
				Message:    a.message,
			})
		}
	}
	if len(notes) == 0 {
		return nil
	}
	return j.notifier.Notify(ctx, notes...)
}
