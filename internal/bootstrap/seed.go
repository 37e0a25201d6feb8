package bootstrap

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
)

const (
	AdminEmail      = "admin@pera.com"
	AdminEmployeeID = "ADMIN-001"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Station{},
		&entity.User{},
		&entity.Vehicle{},
		&entity.Weapon{},
		&entity.Requisition{},
		&entity.RequisitionAttachment{},
		&entity.RequisitionSequence{},
		&entity.Notification{},
	)
}

// SeedAdminUser creates the default administrator unless the account exists.
func SeedAdminUser(db *gorm.DB, password string, logger *zap.Logger) (bool, error) {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", AdminEmail).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up admin user: %w", err)
	}

	if count > 0 {
		logger.Info("admin user already exists, skipping seed", zap.String("email", AdminEmail))
		return false, nil
	}

	admin := entity.User{
		Name:        "Administrator",
		Email:       AdminEmail,
		EmployeeID:  AdminEmployeeID,
		Designation: entity.RoleAdmin,
		Rank:        "Administrator",
		IsActive:    true,
	}
	admin.SetPassword(password)

	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user seeded", zap.String("email", AdminEmail))
	return true, nil
}
