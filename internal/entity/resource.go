package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VehicleStatusAvailable        = "available"
	VehicleStatusAssigned         = "assigned"
	VehicleStatusInUse            = "in_use"
	VehicleStatusUnderMaintenance = "under_maintenance"
	VehicleStatusOutOfService     = "out_of_service"
)

var VehicleStatuses = []string{
	VehicleStatusAvailable,
	VehicleStatusAssigned,
	VehicleStatusInUse,
	VehicleStatusUnderMaintenance,
	VehicleStatusOutOfService,
}

var VehicleTypes = []string{"Double Cabin", "Single Cabin", "Bike", "Jeep", "Car", "Van", "Other"}

var FuelTypes = []string{"petrol", "diesel", "cng", "electric", "hybrid", "other"}

type InsuranceDetails struct {
	PolicyNumber string     `gorm:"size:60" json:"policyNumber,omitempty"`
	Provider     string     `gorm:"size:100" json:"provider,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
}

type Vehicle struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RegistrationNumber  string           `gorm:"size:30;uniqueIndex;not null" json:"registrationNumber"`
	VehicleType         string           `gorm:"size:30;not null" json:"vehicleType"`
	Make                string           `gorm:"size:60;not null" json:"make"`
	Model               string           `gorm:"size:60;not null" json:"model"`
	Year                int              `gorm:"not null" json:"year"`
	Status              string           `gorm:"size:30;index;not null;default:available" json:"status"`
	CurrentLocationID   *uuid.UUID       `gorm:"type:uuid" json:"currentLocationId,omitempty"`
	CurrentLocation     *Station         `gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL" json:"currentLocation,omitempty"`
	AssignedToID        *uuid.UUID       `gorm:"type:uuid" json:"assignedToId,omitempty"`
	AssignedTo          *User            `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"assignedTo,omitempty"`
	LastMaintenanceDate *time.Time       `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time       `json:"nextMaintenanceDate,omitempty"`
	OdometerReading     int              `gorm:"not null;default:0" json:"odometerReading"`
	FuelType            string           `gorm:"size:20;not null" json:"fuelType"`
	FuelEfficiency      *float64         `json:"fuelEfficiency,omitempty"`
	Insurance           InsuranceDetails `gorm:"embedded;embeddedPrefix:insurance_" json:"insuranceDetails"`
	IsActive            bool             `gorm:"not null;default:true" json:"isActive"`
	Notes               string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

const (
	WeaponStatusAvailable        = "available"
	WeaponStatusAssigned         = "assigned"
	WeaponStatusUnderMaintenance = "under_maintenance"
	WeaponStatusDamaged          = "damaged"
	WeaponStatusDecommissioned   = "decommissioned"
)

var WeaponStatuses = []string{
	WeaponStatusAvailable,
	WeaponStatusAssigned,
	WeaponStatusUnderMaintenance,
	WeaponStatusDamaged,
	WeaponStatusDecommissioned,
}

var WeaponTypes = []string{"AK-47", "Beretta", "Pistol", "Rifle", "Other"}

type Weapon struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WeaponType          string     `gorm:"size:30;not null" json:"weaponType"`
	SerialNumber        string     `gorm:"size:60;uniqueIndex;not null" json:"serialNumber"`
	Status              string     `gorm:"size:30;index;not null;default:available" json:"status"`
	AssignedToID        *uuid.UUID `gorm:"type:uuid" json:"assignedToId,omitempty"`
	AssignedTo          *User      `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"assignedTo,omitempty"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate,omitempty"`
	PurchaseDate        time.Time  `gorm:"not null" json:"purchaseDate"`
	Notes               string     `gorm:"type:text" json:"notes,omitempty"`
	CurrentLocationID   *uuid.UUID `gorm:"type:uuid" json:"currentLocationId,omitempty"`
	CurrentLocation     *Station   `gorm:"foreignKey:CurrentLocationID;constraint:OnDelete:SET NULL" json:"currentLocation,omitempty"`
	IsActive            bool       `gorm:"not null;default:true" json:"isActive"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (w *Weapon) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Contains reports whether value is one of options.
func Contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
