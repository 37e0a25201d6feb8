package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type CreateWeaponRequest struct {
	WeaponType          string     `json:"weaponType" binding:"required,oneof=AK-47 Beretta Pistol Rifle Other"`
	SerialNumber        string     `json:"serialNumber" binding:"required,max=60"`
	PurchaseDate        *time.Time `json:"purchaseDate" binding:"required"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`
	CurrentLocation     string     `json:"currentLocation" binding:"omitempty,uuid"`
	Notes               string     `json:"notes"`
}

type UpdateWeaponRequest struct {
	WeaponType          *string    `json:"weaponType" binding:"omitempty,oneof=AK-47 Beretta Pistol Rifle Other"`
	SerialNumber        *string    `json:"serialNumber" binding:"omitempty,min=1,max=60"`
	PurchaseDate        *time.Time `json:"purchaseDate"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`
	CurrentLocation     *string    `json:"currentLocation" binding:"omitempty,uuid"`
	Notes               *string    `json:"notes"`
	IsActive            *bool      `json:"isActive"`
}

type UpdateStatusRequest struct {
	Status     string `json:"status" binding:"required,oneof=available assigned under_maintenance damaged decommissioned"`
	AssignedTo string `json:"assignedTo" binding:"omitempty,uuid"`
}

type WeaponFilter struct {
	Status          string `form:"status" binding:"omitempty,oneof=available assigned under_maintenance damaged decommissioned"`
	WeaponType      string `form:"weaponType"`
	CurrentLocation string `form:"currentLocation" binding:"omitempty,uuid"`
	Active          *bool  `form:"active"`
	Search          string `form:"search"`
	commonDto.Pagination
}

type WeaponResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	WeaponType          string                    `json:"weaponType"`
	SerialNumber        string                    `json:"serialNumber"`
	Status              string                    `json:"status"`
	AssignedTo          *commonDto.UserSummary    `json:"assignedTo,omitempty"`
	CurrentLocation     *commonDto.StationSummary `json:"currentLocation,omitempty"`
	PurchaseDate        time.Time                 `json:"purchaseDate"`
	LastMaintenanceDate *time.Time                `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time                `json:"nextMaintenanceDate,omitempty"`
	IsActive            bool                      `json:"isActive"`
	Notes               string                    `json:"notes,omitempty"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
}

func NewWeaponResponse(w *entity.Weapon) *WeaponResponse {
	return &WeaponResponse{
		ID:                  w.ID,
		WeaponType:          w.WeaponType,
		SerialNumber:        w.SerialNumber,
		Status:              w.Status,
		AssignedTo:          commonDto.NewUserSummary(w.AssignedTo),
		CurrentLocation:     commonDto.NewStationSummary(w.CurrentLocation),
		PurchaseDate:        w.PurchaseDate,
		LastMaintenanceDate: w.LastMaintenanceDate,
		NextMaintenanceDate: w.NextMaintenanceDate,
		IsActive:            w.IsActive,
		Notes:               w.Notes,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
}

type WeaponListResponse struct {
	Weapons []*WeaponResponse
	Total   int64
	Page    int
}
