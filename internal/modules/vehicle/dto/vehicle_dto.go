package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type InsuranceInput struct {
	PolicyNumber string     `json:"policyNumber" binding:"max=60"`
	Provider     string     `json:"provider" binding:"max=100"`
	ExpiryDate   *time.Time `json:"expiryDate"`
}

type CreateVehicleRequest struct {
	RegistrationNumber  string          `json:"registrationNumber" binding:"required,max=30"`
	VehicleType         string          `json:"vehicleType" binding:"required,oneof='Double Cabin' 'Single Cabin' Bike Jeep Car Van Other"`
	Make                string          `json:"make" binding:"required,max=60"`
	Model               string          `json:"model" binding:"required,max=60"`
	Year                int             `json:"year" binding:"required,gte=1950"`
	CurrentLocation     string          `json:"currentLocation" binding:"omitempty,uuid"`
	LastMaintenanceDate *time.Time      `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time      `json:"nextMaintenanceDate"`
	OdometerReading     int             `json:"odometerReading" binding:"gte=0"`
	FuelType            string          `json:"fuelType" binding:"required,oneof=petrol diesel cng electric hybrid other"`
	FuelEfficiency      *float64        `json:"fuelEfficiency" binding:"omitempty,gte=0"`
	InsuranceDetails    *InsuranceInput `json:"insuranceDetails"`
	Notes               string          `json:"notes"`
}

type UpdateVehicleRequest struct {
	RegistrationNumber  *string         `json:"registrationNumber" binding:"omitempty,min=1,max=30"`
	VehicleType         *string         `json:"vehicleType" binding:"omitempty,oneof='Double Cabin' 'Single Cabin' Bike Jeep Car Van Other"`
	Make                *string         `json:"make" binding:"omitempty,min=1,max=60"`
	Model               *string         `json:"model" binding:"omitempty,min=1,max=60"`
	Year                *int            `json:"year" binding:"omitempty,gte=1950"`
	CurrentLocation     *string         `json:"currentLocation" binding:"omitempty,uuid"`
	LastMaintenanceDate *time.Time      `json:"lastMaintenanceDate"`
	NextMaintenanceDate *time.Time      `json:"nextMaintenanceDate"`
	OdometerReading     *int            `json:"odometerReading" binding:"omitempty,gte=0"`
	FuelType            *string         `json:"fuelType" binding:"omitempty,oneof=petrol diesel cng electric hybrid other"`
	FuelEfficiency      *float64        `json:"fuelEfficiency" binding:"omitempty,gte=0"`
	InsuranceDetails    *InsuranceInput `json:"insuranceDetails"`
	Notes               *string         `json:"notes"`
	IsActive            *bool           `json:"isActive"`
}

type UpdateStatusRequest struct {
	Status     string `json:"status" binding:"required,oneof=available assigned in_use under_maintenance out_of_service"`
	AssignedTo string `json:"assignedTo" binding:"omitempty,uuid"`
}

type VehicleFilter struct {
	Status          string `form:"status" binding:"omitempty,oneof=available assigned in_use under_maintenance out_of_service"`
	VehicleType     string `form:"vehicleType"`
	CurrentLocation string `form:"currentLocation" binding:"omitempty,uuid"`
	Active          *bool  `form:"active"`
	Search          string `form:"search"`
	commonDto.Pagination
}

type VehicleResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	RegistrationNumber  string                    `json:"registrationNumber"`
	VehicleType         string                    `json:"vehicleType"`
	Make                string                    `json:"make"`
	Model               string                    `json:"model"`
	Year                int                       `json:"year"`
	Status              string                    `json:"status"`
	CurrentLocation     *commonDto.StationSummary `json:"currentLocation,omitempty"`
	AssignedTo          *commonDto.UserSummary    `json:"assignedTo,omitempty"`
	LastMaintenanceDate *time.Time                `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time                `json:"nextMaintenanceDate,omitempty"`
	OdometerReading     int                       `json:"odometerReading"`
	FuelType            string                    `json:"fuelType"`
	FuelEfficiency      *float64                  `json:"fuelEfficiency,omitempty"`
	InsuranceDetails    entity.InsuranceDetails   `json:"insuranceDetails"`
	IsActive            bool                      `json:"isActive"`
	Notes               string                    `json:"notes,omitempty"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
}

func NewVehicleResponse(v *entity.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:                  v.ID,
		RegistrationNumber:  v.RegistrationNumber,
		VehicleType:         v.VehicleType,
		Make:                v.Make,
		Model:               v.Model,
		Year:                v.Year,
		Status:              v.Status,
		CurrentLocation:     commonDto.NewStationSummary(v.CurrentLocation),
		AssignedTo:          commonDto.NewUserSummary(v.AssignedTo),
		LastMaintenanceDate: v.LastMaintenanceDate,
		NextMaintenanceDate: v.NextMaintenanceDate,
		OdometerReading:     v.OdometerReading,
		FuelType:            v.FuelType,
		FuelEfficiency:      v.FuelEfficiency,
		InsuranceDetails:    v.Insurance,
		IsActive:            v.IsActive,
		Notes:               v.Notes,
		CreatedAt:           v.CreatedAt,
		UpdatedAt:           v.UpdatedAt,
	}
}

type VehicleListResponse struct {
	Vehicles []*VehicleResponse
	Total    int64
	Page     int
}
