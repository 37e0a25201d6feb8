package dto

import (
	"io"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
)

// UploadedFile is a file received from a multipart request.
type UploadedFile struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Size        int64
}

type Pagination struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Normalize applies defaults and returns the row offset.
func (p *Pagination) Normalize(defaultLimit int) int {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	return (p.Page - 1) * p.Limit
}

type ListResponse struct {
	Success bool  `json:"success"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Data    any   `json:"data"`
}

// The summaries below are the "populated" shapes of cross-entity references.

type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	EmployeeID  string    `json:"employeeId"`
	Designation string    `json:"designation,omitempty"`
}

type StationSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
	Type string    `json:"type"`
}

type VehicleSummary struct {
	ID                 uuid.UUID `json:"id"`
	RegistrationNumber string    `json:"registrationNumber"`
	VehicleType        string    `json:"vehicleType"`
	Make               string    `json:"make,omitempty"`
	Model              string    `json:"model,omitempty"`
}

type WeaponSummary struct {
	ID           uuid.UUID `json:"id"`
	WeaponType   string    `json:"weaponType"`
	SerialNumber string    `json:"serialNumber"`
}

func NewUserSummary(u *entity.User) *UserSummary {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		EmployeeID:  u.EmployeeID,
		Designation: u.Designation,
	}
}

func NewStationSummary(s *entity.Station) *StationSummary {
	if s == nil || s.ID == uuid.Nil {
		return nil
	}
	return &StationSummary{ID: s.ID, Name: s.Name, Code: s.Code, Type: s.Type}
}

func NewVehicleSummary(v *entity.Vehicle) VehicleSummary {
	return VehicleSummary{
		ID:                 v.ID,
		RegistrationNumber: v.RegistrationNumber,
		VehicleType:        v.VehicleType,
		Make:               v.Make,
		Model:              v.Model,
	}
}

func NewWeaponSummary(w *entity.Weapon) WeaponSummary {
	return WeaponSummary{ID: w.ID, WeaponType: w.WeaponType, SerialNumber: w.SerialNumber}
}
