package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type AddressInput struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	District   string `json:"district" binding:"max=100"`
	Province   string `json:"province" binding:"omitempty,oneof=Punjab Sindh KPK Balochistan Gilgit-Baltistan AJK"`
	PostalCode string `json:"postalCode" binding:"max=20"`
	// Coordinates are [longitude, latitude].
	Coordinates []float64 `json:"coordinates" binding:"omitempty,len=2"`
}

func (a *AddressInput) IsEmpty() bool {
	return a == nil || (a.Street == "" && a.City == "" && a.District == "" &&
		a.Province == "" && a.PostalCode == "" && len(a.Coordinates) == 0)
}

type ContactInput struct {
	Phone            []string `json:"phone" binding:"omitempty,dive,max=30"`
	Email            string   `json:"email" binding:"omitempty,email"`
	EmergencyContact string   `json:"emergencyContact" binding:"max=30"`
}

type OperationalHoursInput struct {
	Open        string   `json:"open" binding:"max=10"`
	Close       string   `json:"close" binding:"max=10"`
	WorkingDays []string `json:"workingDays" binding:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

type CreateStationRequest struct {
	Name             string                 `json:"name" binding:"required,max=150"`
	Code             string                 `json:"code" binding:"required,max=30"`
	Type             string                 `json:"type" binding:"required,oneof=police_station check_post headquarters regional_office other"`
	Address          *AddressInput          `json:"address"`
	Contact          *ContactInput          `json:"contact"`
	InCharge         string                 `json:"inCharge" binding:"omitempty,uuid"`
	ParentStation    string                 `json:"parentStation" binding:"omitempty,uuid"`
	OperationalHours *OperationalHoursInput `json:"operationalHours"`
	Facilities       []string               `json:"facilities" binding:"omitempty,dive,max=100"`
	Notes            string                 `json:"notes"`
}

// UpdateStationRequest replaces only the sections that are present.
// An empty string for InCharge or ParentStation clears the reference.
type UpdateStationRequest struct {
	Name             *string                `json:"name" binding:"omitempty,min=1,max=150"`
	Type             *string                `json:"type" binding:"omitempty,oneof=police_station check_post headquarters regional_office other"`
	Address          *AddressInput          `json:"address"`
	Contact          *ContactInput          `json:"contact"`
	InCharge         *string                `json:"inCharge" binding:"omitempty,uuid"`
	ParentStation    *string                `json:"parentStation" binding:"omitempty,uuid"`
	OperationalHours *OperationalHoursInput `json:"operationalHours"`
	Facilities       []string               `json:"facilities" binding:"omitempty,dive,max=100"`
	Notes            *string                `json:"notes"`
	IsActive         *bool                  `json:"isActive"`
}

type StationFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=police_station check_post headquarters regional_office other"`
	Province string `form:"province" binding:"omitempty,oneof=Punjab Sindh KPK Balochistan Gilgit-Baltistan AJK"`
	City     string `form:"city"`
	Active   *bool  `form:"active"`
	Search   string `form:"search"`
	commonDto.Pagination
}

type NearbyQuery struct {
	Lat      *float64 `form:"lat" binding:"required,gte=-90,lte=90"`
	Lng      *float64 `form:"lng" binding:"required,gte=-180,lte=180"`
	RadiusKm float64  `form:"radiusKm" binding:"omitempty,gt=0,lte=500"`
}

type SearchQuery struct {
	Q     string `form:"q" binding:"required,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type StationResponse struct {
	ID               uuid.UUID                 `json:"id"`
	Name             string                    `json:"name"`
	Code             string                    `json:"code"`
	Type             string                    `json:"type"`
	Address          entity.Address            `json:"address"`
	Contact          entity.StationContact     `json:"contact"`
	InCharge         *commonDto.UserSummary    `json:"inCharge,omitempty"`
	ParentStation    *commonDto.StationSummary `json:"parentStation,omitempty"`
	IsActive         bool                      `json:"isActive"`
	OperationalHours entity.OperationalHours   `json:"operationalHours"`
	Facilities       []string                  `json:"facilities"`
	Notes            string                    `json:"notes,omitempty"`
	DistanceKm       *float64                  `json:"distanceKm,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

func NewStationResponse(s *entity.Station) *StationResponse {
	facilities := s.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	res := &StationResponse{
		ID:               s.ID,
		Name:             s.Name,
		Code:             s.Code,
		Type:             s.Type,
		Address:          s.Address,
		Contact:          s.Contact,
		InCharge:         commonDto.NewUserSummary(s.InCharge),
		ParentStation:    commonDto.NewStationSummary(s.ParentStation),
		IsActive:         s.IsActive,
		OperationalHours: s.OperationalHours,
		Facilities:       facilities,
		Notes:            s.Notes,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	return res
}

type StationListResponse struct {
	Stations []*StationResponse
	Total    int64
	Page     int
}
