package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StationTypePoliceStation  = "police_station"
	StationTypeCheckPost      = "check_post"
	StationTypeHeadquarters   = "headquarters"
	StationTypeRegionalOffice = "regional_office"
	StationTypeOther          = "other"
)

var StationTypes = []string{
	StationTypePoliceStation,
	StationTypeCheckPost,
	StationTypeHeadquarters,
	StationTypeRegionalOffice,
	StationTypeOther,
}

var Provinces = []string{"Punjab", "Sindh", "KPK", "Balochistan", "Gilgit-Baltistan", "AJK"}

var WorkingDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Address is embedded into the stations table with an address_ prefix.
// Longitude/Latitude are nil when the station has no address.
type Address struct {
	Street     string   `gorm:"size:200" json:"street,omitempty"`
	City       string   `gorm:"size:100" json:"city,omitempty"`
	District   string   `gorm:"size:100" json:"district,omitempty"`
	Province   string   `gorm:"size:30" json:"province,omitempty"`
	PostalCode string   `gorm:"size:20" json:"postalCode,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Latitude   *float64 `gorm:"index" json:"latitude,omitempty"`
}

func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.District == "" && a.Province == "" &&
		a.PostalCode == "" && a.Longitude == nil && a.Latitude == nil
}

type StationContact struct {
	Phone            []string `gorm:"serializer:json" json:"phone,omitempty"`
	Email            string   `gorm:"size:100" json:"email,omitempty"`
	EmergencyContact string   `gorm:"size:30" json:"emergencyContact,omitempty"`
}

type OperationalHours struct {
	Open        string   `gorm:"size:10" json:"open,omitempty"`
	Close       string   `gorm:"size:10" json:"close,omitempty"`
	WorkingDays []string `gorm:"serializer:json" json:"workingDays,omitempty"`
}

type Station struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string           `gorm:"size:150;not null;index" json:"name"`
	Code             string           `gorm:"size:30;uniqueIndex;not null" json:"code"`
	Type             string           `gorm:"size:30;not null" json:"type"`
	Address          Address          `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Contact          StationContact   `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	InChargeID       *uuid.UUID       `gorm:"type:uuid" json:"inChargeId,omitempty"`
	InCharge         *User            `gorm:"foreignKey:InChargeID;constraint:OnDelete:SET NULL" json:"inCharge,omitempty"`
	ParentStationID  *uuid.UUID       `gorm:"type:uuid;index" json:"parentStationId,omitempty"`
	ParentStation    *Station         `gorm:"foreignKey:ParentStationID;constraint:OnDelete:SET NULL" json:"parentStation,omitempty"`
	IsActive         bool             `gorm:"not null;default:true" json:"isActive"`
	OperationalHours OperationalHours `gorm:"embedded;embeddedPrefix:hours_" json:"operationalHours"`
	Facilities       []string         `gorm:"serializer:json" json:"facilities,omitempty"`
	Notes            string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (s *Station) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
