package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationRequisitionAssigned = "requisition_assigned"
	NotificationRequisitionStatus   = "requisition_status"
	NotificationMaintenanceDue      = "maintenance_due"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actorId,omitempty"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null" json:"entityId"`
	EntityType string     `gorm:"type:varchar(50);not null" json:"entityType"`
	EntityRef  string     `gorm:"type:varchar(60)" json:"entityRef,omitempty"`
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false" json:"isRead"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
