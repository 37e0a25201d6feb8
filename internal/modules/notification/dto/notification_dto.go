package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type NotificationResponse struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	EntityID   uuid.UUID              `json:"entityId"`
	EntityType string                 `json:"entityType"`
	EntityRef  string                 `json:"entityRef,omitempty"`
	Actor      *commonDto.UserSummary `json:"actor,omitempty"`
	IsRead     bool                   `json:"isRead"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func NewNotificationResponse(n *entity.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Message:    n.Message,
		EntityID:   n.EntityID,
		EntityType: n.EntityType,
		EntityRef:  n.EntityRef,
		Actor:      commonDto.NewUserSummary(n.Actor),
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
}
