package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/notification/dto"
	repo "pera.com/perasystem/internal/modules/notification/repository"
	"pera.com/perasystem/pkg/apperror"
)

const defaultLimit = 20

// Channel is the redis pub/sub channel carrying a user's notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type Service interface {
	Notify(ctx context.Context, notifications ...*entity.Notification) error
	List(ctx context.Context, userID uuid.UUID, query dto.ListQuery) ([]*dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo        repo.Repository
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewService(repo repo.Repository, redisClient *redis.Client, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Notify stores the notifications and publishes each one to its recipient's
// channel. Publishing is best effort.
func (s *service) Notify(ctx context.Context, notifications ...*entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	for _, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
	}

	if err := s.repo.Create(ctx, notifications); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}

	if s.redisClient == nil {
		return nil
	}
	for _, n := range notifications {
		payload, err := json.Marshal(dto.NewNotificationResponse(n))
		if err != nil {
			continue
		}
		if err := s.redisClient.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
			s.logger.Warn("failed to publish notification",
				zap.String("user_id", n.UserID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, query dto.ListQuery) ([]*dto.NotificationResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	notifications, err := s.repo.FindByUser(ctx, userID, limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	res := make([]*dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, dto.NewNotificationResponse(n))
	}
	return res, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %w", apperror.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
