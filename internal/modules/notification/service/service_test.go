package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/modules/notification/dto"
	"pera.com/perasystem/pkg/apperror"
)

type fakeRepo struct {
	stored []*entity.Notification
}

func (f *fakeRepo) Create(_ context.Context, ns []*entity.Notification) error {
	f.stored = append(f.stored, ns...)
	return nil
}

func (f *fakeRepo) FindByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range f.stored {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) MarkAsRead(_ context.Context, id, userID uuid.UUID) error {
	for _, n := range f.stored {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, x := range f.stored {
		if x.UserID == userID && !x.IsRead {
			x.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, x := range f.stored {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func TestNotify_PublishesToRecipientChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	recipient := uuid.New()
	sub := rdb.Subscribe(ctx, Channel(recipient))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	repo := &fakeRepo{}
	svc := NewService(repo, rdb, zap.NewNop())

	err = svc.Notify(ctx, &entity.Notification{
		UserID:     recipient,
		EntityID:   uuid.New(),
		EntityType: "requisition",
		EntityRef:  "REQ-2026-00001",
		Type:       entity.NotificationRequisitionAssigned,
		Message:    "you were assigned",
	})
	require.NoError(t, err)
	require.Len(t, repo.stored, 1)
	assert.NotEqual(t, uuid.Nil, repo.stored[0].ID)

	select {
	case msg := <-sub.Channel():
		var payload dto.NotificationResponse
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
		assert.Equal(t, "REQ-2026-00001", payload.EntityRef)
		assert.Equal(t, repo.stored[0].ID, payload.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification published")
	}
}

func TestNotify_WithoutRedis(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, zap.NewNop())

	require.NoError(t, svc.Notify(context.Background()))
	require.NoError(t, svc.Notify(context.Background(), &entity.Notification{UserID: uuid.New()}))
	assert.Len(t, repo.stored, 1)
}

func TestReadState(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()
	me, other := uuid.New(), uuid.New()

	require.NoError(t, svc.Notify(ctx,
		&entity.Notification{UserID: me},
		&entity.Notification{UserID: me},
		&entity.Notification{UserID: other},
	))

	count, err := svc.UnreadCount(ctx, me)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	err = svc.MarkAsRead(ctx, me, repo.stored[2].ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.MarkAsRead(ctx, me, repo.stored[0].ID))
	count, _ = svc.UnreadCount(ctx, me)
	assert.EqualValues(t, 1, count)

	updated, err := svc.MarkAllAsRead(ctx, me)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	list, err := svc.List(ctx, me, dto.ListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
