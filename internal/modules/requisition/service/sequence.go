package requisition

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	repo "pera.com/perasystem/internal/modules/requisition/repository"
)

// Sequencer hands out per-year request number sequence values.
type Sequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

type redisSequencer struct {
	rdb  *redis.Client
	repo repo.Repository
}

// NewSequencer uses redis INCR when a client is configured and the
// requisition_sequences table otherwise.
func NewSequencer(rdb *redis.Client, repository repo.Repository) Sequencer {
	if rdb == nil {
		return &dbSequencer{repo: repository}
	}
	return &redisSequencer{rdb: rdb, repo: repository}
}

func sequenceKey(year int) string {
	return fmt.Sprintf("requisition:seq:%d", year)
}

func (s *redisSequencer) Next(ctx context.Context, year int) (int64, error) {
	key := sequenceKey(year)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}
	if exists == 0 {
		seed, err := s.repo.MaxSequence(ctx, year)
		if err != nil {
			return 0, fmt.Errorf("failed to seed sequence: %w", err)
		}
		// a concurrent seeder may win; either value is the same floor
		if err := s.rdb.SetNX(ctx, key, seed, 0).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed sequence: %w", err)
		}
	}

	next, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	return next, nil
}

type dbSequencer struct {
	repo repo.Repository
}

func (s *dbSequencer) Next(ctx context.Context, year int) (int64, error) {
	next, err := s.repo.NextSequence(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	return next, nil
}
