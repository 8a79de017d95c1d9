package services

import (
	"context"
	"fmt"
	"time"

	"github.com/givecycle/marketplace/pkg/pg"
	"github.com/givecycle/marketplace/pkg/redis"
)

type HealthService struct {
	db    *pg.DB
	redis redis.RedisAdapter
}

func NewHealthService(db *pg.DB, redisAdapter redis.RedisAdapter) *HealthService {
	return &HealthService{db: db, redis: redisAdapter}
}

// Get reports whether the store's backing services are reachable.
func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	if s.db != nil {
		sqlDB, err := s.db.Read(ctx).DB()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if s.redis != nil {
		if _, err := s.redis.Exist("health"); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	return nil
}
