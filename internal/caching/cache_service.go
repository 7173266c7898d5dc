package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"printforge/internal/models"

	"github.com/redis/go-redis/v9"
)

const planCatalogKey = "printforge:plans:catalog"

// CacheService wraps redis for the concerns this service actually
// caches: the static plan catalog and per-caller rate limit counters.
// Analytics deliberately bypasses it and always reads persisted state.
type CacheService interface {
	GetPlans(ctx context.Context) ([]models.Plan, error)
	SetPlans(ctx context.Context, plans []models.Plan, ttl time.Duration) error

	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (s *redisCacheService) GetPlans(ctx context.Context) ([]models.Plan, error) {
	data, err := s.client.Get(ctx, planCatalogKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var plans []models.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("unmarshal cached plans: %v", err)
	}
	return plans, nil
}

func (s *redisCacheService) SetPlans(ctx context.Context, plans []models.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("marshal plans: %v", err)
	}
	return s.client.Set(ctx, planCatalogKey, data, ttl).Err()
}

func (s *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := s.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= limit, nil
}

func (s *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
