package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dcip/internal/models"
	keys "dcip/internal/utils/cache"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Client exposes the underlying redis client for counters and health checks.
func (s *CacheService) Client() *redis.Client {
	return s.client
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// cachedPrincipal carries the token version, which Principal hides from JSON.
type cachedPrincipal struct {
	models.Principal
	Version int `json:"token_version"`
}

func principalKey(kind models.PrincipalKind, id uint) string {
	return keys.GenerateKey(keys.EntityPrincipal, string(kind), id)
}

// CachePrincipal stores a resolved identity until the next invalidation.
func (s *CacheService) CachePrincipal(ctx context.Context, p *models.Principal) error {
	if p == nil {
		return errors.New("cannot cache nil principal")
	}
	return s.Set(ctx, principalKey(p.Kind, p.ID), cachedPrincipal{Principal: *p, Version: p.TokenVersion})
}

// GetPrincipal returns nil without error on a cache miss.
func (s *CacheService) GetPrincipal(ctx context.Context, kind models.PrincipalKind, id uint) (*models.Principal, error) {
	var cp cachedPrincipal
	found, err := s.Get(ctx, principalKey(kind, id), &cp)
	if err != nil || !found {
		return nil, err
	}
	p := cp.Principal
	p.TokenVersion = cp.Version
	return &p, nil
}

func (s *CacheService) InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error {
	return s.Delete(ctx, principalKey(kind, id))
}

// Ping reports whether redis is reachable.
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
