package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pdfbatch/internal/domain"
)

const redisKeyPrefix = "pdfbatch:output:"

// Redis keeps documents as string values that expire after the retention period.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a store on client; ttl 0 keeps documents until deleted.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) key(name string) (string, error) {
	if err := ValidName(name); err != nil {
		return "", err
	}
	return redisKeyPrefix + name, nil
}

func (r *Redis) Save(ctx context.Context, name string, data []byte) error {
	key, err := r.key(name)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

func (r *Redis) Open(ctx context.Context, name string) ([]byte, error) {
	key, err := r.key(name)
	if err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

func (r *Redis) Delete(ctx context.Context, name string) error {
	key, err := r.key(name)
	if err != nil {
		return err
	}
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	return nil
}
