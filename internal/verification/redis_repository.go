package verification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores pending verifications in Redis as JSON under
// "verify:<email>" with TTL = expiresAt - now, so abandoned registrations
// clean themselves up.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based verification repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "verify:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(email string) string {
	return r.prefix + email
}

func (r *RedisRepository) Put(ctx context.Context, p *Pending) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	exp := time.Until(p.ExpiresAt)
	if exp <= 0 {
		// minimal TTL so Redis won't keep already-expired entries
		exp = time.Second
	}
	return r.client.Set(ctx, r.key(p.Email), b, exp).Err()
}

func (r *RedisRepository) GetByEmail(ctx context.Context, email string) (*Pending, error) {
	b, err := r.client.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var p Pending
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	if time.Now().UTC().After(p.ExpiresAt) {
		_ = r.client.Del(ctx, r.key(email)).Err()
		return nil, nil
	}
	return &p, nil
}

func (r *RedisRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}
