package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	"github.com/redis/go-redis/v9"
)

// retentionGrace keeps a record in Redis past its logical expiry so a late
// verification reads "expired" instead of "not found". Key expiration then
// takes care of cleanup.
const retentionGrace = 10 * time.Minute

const keyPrefix = "otp:"

// RedisStore keeps OTP records as JSON values under otp:<email>.
// DEL's removed-key count backs Invalidate, so two racing verifications
// resolve to exactly one winner without any client-side locking.
type RedisStore struct {
	client *redis.Client
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, rec *domain.OTPRecord, ttl time.Duration) error {
	rec.ExpiresAt = time.Now().Add(ttl).Unix()
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+rec.Email, b, ttl+retentionGrace).Err()
}

func (s *RedisStore) Get(ctx context.Context, email string) (*domain.OTPRecord, error) {
	b, err := s.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("no otp for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get otp record: %w", err)
	}
	var rec domain.OTPRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal otp record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Del(ctx, keyPrefix+email).Result()
	if err != nil {
		return false, fmt.Errorf("delete otp record: %w", err)
	}
	return n > 0, nil
}
