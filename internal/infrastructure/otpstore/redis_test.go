package otpstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-otp-auth/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := &domain.OTPRecord{Email: "a@b.com", CodeHash: "hash-1", IssuanceID: "i-1"}
	require.NoError(t, s.Put(ctx, rec, 5*time.Minute))

	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.CodeHash)
	assert.Equal(t, rec.ExpiresAt, got.ExpiresAt)
}

func TestRedisStore_GetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Get(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRedisStore_RetainsExpiredWithinGrace(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", CodeHash: "h"}, 5*time.Minute))

	// Past the logical TTL but inside the retention grace: the record is
	// still readable and reports itself expired. FastForward only moves
	// miniredis' clock, so expiry is checked against a shifted instant.
	mr.FastForward(6 * time.Minute)
	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, got.Expired(time.Now().Add(6*time.Minute)))
	assert.False(t, got.Expired(time.Now()))

	// Past the grace too: the key is gone.
	mr.FastForward(retentionGrace)
	_, err = s.Get(ctx, "a@b.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRedisStore_Invalidate(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", CodeHash: "h"}, time.Minute))

	removed, err := s.Invalidate(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Invalidate(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisStore_PutOverwrites(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", CodeHash: "old"}, time.Minute))
	require.NoError(t, s.Put(ctx, &domain.OTPRecord{Email: "a@b.com", CodeHash: "new"}, time.Minute))

	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "new", got.CodeHash)
}
