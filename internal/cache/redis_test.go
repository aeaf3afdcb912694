package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestChannelCacheRoundTrip(t *testing.T) {
	setupTestCache(t)
	ctx := context.Background()

	_, ok := GetCachedChannel(ctx, "acct-1", "sms")
	require.False(t, ok)

	payload := []byte(`{"phone_number":"+905321112233","verified":true,"enabled":true}`)
	CacheChannel(ctx, "acct-1", "sms", payload)

	got, ok := GetCachedChannel(ctx, "acct-1", "sms")
	require.True(t, ok)
	assert.Equal(t, payload, got)

	// Kinds are cached independently.
	_, ok = GetCachedChannel(ctx, "acct-1", "whatsapp")
	assert.False(t, ok)
}

func TestInvalidateChannel(t *testing.T) {
	setupTestCache(t)
	ctx := context.Background()

	CacheChannel(ctx, "acct-1", "sms", []byte(`{}`))
	InvalidateChannel(ctx, "acct-1", "sms")

	_, ok := GetCachedChannel(ctx, "acct-1", "sms")
	assert.False(t, ok)
}

func TestChannelCacheExpires(t *testing.T) {
	mr := setupTestCache(t)
	ctx := context.Background()

	CacheChannel(ctx, "acct-1", "sms", []byte(`{}`))
	mr.FastForward(6 * time.Minute)

	_, ok := GetCachedChannel(ctx, "acct-1", "sms")
	assert.False(t, ok)
}

func TestBusinessNumbersCache(t *testing.T) {
	mr := setupTestCache(t)
	ctx := context.Background()

	payload := []byte(`[{"phone_number":"+14155550101"}]`)
	CacheBusinessNumbers(ctx, "biz-1", payload)

	got, ok := GetCachedBusinessNumbers(ctx, "biz-1")
	require.True(t, ok)
	assert.Equal(t, payload, got)

	InvalidateBusinessNumbers(ctx, "biz-1")
	_, ok = GetCachedBusinessNumbers(ctx, "biz-1")
	assert.False(t, ok)

	CacheBusinessNumbers(ctx, "biz-1", payload)
	mr.FastForward(3 * time.Minute)
	_, ok = GetCachedBusinessNumbers(ctx, "biz-1")
	assert.False(t, ok)
}

func TestCacheDegradesGracefullyWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	// All helpers must be safe no-ops when Redis is down.
	CacheChannel(ctx, "acct-1", "sms", []byte(`{}`))
	InvalidateChannel(ctx, "acct-1", "sms")
	CacheBusinessNumbers(ctx, "biz-1", []byte(`[]`))
	InvalidateBusinessNumbers(ctx, "biz-1")

	_, ok := GetCachedChannel(ctx, "acct-1", "sms")
	assert.False(t, ok)
	_, ok = GetCachedBusinessNumbers(ctx, "biz-1")
	assert.False(t, ok)
}
