package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
)

type fakeCommands struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	expireNX int
	fail     error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.fail)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.fail != nil {
		return redis.NewIntResult(0, f.fail)
	}
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expireNX++
	if _, ok := f.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
		delete(f.counters, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestIncrWithTTLStartsWindowOnFirstHit(t *testing.T) {
	fake := newFakeCommands()
	client := &Client{Keyspace: DefaultKeyspace, cmd: fake}
	key := client.RateLimitKey("login", "ip", "10.0.0.7")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(context.Background(), key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, time.Minute, fake.ttls[key])
	assert.Equal(t, 3, fake.expireNX)
}

func TestIncrWithTTLPropagatesErrors(t *testing.T) {
	fake := newFakeCommands()
	fake.fail = errors.New("connection reset")
	client := &Client{cmd: fake}

	_, err := client.IncrWithTTL(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.Zero(t, fake.expireNX)
}

func TestHierarchyCacheRoundTrip(t *testing.T) {
	client := &Client{Keyspace: DefaultKeyspace, cmd: newFakeCommands()}
	ctx := context.Background()
	key := client.HierarchyCacheKey(42)

	require.NoError(t, client.Set(ctx, key, `{"brands":[],"hasPriceMapping":false}`, time.Minute))
	cached, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, cached, "hasPriceMapping")

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, IsMiss(err))
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	client := &Client{cmd: newFakeCommands()}
	ctx := context.Background()

	first, err := client.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	second, err := client.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestZeroClientReportsNotConnected(t *testing.T) {
	var client *Client
	ctx := context.Background()

	assert.ErrorIs(t, client.Ping(ctx), ErrNotConnected)
	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = (&Client{}).IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = client.Incr(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, client.Close())
}

func TestKeyspace(t *testing.T) {
	ks := DefaultKeyspace
	cases := map[string]string{
		ks.IdempotencyKey("user|POST|/api/v1/sale-orders", "abc"): "lr:idempotency:user|POST|/api/v1/sale-orders:abc",
		ks.RateLimitKey("login", "email", "h"):                    "lr:rate_limit:login:email:h",
		ks.LockKey("cron-worker:prod"):                            "lr:lock:cron-worker:prod",
		ks.AccessSessionKey("jti-1"):                              "lr:session:access:jti-1",
		ks.HierarchyCacheKey(7):                                   "lr:pricing:hierarchy:7",
		ks.CatalogVersionKey():                                    "lr:pricing:catalog_version",
		ks.IdempotencyKey("", "abc"):                              "lr:idempotency:abc",
		Keyspace{}.LockKey("audit-retention"):                     "lock:audit-retention",
	}
	for got, want := range cases {
		assert.Equal(t, want, got)
	}
}

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://:pw@cache.internal:6380/2", PoolSize: 12, DialTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 12, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	opts, err = Options(config.RedisConfig{Address: "localhost:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, opts.DB)

	_, err = Options(config.RedisConfig{})
	assert.Error(t, err)
}
