package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, prefix string) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), prefix)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, "modelir:")

	data, hit, err := c.Get(ctx, "result:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() on empty cache = %q, %v, want miss", data, hit)
	}

	if err := c.Set(ctx, "result:abc", []byte(`{"graph":{}}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if !mr.Exists("modelir:result:abc") {
		t.Error("key not stored under the configured prefix")
	}
	if got := mr.TTL("modelir:result:abc"); got != time.Hour {
		t.Errorf("TTL = %v, want 1h", got)
	}

	data, hit, err = c.Get(ctx, "result:abc")
	if err != nil || !hit {
		t.Fatalf("Get() = hit %v, err %v, want hit", hit, err)
	}
	if string(data) != `{"graph":{}}` {
		t.Errorf("Get() = %q, want stored data", data)
	}

	mr.FastForward(2 * time.Hour)
	if _, hit, _ := c.Get(ctx, "result:abc"); hit {
		t.Error("entry still served after its TTL")
	}
}

func TestRedisCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, "")

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got := mr.TTL("k"); got != 0 {
		t.Errorf("TTL = %v, want none", got)
	}
	mr.FastForward(1000 * time.Hour)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry without TTL expired")
	}
}

func TestRedisCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, "p:")

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if mr.Exists("p:k") {
		t.Error("key survived Delete")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestRedisCache_ServerError(t *testing.T) {
	c, mr := newTestRedis(t, "")
	mr.SetError("ERR backend unavailable")

	if _, hit, err := c.Get(context.Background(), "k"); err == nil || hit {
		t.Errorf("Get() = hit %v, err %v, want an error", hit, err)
	}
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisOptions{Addr: mr.Addr(), Prefix: "x:", ConnectAttempts: 2})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _ := mr.Get("x:k"); got != "v" {
		t.Errorf("stored value = %q, want v", got)
	}
}
