package autodeck

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCacheKeyStable(t *testing.T) {
	a := CacheKey("m", 1024, "prompt")
	if a != CacheKey("m", 1024, "prompt") {
		t.Fatal("cache key not deterministic")
	}
	if a == CacheKey("m", 512, "prompt") || a == CacheKey("other", 1024, "prompt") {
		t.Fatal("cache key ignores model or size")
	}
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey("m", 1024, "p")
	if _, ok, err := c.Get(ctx, key); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, key, []byte("image")); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok || !bytes.Equal(data, []byte("image")) {
		t.Fatalf("Get = %q %v %v", data, ok, err)
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache dir holds %d entries, want 1 (temp files left behind?)", len(entries))
	}
}

func TestNewDiskCacheRequiresDir(t *testing.T) {
	if _, err := NewDiskCache(""); err == nil {
		t.Fatal("expected an error for an empty directory")
	}
}

// TestRedisCache runs against a live server named by AUTODECK_REDIS_ADDR.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv(EnvRedisAddr)
	if addr == "" {
		t.Skipf("%s not set", EnvRedisAddr)
	}
	ctx := context.Background()
	c, closeFn, err := DialRedisCache(ctx, addr, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	key := CacheKey("test", 1, time.Now().String())
	if _, ok, err := c.Get(ctx, key); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, key, []byte("v")); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(data) != "v" {
		t.Fatalf("hit: %q %v %v", data, ok, err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, time.Minute)
	if _, ok, err := c.Get(ctx, "k"); ok || err == nil {
		t.Fatalf("unreachable server: ok=%v err=%v", ok, err)
	}
}
