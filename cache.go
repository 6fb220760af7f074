package autodeck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// ImageCache stores generated images keyed by CacheKey. A miss is
// (nil, false, nil).
type ImageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
}

// CacheKey is sha256(model|size|prompt) in hex.
func CacheKey(model string, size int, prompt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", model, size, prompt)))
	return hex.EncodeToString(sum[:])
}

// --- Disk ---

// DiskCache keeps one file per key under Dir.
type DiskCache struct {
	Dir string
}

// NewDiskCache creates dir if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("disk cache: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk cache: %w", err)
	}
	return &DiskCache{Dir: dir}, nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.Dir, key+".img")
}

// Get reads the cached image for key; a missing file is a miss.
func (c *DiskCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put writes through a temp file and rename so readers never see a partial
// entry.
func (c *DiskCache) Put(_ context.Context, key string, data []byte) error {
	f, err := os.CreateTemp(c.Dir, ".put-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// --- Redis ---

const redisKeyPrefix = "autodeck:img:"

// RedisCache stores images as Redis strings with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache wraps a client. A zero ttl keeps entries forever.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedisCache connects to addr and pings it.
func DialRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, func() error, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis cache %s: %w", addr, err)
	}
	return NewRedisCache(client, ttl), client.Close, nil
}

// Get reads the cached image for key; redis.Nil is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores data under key with the cache TTL.
func (c *RedisCache) Put(ctx context.Context, key string, data []byte) error {
	return c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err()
}
