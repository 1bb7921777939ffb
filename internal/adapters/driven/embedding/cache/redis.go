// Package cache stores embeddings so identical texts are embedded once.
// RedisCache shares vectors across processes; EmbeddingService wraps any
// embedder with a cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// Ensure RedisCache implements the interface.
var _ driven.EmbeddingCache = (*RedisCache)(nil)

// DefaultTTL is how long a cached vector lives.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "docsight:embedding:"

// RedisCache is a driven.EmbeddingCache on Redis.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A ttl of 0 uses DefaultTTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Dial connects to addr and checks the server answers.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisCache(client, ttl), nil
}

// Key returns the cache key of text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + model + ":" + hex.EncodeToString(sum[:])
}

// Get returns a cached vector. The bool is false on a miss.
func (c *RedisCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, Key(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading embedding cache: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, false, fmt.Errorf("reading embedding cache: corrupt entry of %d bytes", len(data))
	}
	return decode(data), true, nil
}

// Set stores a vector with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, model, text string, vector []float32) error {
	if err := c.client.Set(ctx, Key(model, text), encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("writing embedding cache: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
