package repository

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// Digest fingerprints a replay input. Each part is length-prefixed so that
// moving bytes between parts changes the digest.
func Digest(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	var size [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ResultCache stores encoded replay results by input digest.
type ResultCache interface {
	Get(ctx context.Context, digest string) ([]byte, bool, error)
	Set(ctx context.Context, digest string, results []byte) error
}

type resultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResultCache builds a Redis backed cache. A nil client yields a cache
// that always misses.
func NewResultCache(client *redis.Client, prefix string, ttl time.Duration) ResultCache {
	return &resultCache{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key for a digest.
func (c *resultCache) Key(digest string) string {
	return c.prefix + digest
}

func (c *resultCache) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, c.Key(digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *resultCache) Set(ctx context.Context, digest string, results []byte) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.Key(digest), results, c.ttl).Err()
}
