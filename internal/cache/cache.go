// Package cache stores serialized analysis results keyed by document content
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/clausewise/internal/model"
)

// KeyPrefix namespaces every cache key; bump the version when the result
// format changes
const KeyPrefix = "clausewise:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheKey derives the cache key of a document analyzed in a language
func CacheKey(text, lang string) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the backend selected by cfg. A disabled cache returns a
// no-op cache.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.DiskDir, cfg.DiskTTL), nil
	case "layered":
		return NewLayeredCache(cfg.MemoryTTL, cfg.DiskDir, cfg.DiskTTL), nil
	case "redis":
		return NewRedisCache(RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, TTL: cfg.RedisTTL}), nil
	default:
		return nil, &model.ConfigurationError{Source: "cache.backend", Err: fmt.Errorf("unknown backend %q", cfg.Backend)}
	}
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)               { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error                    { return nil }
func (Nop) Clear(context.Context) error                             { return nil }
