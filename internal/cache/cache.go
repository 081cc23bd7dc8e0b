// Package cache stores encoded prediction results keyed by a digest of the
// preprocessed inputs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get on a miss or an expired entry.
var ErrNotFound = errors.New("cache: not found")

// Cache is a byte-oriented key/value store with per-entry TTL.
// A zero ttl means the entry does not expire.
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Options selects and configures a backend for New.
type Options struct {
	// Backend is "memory", "redis" or "none".
	Backend    string
	MaxEntries int
	RedisAddr  string
	RedisDB    int
	RedisPass  string
	KeyPrefix  string
}

// New builds the backend named in o. "none" and "" return a nil Cache.
func New(ctx context.Context, o Options) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case "", "none", "off":
		return nil, nil
	case "memory":
		return NewMemory(o.MaxEntries), nil
	case "redis":
		return NewRedis(ctx, RedisOptions{Addr: o.RedisAddr, DB: o.RedisDB, Password: o.RedisPass, Prefix: o.KeyPrefix})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", o.Backend)
	}
}
